package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"reelpress/internal/preflight"
)

const checkLabelWidth = 24

// checkStyle is how one preflight outcome is printed.
type checkStyle struct {
	label string
	color text.Colors
}

var (
	stylePassed  = checkStyle{label: "OK", color: text.Colors{text.FgGreen}}
	styleSkipped = checkStyle{label: "SKIP", color: text.Colors{text.FgYellow}}
	styleFailed  = checkStyle{label: "FAIL", color: text.Colors{text.FgRed, text.Bold}}
)

func styleFor(r preflight.Result) checkStyle {
	switch {
	case r.Passed:
		return stylePassed
	case r.Skipped:
		return styleSkipped
	default:
		return styleFailed
	}
}

// renderCheckLine formats r as "  Name:   [OK] detail".
func renderCheckLine(r preflight.Result, colorize bool) string {
	style := styleFor(r)
	status := "[" + style.label + "]"
	if r.Detail != "" {
		status += " " + r.Detail
	}
	line := fmt.Sprintf("  %-*s %s", checkLabelWidth, r.Name+":", status)
	if colorize {
		return style.color.Sprint(line)
	}
	return line
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
