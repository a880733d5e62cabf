package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column. MaxWidth wraps longer cells; zero
// leaves the column unbounded.
type column struct {
	Title    string
	Align    text.Align
	MaxWidth int
}

func left(title string) column  { return column{Title: title, Align: text.AlignLeft} }
func right(title string) column { return column{Title: title, Align: text.AlignRight} }

func wrapped(title string, width int) column {
	return column{Title: title, Align: text.AlignLeft, MaxWidth: width}
}

// renderTable draws rows under cols. Short rows are padded; caption, when
// set, is printed below the table.
func renderTable(cols []column, rows [][]string, caption string) string {
	if len(cols) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(cols))
	configs := make([]table.ColumnConfig, len(cols))
	for i, c := range cols {
		header[i] = c.Title
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       c.Align,
			AlignHeader: text.AlignLeft,
		}
		if c.MaxWidth > 0 {
			configs[i].WidthMax = c.MaxWidth
			configs[i].WidthMaxEnforcer = text.WrapSoft
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(cols))
		for i := range cols {
			r[i] = ""
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	if caption != "" {
		tw.SetCaption(caption)
	}
	return tw.Render()
}
