package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Default is the tag used when none is configured.
const Default = "en-US"

// Normalize returns the canonical BCP-47 form of tag, or "" when tag does
// not parse.
func Normalize(tag string) string {
	t, err := parse(tag)
	if err != nil {
		return ""
	}
	return t.String()
}

// ToISO2 returns the two-letter base language for tag ("en-US" -> "en").
// Unparseable input yields "".
func ToISO2(tag string) string {
	t, err := parse(tag)
	if err != nil {
		return ""
	}
	base, conf := t.Base()
	if conf == language.No {
		return ""
	}
	code := base.String()
	if len(code) != 2 {
		return ""
	}
	return code
}

// DisplayName returns the English name of tag, falling back to the input.
func DisplayName(tag string) string {
	t, err := parse(tag)
	if err != nil {
		return strings.TrimSpace(tag)
	}
	if name := display.English.Tags().Name(t); name != "" {
		return name
	}
	return t.String()
}

func parse(tag string) (language.Tag, error) {
	tag = strings.TrimSpace(strings.ReplaceAll(tag, "_", "-"))
	return language.Parse(tag)
}
