package language

import "testing"

func TestToISO2(t *testing.T) {
	cases := map[string]string{
		"en-US": "en",
		"en_GB": "en",
		"fr":    "fr",
		"de-DE": "de",
		"":      "",
		"???":   "",
	}
	for in, want := range cases {
		if got := ToISO2(in); got != want {
			t.Fatalf("ToISO2(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("en_us"); got != "en-US" {
		t.Fatalf("Normalize = %q", got)
	}
	if got := Normalize("not a tag"); got != "" {
		t.Fatalf("expected empty for invalid tag, got %q", got)
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("en-US"); got != "American English" {
		t.Fatalf("DisplayName = %q", got)
	}
}
