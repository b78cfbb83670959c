package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"trims surrounding whitespace", "  Window Seating  ", "Window Seating"},
		{"collapses internal runs", "Main \t  Hall", "Main Hall"},
		{"empty stays empty", "   ", ""},
		{"idempotent", "Main Hall", "Main Hall"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestNormalizeDay(t *testing.T) {
	if got := NormalizeDay(" Friday "); got != "friday" {
		t.Errorf("expected friday, got %q", got)
	}
}

func TestEscapeRegex(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"(a+)+b", `\(a\+\)\+b`},
		{"tel aviv", "tel aviv"},
		{"a.b", `a\.b`},
	}

	for _, tt := range tests {
		if got := EscapeRegex(tt.input); got != tt.expected {
			t.Errorf("EscapeRegex(%q): expected %q, got %q", tt.input, tt.expected, got)
		}
	}
}
