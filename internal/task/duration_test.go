package task

import "testing"

func TestNormalizeDuration(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1:30", "PT1H30M"},
		{"0:45", "PT0H45M"},
		{"10:05", "PT10H5M"},
		{"PT1H30M", "PT1H30M"}, // already ISO, passes through
		{"PT0H45M", "PT0H45M"},
		{"", ""},
		{"ninety", "ninety"}, // unparseable values are left alone
	}
	for _, tt := range tests {
		got := NormalizeDuration(tt.input)
		if got != tt.want {
			t.Errorf("NormalizeDuration(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeDurationIdempotent(t *testing.T) {
	once := NormalizeDuration("1:30")
	twice := NormalizeDuration(once)
	if once != twice {
		t.Errorf("normalizing twice changed the value: %q then %q", once, twice)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"PT1H30M", "01:30"},
		{"PT0H45M", "00:45"},
		{"PT10H5M", "10:05"},
		{"", ""},
		{"1:30", "1:30"}, // not ISO, returned as-is
	}
	for _, tt := range tests {
		got := FormatDuration(tt.input)
		if got != tt.want {
			t.Errorf("FormatDuration(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
