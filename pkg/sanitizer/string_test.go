package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"only spaces", "   ", ""},
		{"simple", "Root Canal", "Root Canal"},
		{"leading and trailing", "  Robert Johnson  ", "Robert Johnson"},
		{"internal runs", "Staff   Meeting", "Staff Meeting"},
		{"tabs and newlines", "Office\tClosed\nToday", "Office Closed Today"},
		{"control characters", "Wisdom\x00 Tooth\x07", "Wisdom Tooth"},
		{"unicode preserved", "Crème Brûlée Clinic", "Crème Brûlée Clinic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIdempotence(t *testing.T) {
	inputs := []string{"  a  b ", "x\ty", "already clean"}
	for _, in := range inputs {
		once := TrimAndNormalize(in)
		twice := TrimAndNormalize(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}
