package input

import "testing"

func TestNormalizeBind(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"F5", "f5"},
		{"  Space ", "space"},
		{"x1", "x1"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeBind(tc.in); got != tc.want {
			t.Errorf("NormalizeBind(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatBindForDisplay(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", "Set"},
		{"   ", "Set"},
		{"x1", "Mouse 4"},
		{"x2", "Mouse 5"},
		{"left", "LMB"},
		{"right", "RMB"},
		{"middle", "MMB"},
		{"f5", "F5"},
		{"F10", "F10"},
		{"q", "Q"},
		{"space", "Space"},
		{"numpad1", "Numpad1"},
	}
	for _, tc := range cases {
		if got := FormatBindForDisplay(tc.in); got != tc.want {
			t.Errorf("FormatBindForDisplay(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
