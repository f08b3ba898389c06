// Package input injects keybinds into the system and observes global
// key/mouse presses for the spell queue and profile hotkeys.
package input

import "strings"

// NormalizeBind canonicalizes a bind string for comparison.
func NormalizeBind(bind string) string {
	return strings.ToLower(strings.TrimSpace(bind))
}

// FormatBindForDisplay converts a stored bind to its UI label, e.g.
// "f5" -> "F5" and "x1" -> "Mouse 4".
func FormatBindForDisplay(bind string) string {
	b := NormalizeBind(bind)
	switch b {
	case "":
		return "Set"
	case "x1":
		return "Mouse 4"
	case "x2":
		return "Mouse 5"
	case "left":
		return "LMB"
	case "right":
		return "RMB"
	case "middle":
		return "MMB"
	}
	if len(b) <= 2 && strings.HasPrefix(b, "f") {
		return strings.ToUpper(b)
	}
	if len(b) <= 2 {
		return strings.ToUpper(b)
	}
	return strings.ToUpper(b[:1]) + b[1:]
}
