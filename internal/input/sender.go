package input

import "errors"

var ErrSendFailed = errors.New("key injection failed")

// KeySender injects a keybind like "2", "f5" or "ctrl+e". Send either
// succeeds or returns an error; it is never retried by the caller within
// the same tick.
type KeySender interface {
	Send(keybind string) error
}

// Focus reports whether the target window currently has keyboard focus.
type Focus struct{}

// TargetWindowActive returns true when the foreground window's title
// contains the target (case-insensitive), or when no target is set.
func (Focus) TargetWindowActive(title string) bool {
	return targetWindowActive(title)
}
