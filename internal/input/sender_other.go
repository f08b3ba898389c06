//go:build !windows

package input

import "fmt"

// NullSender satisfies the key-injection contract on platforms without a
// native input path; every send fails so the gate reports it instead of
// silently doing nothing.
type NullSender struct{}

func NewSender() (*NullSender, error) {
	return &NullSender{}, nil
}

func (NullSender) Send(keybind string) error {
	return fmt.Errorf("%w: key injection unsupported on this platform", ErrSendFailed)
}

func targetWindowActive(string) bool { return true }
