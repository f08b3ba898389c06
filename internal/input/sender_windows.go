//go:build windows

package input

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

// WinSender injects binds through SendInput.
type WinSender struct{}

func NewSender() (*WinSender, error) {
	return &WinSender{}, nil
}

// Send presses a bind like "2", "f5", "ctrl+e" or a mouse bind like
// "x1". Modifiers are held around the final key.
func (s *WinSender) Send(keybind string) error {
	bind := NormalizeBind(keybind)
	if bind == "" {
		return fmt.Errorf("%w: empty keybind", ErrSendFailed)
	}

	if flagsDown, flagsUp, ok := mouseFlags(bind); ok {
		if err := sendMouse(flagsDown, bind); err != nil {
			return err
		}
		return sendMouse(flagsUp, bind)
	}

	parts := strings.Split(bind, "+")
	key := parts[len(parts)-1]
	mods := parts[:len(parts)-1]

	vk, ok := bindToVK(key)
	if !ok {
		return fmt.Errorf("%w: unknown keybind %q", ErrSendFailed, keybind)
	}
	modVKs := make([]uint16, 0, len(mods))
	for _, m := range mods {
		mvk, ok := modifierVK(m)
		if !ok {
			return fmt.Errorf("%w: unknown modifier %q in %q", ErrSendFailed, m, keybind)
		}
		modVKs = append(modVKs, mvk)
	}

	for _, mvk := range modVKs {
		if err := sendKey(mvk, false); err != nil {
			return err
		}
	}
	if err := sendKey(vk, false); err != nil {
		return err
	}
	if err := sendKey(vk, true); err != nil {
		return err
	}
	for i := len(modVKs) - 1; i >= 0; i-- {
		if err := sendKey(modVKs[i], true); err != nil {
			return err
		}
	}
	return nil
}

func sendKey(vk uint16, up bool) error {
	var flags uint32
	if up {
		flags = win.KEYEVENTF_KEYUP
	}
	input := win.KEYBD_INPUT{
		Type: win.INPUT_KEYBOARD,
		Ki:   win.KEYBDINPUT{WVk: vk, DwFlags: flags},
	}
	if win.SendInput(1, unsafe.Pointer(&input), int32(unsafe.Sizeof(input))) != 1 {
		return fmt.Errorf("%w: SendInput(vk=%d)", ErrSendFailed, vk)
	}
	return nil
}

func sendMouse(flags uint32, bind string) error {
	var data uint32
	switch bind {
	case "x1":
		data = 1 // XBUTTON1
	case "x2":
		data = 2 // XBUTTON2
	}
	input := win.MOUSE_INPUT{
		Type: win.INPUT_MOUSE,
		Mi:   win.MOUSEINPUT{DwFlags: flags, MouseData: data},
	}
	if win.SendInput(1, unsafe.Pointer(&input), int32(unsafe.Sizeof(input))) != 1 {
		return fmt.Errorf("%w: SendInput(mouse %s)", ErrSendFailed, bind)
	}
	return nil
}

func mouseFlags(bind string) (down, up uint32, ok bool) {
	switch bind {
	case "left":
		return win.MOUSEEVENTF_LEFTDOWN, win.MOUSEEVENTF_LEFTUP, true
	case "right":
		return win.MOUSEEVENTF_RIGHTDOWN, win.MOUSEEVENTF_RIGHTUP, true
	case "middle":
		return win.MOUSEEVENTF_MIDDLEDOWN, win.MOUSEEVENTF_MIDDLEUP, true
	case "x1", "x2":
		return win.MOUSEEVENTF_XDOWN, win.MOUSEEVENTF_XUP, true
	}
	return 0, 0, false
}

func modifierVK(mod string) (uint16, bool) {
	switch mod {
	case "ctrl", "control":
		return win.VK_CONTROL, true
	case "alt":
		return win.VK_MENU, true
	case "shift":
		return win.VK_SHIFT, true
	case "win":
		return win.VK_LWIN, true
	}
	return 0, false
}

// targetWindowActive checks the foreground window title against the
// configured target. Empty target always passes.
func targetWindowActive(title string) bool {
	target := strings.ToLower(strings.TrimSpace(title))
	if target == "" {
		return true
	}
	hwnd := win.GetForegroundWindow()
	if hwnd == 0 {
		return false
	}
	buf := make([]uint16, 512)
	n := win.GetWindowText(hwnd, &buf[0], int32(len(buf)))
	if n <= 0 {
		return false
	}
	foreground := strings.ToLower(windows.UTF16ToString(buf[:n]))
	return strings.Contains(foreground, target)
}
