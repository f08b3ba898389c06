//go:build windows

package input

import (
	"strconv"

	"github.com/lxn/win"
)

var namedVKs = map[string]uint16{
	"space":     win.VK_SPACE,
	"enter":     win.VK_RETURN,
	"tab":       win.VK_TAB,
	"esc":       win.VK_ESCAPE,
	"escape":    win.VK_ESCAPE,
	"backspace": win.VK_BACK,
	"delete":    win.VK_DELETE,
	"insert":    win.VK_INSERT,
	"home":      win.VK_HOME,
	"end":       win.VK_END,
	"pgup":      win.VK_PRIOR,
	"pgdn":      win.VK_NEXT,
	"up":        win.VK_UP,
	"down":      win.VK_DOWN,
	"minus":     win.VK_OEM_MINUS,
	"equals":    win.VK_OEM_PLUS,
	"comma":     win.VK_OEM_COMMA,
	"period":    win.VK_OEM_PERIOD,
	"grave":     win.VK_OEM_3,
}

// bindToVK maps a normalized single-key bind to its virtual-key code.
func bindToVK(key string) (uint16, bool) {
	if vk, ok := namedVKs[key]; ok {
		return vk, true
	}
	// f1..f24
	if len(key) >= 2 && key[0] == 'f' {
		n := 0
		for _, c := range key[1:] {
			if c < '0' || c > '9' {
				n = 0
				break
			}
			n = n*10 + int(c-'0')
		}
		if n >= 1 && n <= 24 {
			return uint16(win.VK_F1 + n - 1), true
		}
	}
	if len(key) == 1 {
		c := key[0]
		switch {
		case c >= '0' && c <= '9':
			return uint16(c), true
		case c >= 'a' && c <= 'z':
			return uint16(c - 'a' + 'A'), true
		}
	}
	return 0, false
}

// vkToBind is the reverse mapping used by the hook when naming observed
// presses.
func vkToBind(vk uint32) string {
	switch {
	case vk >= '0' && vk <= '9':
		return string(rune(vk))
	case vk >= 'A' && vk <= 'Z':
		return string(rune(vk - 'A' + 'a'))
	case vk >= win.VK_F1 && vk <= win.VK_F24:
		return "f" + strconv.Itoa(int(vk-win.VK_F1)+1)
	}
	for name, code := range namedVKs {
		if uint32(code) == vk {
			return name
		}
	}
	return ""
}
