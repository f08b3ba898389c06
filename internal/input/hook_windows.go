//go:build windows

package input

import (
	"context"
	"log/slog"
	"runtime"
	"syscall"
	"unsafe"

	"github.com/barkeep/barkeep/internal/utils/winproc"
)

const llkhfInjected = 0x10

type kbdLLHookStruct struct {
	VkCode    uint32
	ScanCode  uint32
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

type point struct{ X, Y int32 }

type msLLHookStruct struct {
	Pt        point
	MouseData uint32
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

// Hook installs low-level keyboard and mouse hooks and reports observed
// presses as normalized bind strings. Injected events (our own sends)
// are filtered out so the rotation never feeds its own queue. The
// callback runs on the hook thread and must return quickly.
type Hook struct {
	logger   *slog.Logger
	onPress  func(bind string)
	threadID uint32
}

func NewHook(logger *slog.Logger, onPress func(bind string)) *Hook {
	return &Hook{logger: logger, onPress: onPress}
}

// Run pumps hook messages until the context is cancelled. It owns its OS
// thread for the lifetime of the hooks.
func (h *Hook) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	kernel32 := syscall.NewLazyDLL("kernel32.dll")
	tid, _, _ := kernel32.NewProc("GetCurrentThreadId").Call()
	h.threadID = uint32(tid)

	kbProc := syscall.NewCallback(func(nCode int32, wParam, lParam uintptr) uintptr {
		if nCode >= 0 && (wParam == winproc.WM_KEYUP || wParam == winproc.WM_SYSKEYUP) {
			kb := (*kbdLLHookStruct)(unsafe.Pointer(lParam))
			if kb.Flags&llkhfInjected == 0 {
				if bind := vkToBind(kb.VkCode); bind != "" {
					h.onPress(bind)
				}
			}
		}
		ret, _, _ := winproc.CallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
		return ret
	})

	mouseProc := syscall.NewCallback(func(nCode int32, wParam, lParam uintptr) uintptr {
		if nCode >= 0 {
			ms := (*msLLHookStruct)(unsafe.Pointer(lParam))
			if ms.Flags&1 == 0 { // LLMHF_INJECTED
				if bind := mouseBind(wParam, ms.MouseData); bind != "" {
					h.onPress(bind)
				}
			}
		}
		ret, _, _ := winproc.CallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
		return ret
	})

	kbHook, _, _ := winproc.SetWindowsHookExW.Call(winproc.WH_KEYBOARD_LL, kbProc, 0, 0)
	if kbHook == 0 {
		h.logger.Warn("Could not install keyboard hook; spell queue and hotkeys disabled")
		<-ctx.Done()
		return ctx.Err()
	}
	defer winproc.UnhookWindowsHookEx.Call(kbHook)

	mouseHook, _, _ := winproc.SetWindowsHookExW.Call(winproc.WH_MOUSE_LL, mouseProc, 0, 0)
	if mouseHook != 0 {
		defer winproc.UnhookWindowsHookEx.Call(mouseHook)
	}

	go func() {
		<-ctx.Done()
		winproc.PostThreadMessageW.Call(uintptr(h.threadID), 0x0012 /* WM_QUIT */, 0, 0)
	}()

	var msg [48]byte // MSG struct, contents unused
	for {
		ret, _, _ := winproc.GetMessageW.Call(uintptr(unsafe.Pointer(&msg[0])), 0, 0, 0)
		if int32(ret) <= 0 {
			return ctx.Err()
		}
	}
}

func mouseBind(wParam uintptr, mouseData uint32) string {
	switch wParam {
	case winproc.WM_LBUTTONDOWN:
		return "left"
	case winproc.WM_RBUTTONDOWN:
		return "right"
	case winproc.WM_MBUTTONDOWN:
		return "middle"
	case winproc.WM_XBUTTONDOWN:
		if mouseData>>16 == 2 {
			return "x2"
		}
		return "x1"
	}
	return ""
}
