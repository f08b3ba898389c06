//go:build windows

// Package winproc exposes the raw win32 procedures barkeep needs for
// screen capture and low-level input hooks.
package winproc

import "golang.org/x/sys/windows"

const (
	SRCCOPY = 0x00CC0020

	WH_KEYBOARD_LL = 13
	WH_MOUSE_LL    = 14

	WM_KEYDOWN    = 0x0100
	WM_KEYUP      = 0x0101
	WM_SYSKEYDOWN = 0x0104
	WM_SYSKEYUP   = 0x0105

	WM_LBUTTONDOWN = 0x0201
	WM_RBUTTONDOWN = 0x0204
	WM_MBUTTONDOWN = 0x0207
	WM_XBUTTONDOWN = 0x020B
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	gdi32  = windows.NewLazySystemDLL("gdi32.dll")

	GetDC               = user32.NewProc("GetDC")
	ReleaseDC           = user32.NewProc("ReleaseDC")
	GetSystemMetrics    = user32.NewProc("GetSystemMetrics")
	SetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	UnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	CallNextHookEx      = user32.NewProc("CallNextHookEx")
	GetMessageW         = user32.NewProc("GetMessageW")
	PostThreadMessageW  = user32.NewProc("PostThreadMessageW")
	SetProcessDpiAware  = user32.NewProc("SetProcessDPIAware")

	CreateCompatibleDC = gdi32.NewProc("CreateCompatibleDC")
	DeleteDC           = gdi32.NewProc("DeleteDC")
	CreateDIBSection   = gdi32.NewProc("CreateDIBSection")
	SelectObject       = gdi32.NewProc("SelectObject")
	DeleteObject       = gdi32.NewProc("DeleteObject")
	BitBlt             = gdi32.NewProc("BitBlt")
	GdiFlush           = gdi32.NewProc("GdiFlush")
	GetDeviceCaps      = gdi32.NewProc("GetDeviceCaps")
)

// GetSystemMetrics indices for the virtual screen.
const (
	SM_XVIRTUALSCREEN  = 76
	SM_YVIRTUALSCREEN  = 77
	SM_CXVIRTUALSCREEN = 78
	SM_CYVIRTUALSCREEN = 79
)
