//go:build windows

package utils

import (
	"syscall"

	"golang.org/x/sys/windows"

	"github.com/barkeep/barkeep/internal/utils/winproc"
)

const logPixelsX = 88

// SetDPIAware opts the process out of DPI virtualization so screen
// coordinates and captures use physical pixels.
func SetDPIAware() {
	winproc.SetProcessDpiAware.Call()
}

func ShowDialog(title, message string) {
	t, _ := syscall.UTF16PtrFromString(title)
	txt, _ := syscall.UTF16PtrFromString(message)

	windows.MessageBox(0, txt, t, 0)
}

// DisplayScale returns the system DPI scale factor, 1.0 when it cannot
// be determined.
func DisplayScale() float64 {
	hdc, _, _ := winproc.GetDC.Call(0)
	if hdc == 0 {
		return 1
	}
	defer winproc.ReleaseDC.Call(0, hdc)

	dpi, _, _ := winproc.GetDeviceCaps.Call(hdc, logPixelsX)
	if dpi == 0 {
		return 1
	}
	return float64(dpi) / 96.0
}
