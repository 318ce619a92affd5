//go:build !darwin

package native

import (
	"errors"
	"log/slog"
)

// New is unavailable off macOS; the engine targets AppKit surfaces.
func New(logger *slog.Logger) (Backend, error) {
	_ = logger
	return nil, errors.New("native backend requires macOS")
}

// RunApp is a stub off macOS.
func RunApp(ready func()) {
	if ready != nil {
		ready()
	}
	select {}
}

// TerminateApp is a stub off macOS.
func TerminateApp() {}
