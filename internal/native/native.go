// Package native abstracts the platform window system. The engine talks to
// a Backend for every surface operation; the darwin implementation realizes
// surfaces as AppKit windows and non-activating panels, and tests use the
// deterministic fake in nativetest.
package native

import (
	"errors"

	"github.com/aurapanel/aurapanel/internal/model"
)

var (
	// ErrCreateFailed is returned when the platform could not realize a
	// window surface.
	ErrCreateFailed = errors.New("native window create failed")

	// ErrPanelUnavailable is returned when the platform cannot realize a
	// non-activating floating panel.
	ErrPanelUnavailable = errors.New("native panel unavailable")

	// ErrSurfaceNotFound is returned for operations against a surface id
	// the backend does not know.
	ErrSurfaceNotFound = errors.New("native surface not found")
)

// SurfaceID identifies a native surface within the backend.
type SurfaceID uint64

// SurfaceConfig describes a surface to be realized. Frame is in
// virtual-desktop logical pixels, top-left origin; the backend translates to
// the platform's native origin.
type SurfaceConfig struct {
	Label string
	URL   string
	Frame model.Rect
	Flags model.WindowConfig

	// NonActivating requests a floating panel that never steals focus
	// from the active application. Only panels support it.
	NonActivating bool
}

// EventKind discriminates backend events.
type EventKind int

const (
	// EventBlur fires when a surface loses focus.
	EventBlur EventKind = iota

	// EventDisplaysChanged fires on any display topology change:
	// addition, removal, resolution change, scale change.
	EventDisplaysChanged

	// EventAppDeactivated fires when the whole application resigns
	// active, e.g. the user clicked into another app.
	EventAppDeactivated
)

// Event is a platform notification delivered through Backend.Events.
type Event struct {
	Kind    EventKind
	Surface SurfaceID
	Label   string
}

// Scheduler marshals functions onto the platform's UI thread. All Backend
// surface operations must be invoked from it.
type Scheduler interface {
	Schedule(fn func())
}

// Backend is the platform seam. Implementations are not required to be
// goroutine-safe; the UI loop serializes all calls.
type Backend interface {
	Scheduler

	// Displays returns the current monitor table in virtual-desktop
	// logical coordinates, primary first.
	Displays() ([]model.Monitor, error)

	// CreateWindow realizes a hidden inline window surface.
	CreateWindow(cfg SurfaceConfig) (SurfaceID, error)

	// CreatePanel realizes a hidden floating panel surface.
	CreatePanel(cfg SurfaceConfig) (SurfaceID, error)

	SetFrame(id SurfaceID, frame model.Rect) error
	SetSize(id SurfaceID, width, height float64) error
	Show(id SurfaceID) error
	Hide(id SurfaceID) error
	Close(id SurfaceID) error
	SetClickThrough(id SurfaceID, enabled bool) error

	// MouseLocation reports the pointer position in virtual-desktop
	// logical coordinates.
	MouseLocation() (x, y float64, err error)

	// Events delivers platform notifications. The channel is closed when
	// the backend shuts down.
	Events() <-chan Event
}
