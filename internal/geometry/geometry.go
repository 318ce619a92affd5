// Package geometry solves declarative position descriptors and popover
// anchor placements into absolute rectangles. All functions are pure: the
// same descriptor and monitor table always yield the same rectangle.
package geometry

import (
	"errors"
	"fmt"

	"github.com/aurapanel/aurapanel/internal/model"
)

var (
	// ErrUnresolvablePosition is returned when a descriptor has no
	// soluble axis or solves to a negative extent.
	ErrUnresolvablePosition = errors.New("unresolvable position")

	// ErrNoMonitors is returned when the monitor table is empty.
	ErrNoMonitors = errors.New("no monitors")
)

// SelectMonitor picks the monitor a descriptor is relative to: the named
// monitor when present, otherwise the primary. The sentinel "primary" and an
// unknown name both select the primary.
func SelectMonitor(name string, monitors []model.Monitor) (model.Monitor, error) {
	if len(monitors) == 0 {
		return model.Monitor{}, ErrNoMonitors
	}
	if name != "" && name != model.PrimaryMonitor {
		for _, m := range monitors {
			if m.Name == name {
				return m, nil
			}
		}
	}
	return primaryOf(monitors), nil
}

// MonitorAt returns the monitor containing the point, falling back to the
// primary when no monitor contains it.
func MonitorAt(x, y float64, monitors []model.Monitor) (model.Monitor, error) {
	if len(monitors) == 0 {
		return model.Monitor{}, ErrNoMonitors
	}
	for _, m := range monitors {
		if m.Bounds().Contains(x, y) {
			return m, nil
		}
	}
	return primaryOf(monitors), nil
}

func primaryOf(monitors []model.Monitor) model.Monitor {
	for _, m := range monitors {
		if m.Primary {
			return m
		}
	}
	return monitors[0]
}

// Solve resolves a position descriptor against the monitor table, returning
// the absolute rectangle in virtual-desktop logical pixels and the monitor
// it was solved on.
func Solve(pos model.Position, monitors []model.Monitor) (model.Rect, model.Monitor, error) {
	mon, err := SelectMonitor(pos.Monitor, monitors)
	if err != nil {
		return model.Rect{}, model.Monitor{}, err
	}

	x, w, err := solveAxis(pos.Left, pos.Right, pos.Width, mon.Width, "horizontal")
	if err != nil {
		return model.Rect{}, model.Monitor{}, err
	}
	y, h, err := solveAxis(pos.Top, pos.Bottom, pos.Height, mon.Height, "vertical")
	if err != nil {
		return model.Rect{}, model.Monitor{}, err
	}

	return model.Rect{X: mon.X + x, Y: mon.Y + y, Width: w, Height: h}, mon, nil
}

// solveAxis computes the local origin and extent for one axis. near is the
// monitor-origin-side inset (left/top), far the opposite inset
// (right/bottom), size the explicit extent.
func solveAxis(near, far, size *float64, span float64, axis string) (origin, extent float64, err error) {
	switch {
	case near != nil && far != nil:
		origin = *near
		extent = span - *near - *far
	case near != nil && size != nil:
		origin = *near
		extent = *size
	case far != nil && size != nil:
		origin = span - *far - *size
		extent = *size
	case near != nil:
		origin = *near
		extent = span - *near
	case far != nil:
		origin = 0
		extent = span - *far
	case size != nil:
		extent = *size
		origin = (span - extent) / 2
	default:
		return 0, 0, fmt.Errorf("%w: %s axis has no constraint", ErrUnresolvablePosition, axis)
	}

	if extent < 0 || origin < 0 {
		return 0, 0, fmt.Errorf("%w: %s axis solves to origin %g extent %g", ErrUnresolvablePosition, axis, origin, extent)
	}
	if extent < 1 {
		extent = 1
	}
	return origin, extent, nil
}
