// Package model defines the shared data types for the panel engine:
// rectangles and monitors in virtual-desktop logical coordinates, position
// descriptors, window and popover records, and the child boot context.
package model

// Rect is a rectangle in virtual-desktop logical pixels, top-left origin.
// Fractional values are permitted; device-pixel snapping is the native
// layer's concern.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// The right and bottom edges are exclusive.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Midpoint returns the centre of the rectangle.
func (r Rect) Midpoint() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Monitor describes a display in the virtual desktop. Width/Height and the
// X/Y origin are logical pixels with a JS-style top-left origin; translation
// from the platform's native origin happens in the backend.
type Monitor struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	ScaleFactor float64 `json:"scaleFactor"`
	Primary     bool    `json:"primary"`
}

// Bounds returns the monitor's rectangle in virtual-desktop coordinates.
func (m Monitor) Bounds() Rect {
	return Rect{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height}
}
