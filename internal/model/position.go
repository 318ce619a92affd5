package model

// PrimaryMonitor is the sentinel accepted by Position.Monitor to select the
// platform-designated primary display.
const PrimaryMonitor = "primary"

// Position is a CSS-style bounding-box position descriptor. All fields are
// optional; the set of non-nil fields determines the box. Each axis must be
// soluble: the solver accepts (left+right), (left+width), (right+width),
// left alone, right alone, or width alone (centred), and the vertical
// analogues.
type Position struct {
	Monitor string   `json:"monitor,omitempty" yaml:"monitor,omitempty"`
	Top     *float64 `json:"top,omitempty" yaml:"top,omitempty"`
	Bottom  *float64 `json:"bottom,omitempty" yaml:"bottom,omitempty"`
	Left    *float64 `json:"left,omitempty" yaml:"left,omitempty"`
	Right   *float64 `json:"right,omitempty" yaml:"right,omitempty"`
	Width   *float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Height  *float64 `json:"height,omitempty" yaml:"height,omitempty"`
}

// Px is a convenience constructor for optional pixel fields.
func Px(v float64) *float64 { return &v }
