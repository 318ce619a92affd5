package model

import "strings"

// Role identifies which part a process surface plays.
type Role string

const (
	RoleCoordinator  Role = "coordinator"
	RoleInlineWindow Role = "inline-window"
	RolePopover      Role = "popover"
)

// Status is the lifecycle state of a window record.
type Status string

const (
	StatusPending Status = "pending"
	StatusVisible Status = "visible"
	StatusHidden  Status = "hidden"
	StatusClosed  Status = "closed"
)

// Kind distinguishes bar windows (pinned overlays) from floats. It only
// affects window-config defaults.
type Kind string

const (
	KindBar   Kind = "bar"
	KindFloat Kind = "float"
)

const (
	inlineWindowPrefix = "inline-window-"
	popoverPrefix      = "popover-"
)

// WindowLabel derives the native label for an inline window id.
func WindowLabel(id string) string { return inlineWindowPrefix + id }

// PopoverLabel derives the native label for a popover id.
func PopoverLabel(id string) string { return popoverPrefix + id }

// IDFromLabel recovers the id and role from a window label. ok is false for
// labels that carry neither prefix.
func IDFromLabel(label string) (id string, role Role, ok bool) {
	if rest, found := strings.CutPrefix(label, inlineWindowPrefix); found {
		return rest, RoleInlineWindow, true
	}
	if rest, found := strings.CutPrefix(label, popoverPrefix); found {
		return rest, RolePopover, true
	}
	return "", "", false
}

// WindowConfig holds the native flags applied to a child surface.
type WindowConfig struct {
	Transparent  bool `json:"transparent" yaml:"transparent"`
	AlwaysOnTop  bool `json:"alwaysOnTop" yaml:"always_on_top"`
	Resizable    bool `json:"resizable" yaml:"resizable"`
	Decorations  bool `json:"decorations" yaml:"decorations"`
	SkipTaskbar  bool `json:"skipTaskbar" yaml:"skip_taskbar"`
	ClickThrough bool `json:"clickThrough" yaml:"click_through"`
}

// DefaultWindowConfig returns the documented defaults for a window kind:
// transparent, undecorated, taskbar-skipping, not resizable, not
// click-through. Bars are additionally always-on-top.
func DefaultWindowConfig(kind Kind) WindowConfig {
	return WindowConfig{
		Transparent: true,
		AlwaysOnTop: kind == KindBar,
		SkipTaskbar: true,
	}
}

// WindowRecord is the registry entry for a live child window.
type WindowRecord struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Role      Role   `json:"role"`
	Rectangle Rect   `json:"rectangle"`
	Status    Status `json:"status"`

	// Position is the declarative descriptor the rectangle was solved
	// from. Retained so topology changes can re-solve it. Nil for
	// popovers, which are anchor-placed.
	Position *Position `json:"position,omitempty"`
}

// Align positions a popover along its anchor's horizontal axis.
type Align string

const (
	AlignStart  Align = "start"
	AlignCenter Align = "center"
	AlignEnd    Align = "end"
)

// PopoverRecord extends a window record with anchor-relative placement
// captured at open time.
type PopoverRecord struct {
	WindowRecord

	Anchor         Rect    `json:"anchor"`
	Align          Align   `json:"align"`
	OffsetY        float64 `json:"offsetY"`
	MaxHeight      float64 `json:"maxHeight"`
	ExclusiveGroup string  `json:"exclusiveGroup,omitempty"`
}
