// Package control carries the typed request/response channel between the
// coordinator process and its child surfaces. Children connect over a local
// WebSocket, issue commands, and receive pushed events.
package control

import (
	"encoding/json"
	"fmt"

	"github.com/aurapanel/aurapanel/internal/model"
)

// Command names the operations a child may invoke.
type Command string

const (
	CmdCreateInlineWindow   Command = "create_inline_window"
	CmdUpdateWindowPosition Command = "update_window_position"
	CmdShowWindow           Command = "show_window"
	CmdHideWindow           Command = "hide_window"
	CmdCloseWindow          Command = "close_window"
	CmdGetMonitors          Command = "get_monitors"
	CmdGetWindows           Command = "get_windows"
	CmdOpenPopover          Command = "open_popover"
	CmdClosePopover         Command = "close_popover"
	CmdCloseAllPopovers     Command = "close_all_popovers"
	CmdGetOpenPopovers      Command = "get_open_popovers"
	CmdSetWindowSize        Command = "set_window_size"
	CmdStoreSet             Command = "store_set"
	CmdStoreGet             Command = "store_get"
	CmdStoreDelete          Command = "store_delete"
	CmdStoreKeys            Command = "store_keys"
	CmdRegisterTrigger      Command = "register_hover_trigger"
	CmdUnregisterTrigger    Command = "unregister_hover_trigger"
	CmdUpdateTriggerBounds  Command = "update_trigger_bounds"
)

// Event names pushed from the host to children.
const (
	EventMonitorsChanged = "monitor-topology-changed"
	EventPopoverClosed   = "popover-closed"
	EventExternal        = "external-event"
	EventTriggerEnter    = "trigger-hover-enter"
	EventTriggerLeave    = "trigger-hover-leave"
	EventStoreChanged    = "store-changed"
)

// Request is a command envelope from a child.
type Request struct {
	ID      string          `json:"id"`
	Command Command         `json:"command"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Message is a host-to-child envelope: either the response to a request or
// a pushed event.
type Message struct {
	Type string `json:"type"` // "response" or "event"

	// Response fields.
	ID     string          `json:"id,omitempty"`
	OK     bool            `json:"ok,omitempty"`
	Error  string          `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`

	// Event fields.
	Event   string          `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	messageResponse = "response"
	messageEvent    = "event"
)

// Exclusivity is the wire form of the exclusive-group choice. JS callers
// pass either a boolean or a prefix string, so both decode.
type Exclusivity struct {
	All    bool   `json:"all,omitempty"`
	Prefix string `json:"prefix,omitempty"`
}

// UnmarshalJSON accepts true/false, a prefix string, or the object form.
func (e *Exclusivity) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*e = Exclusivity{All: b}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*e = Exclusivity{Prefix: s}
		return nil
	}
	type plain Exclusivity
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("exclusive must be a boolean, a prefix string or an object: %w", err)
	}
	*e = Exclusivity(p)
	return nil
}

// CreateInlineWindowParams mirrors the create_inline_window command.
type CreateInlineWindowParams struct {
	ID          string         `json:"id"`
	URL         string         `json:"url,omitempty"`
	Kind        model.Kind     `json:"kind,omitempty"`
	Transparent *bool          `json:"transparent,omitempty"`
	AlwaysOnTop *bool          `json:"alwaysOnTop,omitempty"`
	Decorations *bool          `json:"decorations,omitempty"`
	Resizable   *bool          `json:"resizable,omitempty"`
	SkipTaskbar *bool          `json:"skipTaskbar,omitempty"`
	Position    model.Position `json:"position"`
}

// Flags folds the optional overrides onto the kind's defaults.
func (p CreateInlineWindowParams) Flags() model.WindowConfig {
	kind := p.Kind
	if kind == "" {
		kind = model.KindBar
	}
	cfg := model.DefaultWindowConfig(kind)
	override := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	override(&cfg.Transparent, p.Transparent)
	override(&cfg.AlwaysOnTop, p.AlwaysOnTop)
	override(&cfg.Decorations, p.Decorations)
	override(&cfg.Resizable, p.Resizable)
	override(&cfg.SkipTaskbar, p.SkipTaskbar)
	return cfg
}

// UpdateWindowPositionParams mirrors update_window_position.
type UpdateWindowPositionParams struct {
	Label    string         `json:"label"`
	Position model.Position `json:"position"`
}

// WindowLabelParams addresses a window by label.
type WindowLabelParams struct {
	Label string `json:"label"`
}

// OpenPopoverParams mirrors open_popover.
type OpenPopoverParams struct {
	ID        string       `json:"id"`
	Anchor    model.Rect   `json:"anchor"`
	Width     float64      `json:"width"`
	Height    float64      `json:"height"`
	Align     model.Align  `json:"align,omitempty"`
	OffsetY   *float64     `json:"offsetY,omitempty"`
	Exclusive *Exclusivity `json:"exclusive,omitempty"`
}

// PopoverIDParams addresses a popover by id.
type PopoverIDParams struct {
	ID string `json:"id"`
}

// SetWindowSizeParams mirrors set_window_size; the label names the calling
// child's own surface.
type SetWindowSizeParams struct {
	Label  string  `json:"label"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// StoreParams carries widget key-value store operations.
type StoreParams struct {
	Key   string          `json:"key,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// TriggerParams carries hover trigger registration.
type TriggerParams struct {
	ID     string     `json:"id"`
	Bounds model.Rect `json:"bounds"`
}

// StoreChangedPayload is the payload of a store-changed event. Value is the
// new value after a set and is absent after a delete. Every window receives it, so
// widgets sharing a key react without polling.
type StoreChangedPayload struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value,omitempty"`
}

// PopoverClosedPayload is the payload of a popover-closed event.
type PopoverClosedPayload struct {
	ID string `json:"id"`
}

// TriggerHoverPayload is the payload of trigger hover events.
type TriggerHoverPayload struct {
	ID string `json:"id"`
}
