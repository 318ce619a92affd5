// Package popover drives anchored, blur-dismissing, auto-sizing floating
// panels. A popover opens below its anchor on the anchor's monitor, joins an
// optional exclusive group, and emits exactly one closed event when it
// leaves the open state, whatever caused the transition.
package popover

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/aurapanel/aurapanel/internal/geometry"
	"github.com/aurapanel/aurapanel/internal/model"
	"github.com/aurapanel/aurapanel/internal/native"
	"github.com/aurapanel/aurapanel/internal/registry"
	"github.com/aurapanel/aurapanel/internal/uiloop"
)

// DefaultOffsetY separates a panel from its anchor when the caller does not
// say otherwise.
const DefaultOffsetY = 8.0

// Exclusive is the tagged exclusivity choice: the zero value opens without
// closing anything, All closes every other popover, a Prefix closes ids
// beginning with `<Prefix>-`.
type Exclusive struct {
	All    bool
	Prefix string
}

// ExclusiveAll closes every other open popover before opening.
func ExclusiveAll() Exclusive { return Exclusive{All: true} }

// ExclusivePrefix closes open popovers sharing the id prefix.
func ExclusivePrefix(p string) Exclusive { return Exclusive{Prefix: p} }

func (e Exclusive) group() string {
	if e.All {
		return "all"
	}
	return e.Prefix
}

// OpenOptions describes a popover open request.
type OpenOptions struct {
	ID     string
	Anchor model.Rect
	Width  float64
	Height float64

	// Align defaults to center.
	Align model.Align

	// OffsetY defaults to DefaultOffsetY when nil; pass a pointer to zero
	// for a flush panel.
	OffsetY *float64

	Exclusive Exclusive
}

// OpenResult is the reply to an open request.
type OpenResult struct {
	Label string `json:"label"`

	// Closed reports toggle semantics: true when the open found the same
	// id already visible and closed it instead.
	Closed bool `json:"closed"`

	MaxHeight float64 `json:"maxHeight"`
}

type popState struct {
	rec model.PopoverRecord
	sid native.SurfaceID
}

// Subscription is a handle to a closed-event sink.
type Subscription struct {
	cancel func()
}

// Cancel removes the subscription. Safe to call more than once.
func (s *Subscription) Cancel() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Controller owns popover lifecycle. State lives on the UI loop.
type Controller struct {
	logger   *slog.Logger
	loop     *uiloop.Loop
	backend  native.Backend
	registry *registry.Registry
	baseURL  string

	// Loop-owned.
	monitors []model.Monitor
	popovers map[string]*popState
	subs     map[int]func(id string)
	nextSub  int
}

// New returns a controller sharing the window registry with the inline
// window controller, so ids are unique across roles.
func New(backend native.Backend, reg *registry.Registry, loop *uiloop.Loop, baseURL string, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		logger:   logger,
		loop:     loop,
		backend:  backend,
		registry: reg,
		baseURL:  baseURL,
		popovers: make(map[string]*popState),
		subs:     make(map[int]func(string)),
	}
}

// SetMonitors installs the monitor table used for placement. Must run on
// the UI loop.
func (c *Controller) SetMonitors(monitors []model.Monitor) {
	c.monitors = monitors
}

// SubscribeClosed registers a sink for closed events. The callback runs on
// the UI loop once per Open-to-Absent transition.
func (c *Controller) SubscribeClosed(fn func(id string)) *Subscription {
	var id int
	c.loop.Call(func() {
		id = c.nextSub
		c.nextSub++
		c.subs[id] = fn
	})
	return &Subscription{cancel: func() {
		c.loop.Call(func() { delete(c.subs, id) })
	}}
}

// Open opens a popover below its anchor, closing exclusive-group members
// first. Opening an id that is already open toggles it closed instead.
func (c *Controller) Open(opts OpenOptions) (OpenResult, error) {
	var (
		res OpenResult
		err error
	)
	c.loop.Call(func() { res, err = c.openOnLoop(opts) })
	return res, err
}

func (c *Controller) openOnLoop(opts OpenOptions) (OpenResult, error) {
	label := model.PopoverLabel(opts.ID)

	if _, open := c.popovers[opts.ID]; open {
		c.closeOnLoop(opts.ID)
		return OpenResult{Label: label, Closed: true}, nil
	}

	// Group members close before the new panel is created, so observers
	// see every closure ahead of the open.
	for _, member := range c.groupMembers(opts.ID, opts.Exclusive) {
		c.closeOnLoop(member)
	}

	offsetY := DefaultOffsetY
	if opts.OffsetY != nil {
		offsetY = *opts.OffsetY
	}
	placement, err := geometry.PlacePanel(opts.Anchor, opts.Width, opts.Height, opts.Align, offsetY, c.monitors)
	if err != nil {
		return OpenResult{}, err
	}

	url, err := model.ChildURL(c.baseURL, model.RolePopover, opts.ID, placement.MaxHeight)
	if err != nil {
		return OpenResult{}, err
	}

	rec := model.PopoverRecord{
		WindowRecord: model.WindowRecord{
			ID:        opts.ID,
			Label:     label,
			Role:      model.RolePopover,
			Rectangle: placement.Rect,
			Status:    model.StatusPending,
		},
		Anchor:         opts.Anchor,
		Align:          opts.Align,
		OffsetY:        offsetY,
		MaxHeight:      placement.MaxHeight,
		ExclusiveGroup: opts.Exclusive.group(),
	}
	if err := c.registry.Insert(rec.WindowRecord); err != nil {
		return OpenResult{}, err
	}

	sid, err := c.backend.CreatePanel(native.SurfaceConfig{
		Label: label,
		URL:   url,
		Frame: placement.Rect,
		Flags: model.WindowConfig{
			Transparent: true,
			AlwaysOnTop: true,
			SkipTaskbar: true,
		},
		NonActivating: true,
	})
	if err != nil {
		c.registry.Remove(opts.ID)
		return OpenResult{}, fmt.Errorf("open %s: %w", opts.ID, err)
	}
	if err := c.backend.Show(sid); err != nil {
		_ = c.backend.Close(sid)
		c.registry.Remove(opts.ID)
		return OpenResult{}, fmt.Errorf("show %s: %w", opts.ID, err)
	}

	_ = c.registry.SetStatus(opts.ID, model.StatusVisible)
	rec.Status = model.StatusVisible
	c.popovers[opts.ID] = &popState{rec: rec, sid: sid}

	c.logger.Debug("popover opened",
		"id", opts.ID,
		"rect", placement.Rect,
		"max_height", placement.MaxHeight,
	)
	return OpenResult{Label: label, MaxHeight: placement.MaxHeight}, nil
}

// groupMembers returns the open ids the exclusivity choice closes, in
// deterministic order.
func (c *Controller) groupMembers(openingID string, ex Exclusive) []string {
	var members []string
	for id := range c.popovers {
		if id == openingID {
			continue
		}
		switch {
		case ex.All:
			members = append(members, id)
		case ex.Prefix != "" && strings.HasPrefix(id, ex.Prefix+"-"):
			members = append(members, id)
		}
	}
	sort.Strings(members)
	return members
}

// Close closes a popover. Closing an id that is not open is a no-op.
func (c *Controller) Close(id string) {
	c.loop.Call(func() { c.closeOnLoop(id) })
}

// closeOnLoop tears down the panel and emits the closed event. The state is
// removed before any native call so a racing blur cannot double-fire.
func (c *Controller) closeOnLoop(id string) {
	state, ok := c.popovers[id]
	if !ok {
		return
	}
	delete(c.popovers, id)
	c.registry.Remove(id)
	if err := c.backend.Close(state.sid); err != nil {
		c.logger.Warn("panel close failed", "id", id, "error", err)
	}
	c.emitClosed(id)
}

func (c *Controller) emitClosed(id string) {
	for _, fn := range c.subs {
		fn(id)
	}
}

// CloseAll closes every open popover.
func (c *Controller) CloseAll() {
	c.loop.Call(func() {
		for _, id := range c.openIDs() {
			c.closeOnLoop(id)
		}
	})
}

// ListOpen returns the ids of currently open popovers, sorted.
func (c *Controller) ListOpen() []string {
	var ids []string
	c.loop.Call(func() { ids = c.openIDs() })
	return ids
}

func (c *Controller) openIDs() []string {
	ids := make([]string, 0, len(c.popovers))
	for id := range c.popovers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SetSize resizes a panel from its content, clamping the height to the
// max height fixed at open time.
func (c *Controller) SetSize(id string, width, height float64) error {
	var err error
	c.loop.Call(func() {
		state, ok := c.popovers[id]
		if !ok {
			err = fmt.Errorf("%w: %s", registry.ErrNotFound, id)
			return
		}
		if height > state.rec.MaxHeight {
			height = state.rec.MaxHeight
		}
		if e := c.backend.SetSize(state.sid, width, height); e != nil {
			err = e
			return
		}
		state.rec.Rectangle.Width = width
		state.rec.Rectangle.Height = height
		_ = c.registry.UpdateRectangle(id, state.rec.Rectangle)
	})
	return err
}

// Frame returns the current panel rectangle for an open popover.
func (c *Controller) Frame(id string) (model.Rect, bool) {
	var (
		rect model.Rect
		ok   bool
	)
	c.loop.Call(func() {
		if state, open := c.popovers[id]; open {
			rect, ok = state.rec.Rectangle, true
		}
	})
	return rect, ok
}

// HandleBlur dismisses the panel behind a focus-lost label. Safe to call
// from the event pump goroutine; a blur racing an explicit close emits at
// most one closed event.
func (c *Controller) HandleBlur(label string) {
	id, role, ok := model.IDFromLabel(label)
	if !ok || role != model.RolePopover {
		return
	}
	c.loop.Post(func() { c.closeOnLoop(id) })
}

// HandleTopology reacts to a monitor table change. A popover whose anchor
// monitor disappeared is closed (with its closed event); the others are
// re-placed against the new table. Must run on the UI loop.
func (c *Controller) HandleTopology(monitors []model.Monitor) {
	c.monitors = monitors
	for _, id := range c.openIDs() {
		state := c.popovers[id]
		ax, ay := state.rec.Anchor.Midpoint()
		if !anyContains(monitors, ax, ay) {
			c.logger.Debug("anchor monitor removed, closing popover", "id", id)
			c.closeOnLoop(id)
			continue
		}
		placement, err := geometry.PlacePanel(state.rec.Anchor, state.rec.Rectangle.Width,
			state.rec.Rectangle.Height, state.rec.Align, state.rec.OffsetY, monitors)
		if err != nil {
			c.logger.Warn("popover reposition skipped", "id", id, "error", err)
			continue
		}
		if err := c.backend.SetFrame(state.sid, placement.Rect); err != nil {
			c.logger.Warn("popover reposition failed", "id", id, "error", err)
			continue
		}
		state.rec.Rectangle = placement.Rect
		state.rec.MaxHeight = placement.MaxHeight
		_ = c.registry.UpdateRectangle(id, placement.Rect)
	}
}

func anyContains(monitors []model.Monitor, x, y float64) bool {
	for _, m := range monitors {
		if m.Bounds().Contains(x, y) {
			return true
		}
	}
	return false
}
