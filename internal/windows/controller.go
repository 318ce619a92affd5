// Package windows drives the fleet of inline child windows: creation with
// atomic record/surface pairing, declarative repositioning, visibility
// toggles, and recovery after display topology changes.
package windows

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/aurapanel/aurapanel/internal/geometry"
	"github.com/aurapanel/aurapanel/internal/model"
	"github.com/aurapanel/aurapanel/internal/native"
	"github.com/aurapanel/aurapanel/internal/registry"
	"github.com/aurapanel/aurapanel/internal/uiloop"
)

// CreateOptions describes a window to create.
type CreateOptions struct {
	ID       string
	Position model.Position
	Kind     model.Kind

	// Flags overrides the kind's default window configuration.
	Flags *model.WindowConfig

	// URL overrides the default child URL derived from the coordinator
	// origin. Used to load an external source.
	URL string
}

type surfaceState struct {
	id    native.SurfaceID
	flags model.WindowConfig
}

// Controller owns inline window lifecycle. All mutable state lives on the
// UI loop; public methods block until the native operation completed.
type Controller struct {
	logger   *slog.Logger
	loop     *uiloop.Loop
	backend  native.Backend
	registry *registry.Registry
	baseURL  string

	// Loop-owned.
	monitors []model.Monitor
	surfaces map[string]surfaceState
}

// New returns a controller. baseURL is the coordinator's origin and path;
// child URLs default to `<baseURL>?window=<id>`.
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
		surfaces: make(map[string]surfaceState),
	}
}

// SetMonitors installs the monitor table used for position solving. Must be
// called on the UI loop. Later tables arrive through HandleTopology.
func (c *Controller) SetMonitors(monitors []model.Monitor) {
	c.monitors = monitors
}

// Create solves the position, realizes the native surface and records the
// window as visible. Either both the record and the surface exist afterwards
// or neither does.
func (c *Controller) Create(opts CreateOptions) error {
	var err error
	c.loop.Call(func() { err = c.createOnLoop(opts) })
	return err
}

func (c *Controller) createOnLoop(opts CreateOptions) error {
	if _, live := c.registry.LookupByID(opts.ID); live {
		return fmt.Errorf("%w: %s", registry.ErrDuplicateID, opts.ID)
	}

	rect, _, err := geometry.Solve(opts.Position, c.monitors)
	if err != nil {
		return err
	}

	flags := model.DefaultWindowConfig(opts.Kind)
	if opts.Flags != nil {
		flags = *opts.Flags
	}

	url := opts.URL
	if url == "" {
		url, err = model.ChildURL(c.baseURL, model.RoleInlineWindow, opts.ID, 0)
		if err != nil {
			return err
		}
	}

	label := model.WindowLabel(opts.ID)
	pos := opts.Position
	rec := model.WindowRecord{
		ID:        opts.ID,
		Label:     label,
		Role:      model.RoleInlineWindow,
		Rectangle: rect,
		Status:    model.StatusPending,
		Position:  &pos,
	}
	if err := c.registry.Insert(rec); err != nil {
		return err
	}

	sid, err := c.backend.CreateWindow(native.SurfaceConfig{
		Label: label,
		URL:   url,
		Frame: rect,
		Flags: flags,
	})
	if err != nil {
		// Roll the record back before surfacing the error.
		c.registry.Remove(opts.ID)
		return fmt.Errorf("create %s: %w", opts.ID, err)
	}

	if err := c.backend.Show(sid); err != nil {
		_ = c.backend.Close(sid)
		c.registry.Remove(opts.ID)
		return fmt.Errorf("show %s: %w", opts.ID, err)
	}

	c.surfaces[opts.ID] = surfaceState{id: sid, flags: flags}
	_ = c.registry.SetStatus(opts.ID, model.StatusVisible)

	c.logger.Debug("inline window created",
		"id", opts.ID,
		"label", label,
		"rect", rect,
	)
	return nil
}

// UpdatePosition re-solves the descriptor and moves the native surface.
func (c *Controller) UpdatePosition(id string, pos model.Position) error {
	var err error
	c.loop.Call(func() { err = c.updatePositionOnLoop(id, pos) })
	return err
}

func (c *Controller) updatePositionOnLoop(id string, pos model.Position) error {
	s, ok := c.surfaces[id]
	if !ok {
		return fmt.Errorf("%w: %s", registry.ErrNotFound, id)
	}
	rect, _, err := geometry.Solve(pos, c.monitors)
	if err != nil {
		return err
	}
	if err := c.backend.SetFrame(s.id, rect); err != nil {
		return err
	}
	_ = c.registry.UpdateRectangle(id, rect)
	_ = c.registry.SetPosition(id, pos)
	return nil
}

// Show makes the window visible again.
func (c *Controller) Show(id string) error {
	var err error
	c.loop.Call(func() {
		s, ok := c.surfaces[id]
		if !ok {
			err = fmt.Errorf("%w: %s", registry.ErrNotFound, id)
			return
		}
		if e := c.backend.SetClickThrough(s.id, s.flags.ClickThrough); e != nil {
			err = e
			return
		}
		if e := c.backend.Show(s.id); e != nil {
			err = e
			return
		}
		_ = c.registry.SetStatus(id, model.StatusVisible)
	})
	return err
}

// Hide orders the window out. The hidden surface ignores cursor events so
// stray clicks pass through to whatever is underneath.
func (c *Controller) Hide(id string) error {
	var err error
	c.loop.Call(func() {
		s, ok := c.surfaces[id]
		if !ok {
			err = fmt.Errorf("%w: %s", registry.ErrNotFound, id)
			return
		}
		if e := c.backend.SetClickThrough(s.id, true); e != nil {
			err = e
			return
		}
		if e := c.backend.Hide(s.id); e != nil {
			err = e
			return
		}
		_ = c.registry.SetStatus(id, model.StatusHidden)
	})
	return err
}

// SetSize resizes the native surface from its content, keeping the solved
// origin.
func (c *Controller) SetSize(id string, width, height float64) error {
	var err error
	c.loop.Call(func() {
		s, ok := c.surfaces[id]
		if !ok {
			err = fmt.Errorf("%w: %s", registry.ErrNotFound, id)
			return
		}
		if e := c.backend.SetSize(s.id, width, height); e != nil {
			err = e
			return
		}
		if rec, live := c.registry.LookupByID(id); live {
			rect := rec.Rectangle
			rect.Width = width
			rect.Height = height
			_ = c.registry.UpdateRectangle(id, rect)
		}
	})
	return err
}

// Close destroys the window and frees its id. With idempotent set, closing
// an unknown id is a logged no-op.
func (c *Controller) Close(id string, idempotent bool) error {
	var err error
	c.loop.Call(func() {
		s, ok := c.surfaces[id]
		if !ok {
			if idempotent {
				c.logger.Debug("close of unknown window id", "id", id)
				return
			}
			err = fmt.Errorf("%w: %s", registry.ErrNotFound, id)
			return
		}
		delete(c.surfaces, id)
		c.registry.Remove(id)
		if e := c.backend.Close(s.id); e != nil {
			err = e
		}
	})
	return err
}

// HandleTopology re-solves every inline window against a new monitor table
// and moves the surfaces. Must be called on the UI loop. A window whose
// descriptor no longer resolves is logged and left at its prior rectangle;
// the others continue.
func (c *Controller) HandleTopology(monitors []model.Monitor) {
	c.monitors = monitors
	for _, rec := range c.registry.All() {
		if rec.Role != model.RoleInlineWindow || rec.Position == nil {
			continue
		}
		s, ok := c.surfaces[rec.ID]
		if !ok {
			continue
		}
		rect, _, err := geometry.Solve(*rec.Position, monitors)
		if err != nil {
			c.logger.Warn("reposition skipped", "id", rec.ID, "error", err)
			continue
		}
		if err := c.backend.SetFrame(s.id, rect); err != nil {
			c.logger.Warn("reposition failed", "id", rec.ID, "error", err)
			continue
		}
		_ = c.registry.UpdateRectangle(rec.ID, rect)
	}
}

// IDs returns the ids of all live inline windows. Used when reconciling
// widgets against rediscovered manifests.
func (c *Controller) IDs() []string {
	var ids []string
	c.loop.Call(func() {
		for _, rec := range c.registry.All() {
			if rec.Role == model.RoleInlineWindow {
				ids = append(ids, rec.ID)
			}
		}
	})
	return ids
}

// Records returns copies of every live window record, sorted by id.
func (c *Controller) Records() []model.WindowRecord {
	var records []model.WindowRecord
	c.loop.Call(func() { records = c.registry.All() })
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records
}
