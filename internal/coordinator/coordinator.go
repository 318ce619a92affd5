// Package coordinator is the process-wide orchestrator. It distinguishes
// the coordinator role from child roles, tracks declared windows until their
// native surfaces exist, forwards platform events to the controllers, and
// broadcasts external events to children.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/aurapanel/aurapanel/internal/model"
	"github.com/aurapanel/aurapanel/internal/monitor"
	"github.com/aurapanel/aurapanel/internal/native"
	"github.com/aurapanel/aurapanel/internal/popover"
	"github.com/aurapanel/aurapanel/internal/uiloop"
	"github.com/aurapanel/aurapanel/internal/windows"
)

// ContextEnv is the spawn-time payload a child reads its role from, in URL
// query form (`window=bar` or `popover=media&max_height=400`). Surfaces
// loaded from a URL read the same parameters from the URL instead.
const ContextEnv = "AURAPANEL_CONTEXT"

// DetectContext resolves the process's own role. getenv is usually
// os.Getenv; an empty or absent payload means coordinator.
func DetectContext(getenv func(string) string) (model.Context, error) {
	raw := getenv(ContextEnv)
	if raw == "" {
		return model.Context{Role: model.RoleCoordinator}, nil
	}
	q, err := url.ParseQuery(raw)
	if err != nil {
		return model.Context{}, fmt.Errorf("parse %s: %w", ContextEnv, err)
	}
	return model.ContextFromQuery(q)
}

// Coordinator wires the engine together and owns the declared-window
// bookkeeping.
type Coordinator struct {
	logger   *slog.Logger
	loop     *uiloop.Loop
	backend  native.Backend
	monitors *monitor.Registry
	windows  *windows.Controller
	popovers *popover.Controller

	ctx model.Context

	// pending tracks declared ids whose native surfaces are not yet
	// realized.
	mu        sync.Mutex
	pending   map[string]struct{}
	waiters   []chan struct{}
	selfID    native.SurfaceID
	hasSelf   bool
	monSub    *monitor.Subscription
	pumpDone  chan struct{}
	pumpOnce  sync.Once
	closeOnce sync.Once

	bus *Bus
}

// New returns a coordinator in the given role.
func New(ctx model.Context, backend native.Backend, monitors *monitor.Registry,
	wc *windows.Controller, pc *popover.Controller, loop *uiloop.Loop, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		logger:   logger,
		loop:     loop,
		backend:  backend,
		monitors: monitors,
		windows:  wc,
		popovers: pc,
		ctx:      ctx,
		pending:  make(map[string]struct{}),
		bus:      NewBus(logger),
	}
}

// Context returns the role descriptor the process started with.
func (c *Coordinator) Context() model.Context { return c.ctx }

// Bus exposes the external-event broadcast bus.
func (c *Coordinator) Bus() *Bus { return c.bus }

// Start subscribes the controllers to topology changes and begins pumping
// native events. Call once.
func (c *Coordinator) Start() {
	c.monSub = c.monitors.Subscribe(func(monitors []model.Monitor) {
		// Runs on the UI loop: repositioning is serialized with
		// in-flight create/update/close operations.
		c.windows.HandleTopology(monitors)
		c.popovers.HandleTopology(monitors)
	})

	c.pumpOnce.Do(func() {
		c.pumpDone = make(chan struct{})
		go c.pump()
	})
}

// pump translates backend events into engine calls.
func (c *Coordinator) pump() {
	defer close(c.pumpDone)
	for ev := range c.backend.Events() {
		switch ev.Kind {
		case native.EventBlur:
			c.popovers.HandleBlur(ev.Label)
		case native.EventDisplaysChanged:
			c.monitors.HandleDisplaysChanged()
		case native.EventAppDeactivated:
			// Clicking into another application dismisses every
			// popover.
			c.popovers.CloseAll()
		}
	}
}

// Stop cancels subscriptions. Safe to call once after Start.
func (c *Coordinator) Stop() {
	c.closeOnce.Do(func() {
		if c.monSub != nil {
			c.monSub.Cancel()
		}
	})
}

// Declare marks a window id pending until MarkReady is called for it.
func (c *Coordinator) Declare(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[id] = struct{}{}
}

// MarkReady reports a declared window's surface as realized.
func (c *Coordinator) MarkReady(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, id)
	if len(c.pending) == 0 {
		for _, w := range c.waiters {
			close(w)
		}
		c.waiters = nil
	}
}

// WaitForAll blocks until every declared window has been realized. The
// coordinator imposes no timeout; cancel ctx to give up.
func (c *Coordinator) WaitForAll(ctx context.Context) error {
	c.mu.Lock()
	if len(c.pending) == 0 {
		c.mu.Unlock()
		return nil
	}
	done := make(chan struct{})
	c.waiters = append(c.waiters, done)
	c.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the ids still waiting for their surfaces.
func (c *Coordinator) Pending() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.pending))
	for id := range c.pending {
		out = append(out, id)
	}
	return out
}

// SetSelfSurface hands the coordinator its own native surface, enabling
// HideSelf.
func (c *Coordinator) SetSelfSurface(id native.SurfaceID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selfID = id
	c.hasSelf = true
}

// HideSelf hides the coordinator's own surface. Applications that render
// everything through children call this after WaitForAll.
func (c *Coordinator) HideSelf() error {
	c.mu.Lock()
	id, ok := c.selfID, c.hasSelf
	c.mu.Unlock()
	if !ok {
		return nil
	}
	var err error
	c.loop.Call(func() { err = c.backend.Hide(id) })
	return err
}

// Inject broadcasts an external event to every bus subscriber.
func (c *Coordinator) Inject(ev model.ExternalEvent) {
	c.logger.Debug("external event", "name", ev.Name, "args", ev.Args)
	c.bus.Publish(ev)
}
