// Package nativetest provides a deterministic in-memory Backend for engine
// tests. Surface operations apply immediately on the calling goroutine and
// platform events are injected by the test.
package nativetest

import (
	"fmt"
	"sync"

	"github.com/aurapanel/aurapanel/internal/model"
	"github.com/aurapanel/aurapanel/internal/native"
)

// Surface records the native-side state of a fake surface.
type Surface struct {
	ID            native.SurfaceID
	Label         string
	URL           string
	Frame         model.Rect
	Flags         model.WindowConfig
	Panel         bool
	NonActivating bool
	Visible       bool
	ClickThrough  bool
	Closed        bool
}

// Backend is the fake. The zero value is not usable; construct with New.
type Backend struct {
	schedMu  sync.Mutex
	mu       sync.Mutex
	monitors []model.Monitor
	surfaces map[native.SurfaceID]*Surface
	nextID   native.SurfaceID
	events   chan native.Event
	mouseX   float64
	mouseY   float64

	// FailCreates makes every CreateWindow fail until reset.
	FailCreates bool

	// FailPanels makes every CreatePanel fail until reset.
	FailPanels bool
}

// New returns a fake backend reporting the given monitor table.
func New(monitors ...model.Monitor) *Backend {
	return &Backend{
		monitors: monitors,
		surfaces: make(map[native.SurfaceID]*Surface),
		nextID:   1,
		events:   make(chan native.Event, 128),
	}
}

// Schedule runs fn inline under a lock, serializing loop work the way the
// real main queue does.
func (b *Backend) Schedule(fn func()) {
	b.schedMu.Lock()
	defer b.schedMu.Unlock()
	fn()
}

func (b *Backend) Displays() ([]model.Monitor, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.monitors == nil {
		return nil, fmt.Errorf("display query failed")
	}
	out := make([]model.Monitor, len(b.monitors))
	copy(out, b.monitors)
	return out, nil
}

func (b *Backend) CreateWindow(cfg native.SurfaceConfig) (native.SurfaceID, error) {
	if b.FailCreates {
		return 0, native.ErrCreateFailed
	}
	return b.create(cfg, false), nil
}

func (b *Backend) CreatePanel(cfg native.SurfaceConfig) (native.SurfaceID, error) {
	if b.FailPanels {
		return 0, native.ErrPanelUnavailable
	}
	return b.create(cfg, true), nil
}

func (b *Backend) create(cfg native.SurfaceConfig, panel bool) native.SurfaceID {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.surfaces[id] = &Surface{
		ID:            id,
		Label:         cfg.Label,
		URL:           cfg.URL,
		Frame:         cfg.Frame,
		Flags:         cfg.Flags,
		Panel:         panel,
		NonActivating: cfg.NonActivating,
		ClickThrough:  cfg.Flags.ClickThrough,
	}
	return id
}

func (b *Backend) surface(id native.SurfaceID) (*Surface, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.surfaces[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", native.ErrSurfaceNotFound, id)
	}
	return s, nil
}

func (b *Backend) SetFrame(id native.SurfaceID, frame model.Rect) error {
	s, err := b.surface(id)
	if err != nil {
		return err
	}
	s.Frame = frame
	return nil
}

func (b *Backend) SetSize(id native.SurfaceID, width, height float64) error {
	s, err := b.surface(id)
	if err != nil {
		return err
	}
	s.Frame.Width = width
	s.Frame.Height = height
	return nil
}

func (b *Backend) Show(id native.SurfaceID) error {
	s, err := b.surface(id)
	if err != nil {
		return err
	}
	s.Visible = true
	return nil
}

func (b *Backend) Hide(id native.SurfaceID) error {
	s, err := b.surface(id)
	if err != nil {
		return err
	}
	s.Visible = false
	return nil
}

func (b *Backend) Close(id native.SurfaceID) error {
	s, err := b.surface(id)
	if err != nil {
		return err
	}
	b.mu.Lock()
	delete(b.surfaces, id)
	b.mu.Unlock()
	s.Visible = false
	s.Closed = true
	return nil
}

func (b *Backend) SetClickThrough(id native.SurfaceID, enabled bool) error {
	s, err := b.surface(id)
	if err != nil {
		return err
	}
	s.ClickThrough = enabled
	return nil
}

func (b *Backend) MouseLocation() (float64, float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mouseX, b.mouseY, nil
}

func (b *Backend) Events() <-chan native.Event { return b.events }

// Test hooks.

// SetMouse moves the fake pointer.
func (b *Backend) SetMouse(x, y float64) {
	b.mu.Lock()
	b.mouseX, b.mouseY = x, y
	b.mu.Unlock()
}

// Blur injects a focus-loss event for the labelled surface.
func (b *Backend) Blur(label string) {
	b.mu.Lock()
	var id native.SurfaceID
	for _, s := range b.surfaces {
		if s.Label == label {
			id = s.ID
			break
		}
	}
	b.mu.Unlock()
	b.events <- native.Event{Kind: native.EventBlur, Surface: id, Label: label}
}

// ChangeDisplays swaps the monitor table and injects a topology event.
func (b *Backend) ChangeDisplays(monitors ...model.Monitor) {
	b.mu.Lock()
	b.monitors = monitors
	b.mu.Unlock()
	b.events <- native.Event{Kind: native.EventDisplaysChanged}
}

// DeactivateApp injects an application-resigned-active event.
func (b *Backend) DeactivateApp() {
	b.events <- native.Event{Kind: native.EventAppDeactivated}
}

// ByLabel returns a copy of the surface with the given label.
func (b *Backend) ByLabel(label string) (Surface, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.surfaces {
		if s.Label == label {
			return *s, true
		}
	}
	return Surface{}, false
}

// Count returns the number of live fake surfaces.
func (b *Backend) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.surfaces)
}
