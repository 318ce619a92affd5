// Package hover tracks registered trigger rectangles against the global
// pointer and coordinates hover-dismissal for popovers opened from them.
// A single polling goroutine runs only while at least one trigger or watch
// is registered.
package hover

import (
	"log/slog"
	"sync"
	"time"

	"github.com/aurapanel/aurapanel/internal/model"
)

const (
	// TriggerPadding expands a trigger's hit area so the pointer can
	// travel between trigger and panel without flapping.
	TriggerPadding = 15.0

	// DefaultPollInterval is the pointer sampling cadence.
	DefaultPollInterval = 50 * time.Millisecond

	// DefaultCloseDelay is how long the pointer may sit outside both the
	// trigger and the panel before the popover closes.
	DefaultCloseDelay = 150 * time.Millisecond

	// outsideDebounce is how many consecutive samples outside both
	// rectangles arm the close delay, absorbing quick pointer moves.
	outsideDebounce = 2
)

// Pointer reports the global pointer position. The native backend
// implements it.
type Pointer interface {
	MouseLocation() (x, y float64, err error)
}

// Closer closes a popover by id. The popover controller implements it.
type Closer interface {
	Close(id string)
	Frame(id string) (model.Rect, bool)
}

type trigger struct {
	bounds   model.Rect
	hovering bool
}

type watch struct {
	trigger      *model.Rect
	outsideCount int
	closeArmed   time.Time
}

// Manager owns trigger registration and hover-close watches.
type Manager struct {
	logger  *slog.Logger
	pointer Pointer
	closer  Closer

	// PollInterval and CloseDelay override the defaults; set before the
	// first registration.
	PollInterval time.Duration
	CloseDelay   time.Duration

	// OnTrigger receives enter/leave transitions for registered
	// triggers. Called from the polling goroutine.
	OnTrigger func(id string, entered bool)

	mu       sync.Mutex
	triggers map[string]*trigger
	watches  map[string]*watch
	stop     chan struct{}
}

// NewManager returns a manager polling the given pointer.
func NewManager(pointer Pointer, closer Closer, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger:       logger,
		pointer:      pointer,
		closer:       closer,
		PollInterval: DefaultPollInterval,
		CloseDelay:   DefaultCloseDelay,
		triggers:     make(map[string]*trigger),
		watches:      make(map[string]*watch),
	}
}

// RegisterTrigger starts watching a trigger rectangle in virtual-desktop
// coordinates. Re-registering an id replaces its bounds.
func (m *Manager) RegisterTrigger(id string, bounds model.Rect) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.triggers[id]; ok {
		t.bounds = bounds
		return
	}
	m.triggers[id] = &trigger{bounds: bounds}
	m.ensureLoopLocked()
}

// UpdateTriggerBounds moves a registered trigger, e.g. after its window was
// repositioned. Unknown ids are ignored.
func (m *Manager) UpdateTriggerBounds(id string, bounds model.Rect) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.triggers[id]; ok {
		t.bounds = bounds
	}
}

// UnregisterTrigger removes a trigger. The polling goroutine stops when
// nothing is left to watch.
func (m *Manager) UnregisterTrigger(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.triggers, id)
	m.stopIfIdleLocked()
}

// WatchPopover closes the popover once the pointer has left both the panel
// and, when given, its trigger rectangle for the close delay.
func (m *Manager) WatchPopover(id string, trigger *model.Rect) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watches[id] = &watch{trigger: trigger}
	m.ensureLoopLocked()
}

// UnwatchPopover drops a watch; wired to the popover closed event so a
// panel dismissed any other way stops being tracked.
func (m *Manager) UnwatchPopover(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.watches, id)
	m.stopIfIdleLocked()
}

func (m *Manager) ensureLoopLocked() {
	if m.stop != nil {
		return
	}
	m.stop = make(chan struct{})
	go m.poll(m.stop)
}

func (m *Manager) stopIfIdleLocked() {
	if m.stop != nil && len(m.triggers) == 0 && len(m.watches) == 0 {
		close(m.stop)
		m.stop = nil
	}
}

func (m *Manager) poll(stop chan struct{}) {
	ticker := time.NewTicker(m.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.sample()
		}
	}
}

func (m *Manager) sample() {
	x, y, err := m.pointer.MouseLocation()
	if err != nil {
		m.logger.Debug("pointer query failed", "error", err)
		return
	}

	type transition struct {
		id      string
		entered bool
	}
	var (
		transitions []transition
		closes      []string
	)

	// Frame queries go through the UI loop, so they must happen outside
	// the manager lock: the loop's closed events re-enter UnwatchPopover.
	m.mu.Lock()
	watchIDs := make([]string, 0, len(m.watches))
	for id := range m.watches {
		watchIDs = append(watchIDs, id)
	}
	m.mu.Unlock()

	queried := make(map[string]bool, len(watchIDs))
	frames := make(map[string]model.Rect, len(watchIDs))
	for _, id := range watchIDs {
		queried[id] = true
		if frame, open := m.closer.Frame(id); open {
			frames[id] = frame
		}
	}

	m.mu.Lock()
	for id, t := range m.triggers {
		over := overPadded(t.bounds, x, y)
		if over != t.hovering {
			t.hovering = over
			transitions = append(transitions, transition{id: id, entered: over})
		}
	}
	for id, w := range m.watches {
		if !queried[id] {
			// Registered between the two lock sections; sample it
			// next round.
			continue
		}
		frame, open := frames[id]
		if !open {
			delete(m.watches, id)
			continue
		}
		over := frame.Contains(x, y)
		if !over && w.trigger != nil {
			over = overPadded(*w.trigger, x, y)
		}
		if over {
			w.outsideCount = 0
			w.closeArmed = time.Time{}
			continue
		}
		w.outsideCount++
		if w.outsideCount < outsideDebounce {
			continue
		}
		if w.closeArmed.IsZero() {
			w.closeArmed = time.Now()
			continue
		}
		if time.Since(w.closeArmed) >= m.CloseDelay {
			delete(m.watches, id)
			closes = append(closes, id)
		}
	}
	m.stopIfIdleLocked()
	m.mu.Unlock()

	for _, tr := range transitions {
		if m.OnTrigger != nil {
			m.OnTrigger(tr.id, tr.entered)
		}
	}
	for _, id := range closes {
		m.logger.Debug("hover close", "id", id)
		m.closer.Close(id)
	}
}

// Triggers returns the registered trigger ids.
func (m *Manager) Triggers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.triggers))
	for id := range m.triggers {
		ids = append(ids, id)
	}
	return ids
}

// Stop halts polling and clears all registrations.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.triggers = make(map[string]*trigger)
	m.watches = make(map[string]*watch)
	if m.stop != nil {
		close(m.stop)
		m.stop = nil
	}
}

func overPadded(r model.Rect, x, y float64) bool {
	return x >= r.X-TriggerPadding &&
		x <= r.X+r.Width+TriggerPadding &&
		y >= r.Y-TriggerPadding &&
		y <= r.Y+r.Height+TriggerPadding
}
