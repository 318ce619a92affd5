// Package monitor maintains the display snapshot and fans out topology
// changes. Native notifications are coalesced so a burst of screen
// reconfiguration events produces a single downstream emission carrying the
// final snapshot.
package monitor

import (
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/aurapanel/aurapanel/internal/model"
	"github.com/aurapanel/aurapanel/internal/uiloop"
)

// ErrNoDisplays is returned by List before the first snapshot has been
// taken. Callers retry after the first topology event.
var ErrNoDisplays = errors.New("no display snapshot yet")

// DefaultCoalesceWindow bounds how often subscribers are notified during a
// burst of native display notifications.
const DefaultCoalesceWindow = 150 * time.Millisecond

// Source answers display queries. The native backend implements it.
type Source interface {
	Displays() ([]model.Monitor, error)
}

// Subscription is a handle to a registered sink; Cancel tears it down.
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

// Registry owns the monitor snapshot. All state is owned by the UI loop;
// subscriber callbacks run on the loop and receive their own copy of the
// snapshot.
type Registry struct {
	source Source
	loop   *uiloop.Loop
	logger *slog.Logger

	// CoalesceWindow overrides the notification coalescing interval.
	// Set before the first topology event; tests shorten it.
	CoalesceWindow time.Duration

	coalesce *uiloop.Timer

	// Loop-owned state.
	monitors    []model.Monitor
	subscribers map[int]func([]model.Monitor)
	nextSub     int
}

// NewRegistry returns a registry over the given source. Call Prime from off
// the loop before serving queries; it runs the query on the loop itself.
func NewRegistry(source Source, loop *uiloop.Loop, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		source:         source,
		loop:           loop,
		logger:         logger,
		CoalesceWindow: DefaultCoalesceWindow,
		coalesce:       uiloop.NewTimer(loop),
		subscribers:    make(map[int]func([]model.Monitor)),
	}
}

// Prime takes the initial snapshot. A failure leaves the registry empty;
// List reports ErrNoDisplays until a topology event delivers one.
func (r *Registry) Prime() {
	r.loop.Call(r.refreshOnLoop)
}

// List returns the current snapshot, primary first then by display id
// ascending. ErrNoDisplays before the first successful query.
func (r *Registry) List() ([]model.Monitor, error) {
	var (
		out []model.Monitor
		err error
	)
	r.loop.Call(func() {
		if r.monitors == nil {
			err = ErrNoDisplays
			return
		}
		out = snapshotCopy(r.monitors)
	})
	return out, err
}

// Current is List for callers already on the loop.
func (r *Registry) Current() ([]model.Monitor, error) {
	if r.monitors == nil {
		return nil, ErrNoDisplays
	}
	return snapshotCopy(r.monitors), nil
}

// Subscribe registers a sink for post-change snapshots. The callback runs
// on the UI loop with a copy of the snapshot; calling Cancel on the returned
// subscription runs the teardown.
func (r *Registry) Subscribe(fn func([]model.Monitor)) *Subscription {
	var id int
	r.loop.Call(func() {
		id = r.nextSub
		r.nextSub++
		r.subscribers[id] = fn
	})
	return &Subscription{cancel: func() {
		r.loop.Call(func() { delete(r.subscribers, id) })
	}}
}

// HandleDisplaysChanged coalesces a native topology notification. Safe to
// call from any goroutine.
func (r *Registry) HandleDisplaysChanged() {
	r.coalesce.Arm(r.CoalesceWindow, r.refreshOnLoop)
}

// refreshOnLoop queries the source and notifies subscribers. A failed query
// preserves the previous snapshot and notifies nobody.
func (r *Registry) refreshOnLoop() {
	monitors, err := r.source.Displays()
	if err != nil {
		r.logger.Error("display query failed, keeping previous snapshot", "error", err)
		return
	}
	sort.SliceStable(monitors, func(i, j int) bool {
		if monitors[i].Primary != monitors[j].Primary {
			return monitors[i].Primary
		}
		return monitors[i].ID < monitors[j].ID
	})
	r.monitors = monitors

	for _, fn := range r.subscribers {
		fn(snapshotCopy(monitors))
	}
}

func snapshotCopy(monitors []model.Monitor) []model.Monitor {
	out := make([]model.Monitor, len(monitors))
	copy(out, monitors)
	return out
}
