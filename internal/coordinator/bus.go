package coordinator

import (
	"log/slog"
	"sync"

	"github.com/aurapanel/aurapanel/internal/model"
)

// Bus fans external events out to children. Subscribers may run on any
// goroutine; every delivery gets its own copy of the event so a callback
// cannot mutate what the others see.
type Bus struct {
	logger *slog.Logger

	mu      sync.Mutex
	subs    map[int]busSub
	nextSub int
}

type busSub struct {
	name string // empty subscribes to every event
	fn   func(model.ExternalEvent)
}

// BusSubscription is a handle to a registered sink; Cancel tears it down.
type BusSubscription struct {
	cancel func()
}

// Cancel removes the subscription. Safe to call more than once.
func (s *BusSubscription) Cancel() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// NewBus returns an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{logger: logger, subs: make(map[int]busSub)}
}

// Subscribe registers interest in events with the given name; an empty name
// receives everything.
func (b *Bus) Subscribe(name string, fn func(model.ExternalEvent)) *BusSubscription {
	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = busSub{name: name, fn: fn}
	b.mu.Unlock()
	return &BusSubscription{cancel: func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}}
}

// Publish delivers the event to every matching subscriber.
func (b *Bus) Publish(ev model.ExternalEvent) {
	b.mu.Lock()
	targets := make([]func(model.ExternalEvent), 0, len(b.subs))
	for _, s := range b.subs {
		if s.name == "" || s.name == ev.Name {
			targets = append(targets, s.fn)
		}
	}
	b.mu.Unlock()

	for _, fn := range targets {
		copied := ev
		copied.Args = append([]string(nil), ev.Args...)
		fn(copied)
	}
}
