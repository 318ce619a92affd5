package uiloop

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// serialScheduler runs scheduled functions on a dedicated goroutine, like
// the real main-queue dispatch.
type serialScheduler struct {
	once sync.Once
	ch   chan func()
}

func (s *serialScheduler) Schedule(fn func()) {
	s.once.Do(func() {
		s.ch = make(chan func(), 64)
		go func() {
			for f := range s.ch {
				f()
			}
		}()
	})
	s.ch <- fn
}

func TestCall_WaitsForCompletion(t *testing.T) {
	l := New(&serialScheduler{})

	var ran atomic.Bool
	l.Call(func() {
		time.Sleep(10 * time.Millisecond)
		ran.Store(true)
	})
	assert.True(t, ran.Load())
}

func TestCall_SerializesInIssueOrder(t *testing.T) {
	l := New(&serialScheduler{})

	var order []int
	for i := range 20 {
		l.Call(func() { order = append(order, i) })
	}
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestTimer_RearmOverwritesSlot(t *testing.T) {
	l := New(&serialScheduler{})
	timer := NewTimer(l)

	var fired atomic.Int32
	timer.Arm(20*time.Millisecond, func() { fired.Add(1) })
	timer.Arm(20*time.Millisecond, func() { fired.Add(1) })
	timer.Arm(20*time.Millisecond, func() { fired.Add(1) })

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load(), "only the last arm fires")
}

func TestTimer_Stop(t *testing.T) {
	l := New(&serialScheduler{})
	timer := NewTimer(l)

	var fired atomic.Int32
	timer.Arm(10*time.Millisecond, func() { fired.Add(1) })
	timer.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestTimer_FiresOnLoop(t *testing.T) {
	l := New(&serialScheduler{})
	timer := NewTimer(l)

	done := make(chan struct{})
	timer.Arm(5*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
}
