package coordinator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurapanel/aurapanel/internal/model"
	"github.com/aurapanel/aurapanel/internal/monitor"
	"github.com/aurapanel/aurapanel/internal/native"
	"github.com/aurapanel/aurapanel/internal/native/nativetest"
	"github.com/aurapanel/aurapanel/internal/popover"
	"github.com/aurapanel/aurapanel/internal/registry"
	"github.com/aurapanel/aurapanel/internal/uiloop"
	"github.com/aurapanel/aurapanel/internal/windows"
)

var (
	primary   = model.Monitor{ID: 0, Name: "Built-in", Width: 1440, Height: 900, ScaleFactor: 2, Primary: true}
	secondary = model.Monitor{ID: 1, Name: "secondary", X: 1440, Width: 1920, Height: 1080, ScaleFactor: 1}
)

type harness struct {
	co      *Coordinator
	backend *nativetest.Backend
	wc      *windows.Controller
	pc      *popover.Controller
	reg     *registry.Registry
}

func newHarness(t *testing.T, monitors ...model.Monitor) *harness {
	t.Helper()
	backend := nativetest.New(monitors...)
	loop := uiloop.New(backend)
	reg := registry.New(nil)
	mon := monitor.NewRegistry(backend, loop, nil)
	mon.CoalesceWindow = 5 * time.Millisecond
	wc := windows.New(backend, reg, loop, "http://localhost:1420/", nil)
	pc := popover.New(backend, reg, loop, "http://localhost:1420/", nil)

	co := New(model.Context{Role: model.RoleCoordinator}, backend, mon, wc, pc, loop, nil)
	mon.Prime()
	table, err := mon.List()
	require.NoError(t, err)
	loop.Call(func() {
		wc.SetMonitors(table)
		pc.SetMonitors(table)
	})
	co.Start()
	t.Cleanup(co.Stop)

	return &harness{co: co, backend: backend, wc: wc, pc: pc, reg: reg}
}

func TestDetectContext(t *testing.T) {
	env := map[string]string{}
	getenv := func(k string) string { return env[k] }

	ctx, err := DetectContext(getenv)
	require.NoError(t, err)
	assert.Equal(t, model.RoleCoordinator, ctx.Role)

	env[ContextEnv] = "window=bar"
	ctx, err = DetectContext(getenv)
	require.NoError(t, err)
	assert.Equal(t, model.Context{Role: model.RoleInlineWindow, ID: "bar"}, ctx)

	env[ContextEnv] = "popover=media&max_height=400"
	ctx, err = DetectContext(getenv)
	require.NoError(t, err)
	assert.Equal(t, model.Context{Role: model.RolePopover, ID: "media", MaxHeight: 400}, ctx)
}

func TestWaitForAll(t *testing.T) {
	h := newHarness(t, primary)

	h.co.Declare("bar")
	h.co.Declare("dock")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, h.co.WaitForAll(ctx), "unresolved while windows are pending")

	done := make(chan error, 1)
	go func() { done <- h.co.WaitForAll(context.Background()) }()

	h.co.MarkReady("bar")
	select {
	case <-done:
		t.Fatal("resolved with a window still pending")
	case <-time.After(10 * time.Millisecond):
	}

	h.co.MarkReady("dock")
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("WaitForAll never resolved")
	}

	assert.NoError(t, h.co.WaitForAll(context.Background()), "empty pending set resolves immediately")
}

func TestHideSelf(t *testing.T) {
	h := newHarness(t, primary)

	assert.NoError(t, h.co.HideSelf(), "no self surface is a no-op")

	sid, err := h.backend.CreateWindow(native.SurfaceConfig{Label: "main"})
	require.NoError(t, err)
	require.NoError(t, h.backend.Show(sid))
	h.co.SetSelfSurface(sid)

	require.NoError(t, h.co.HideSelf())
	s, ok := h.backend.ByLabel("main")
	require.True(t, ok)
	assert.False(t, s.Visible)
}

// End-to-end scenario: a bar declared on the secondary monitor repositions
// to the primary when the secondary disappears.
func TestTopologyChange_RepositionsInlineWindows(t *testing.T) {
	wide := model.Monitor{ID: 0, Name: "Built-in", Width: 2560, Height: 1440, ScaleFactor: 2, Primary: true}
	h := newHarness(t, wide, secondary)

	require.NoError(t, h.wc.Create(windows.CreateOptions{
		ID:   "bar",
		Kind: model.KindBar,
		Position: model.Position{
			Monitor: "secondary",
			Top:     model.Px(0), Left: model.Px(0), Right: model.Px(0), Height: model.Px(40),
		},
	}))

	h.backend.ChangeDisplays(wide)

	assert.Eventually(t, func() bool {
		records := h.wc.Records()
		return len(records) == 1 &&
			records[0].Rectangle == (model.Rect{X: 0, Y: 0, Width: 2560, Height: 40})
	}, time.Second, 5*time.Millisecond)
}

func TestTopologyChange_ClosesOrphanedPopover(t *testing.T) {
	h := newHarness(t, primary, secondary)

	var (
		mu     sync.Mutex
		closed []string
	)
	sub := h.pc.SubscribeClosed(func(id string) {
		mu.Lock()
		closed = append(closed, id)
		mu.Unlock()
	})
	defer sub.Cancel()

	_, err := h.pc.Open(popover.OpenOptions{
		ID:     "media",
		Anchor: model.Rect{X: 2000, Y: 10, Width: 24, Height: 24},
		Width:  340, Height: 200,
	})
	require.NoError(t, err)

	h.backend.ChangeDisplays(primary)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(closed) == 1 && closed[0] == "media"
	}, time.Second, 5*time.Millisecond)
}

func TestBlurEvent_DismissesPopover(t *testing.T) {
	h := newHarness(t, primary)

	_, err := h.pc.Open(popover.OpenOptions{
		ID:     "media",
		Anchor: model.Rect{X: 100, Y: 40, Width: 24, Height: 24},
		Width:  340, Height: 200,
	})
	require.NoError(t, err)

	h.backend.Blur("popover-media")

	assert.Eventually(t, func() bool {
		return len(h.pc.ListOpen()) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestAppDeactivated_ClosesAllPopovers(t *testing.T) {
	h := newHarness(t, primary)

	for _, id := range []string{"a", "b"} {
		_, err := h.pc.Open(popover.OpenOptions{
			ID:     id,
			Anchor: model.Rect{X: 100, Y: 40, Width: 24, Height: 24},
			Width:  340, Height: 200,
		})
		require.NoError(t, err)
	}

	h.backend.DeactivateApp()

	assert.Eventually(t, func() bool {
		return len(h.pc.ListOpen()) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestBus_NameFilteringAndCopies(t *testing.T) {
	bus := NewBus(nil)

	var (
		mu        sync.Mutex
		all, mine []model.ExternalEvent
	)
	subAll := bus.Subscribe("", func(ev model.ExternalEvent) {
		ev.Args = append(ev.Args, "mutated")
		mu.Lock()
		all = append(all, ev)
		mu.Unlock()
	})
	defer subAll.Cancel()
	subNamed := bus.Subscribe("focus-changed", func(ev model.ExternalEvent) {
		mu.Lock()
		mine = append(mine, ev)
		mu.Unlock()
	})
	defer subNamed.Cancel()

	bus.Publish(model.ExternalEvent{Name: "workspace-changed"})
	bus.Publish(model.ExternalEvent{Name: "focus-changed", Args: []string{"2", "1"}})

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, all, 2)
	require.Len(t, mine, 1)
	assert.Equal(t, []string{"2", "1"}, mine[0].Args, "one subscriber's mutation is invisible to others")
}

func TestInject_ReachesBus(t *testing.T) {
	h := newHarness(t, primary)

	got := make(chan model.ExternalEvent, 1)
	sub := h.co.Bus().Subscribe("", func(ev model.ExternalEvent) { got <- ev })
	defer sub.Cancel()

	h.co.Inject(model.ExternalEvent{Name: "workspace-changed", Args: []string{"3"}})

	select {
	case ev := <-got:
		assert.Equal(t, "workspace-changed", ev.Name)
		assert.Equal(t, []string{"3"}, ev.Args)
	case <-time.After(time.Second):
		t.Fatal("event never delivered")
	}
}
