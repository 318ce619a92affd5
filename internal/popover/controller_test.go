package popover

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurapanel/aurapanel/internal/model"
	"github.com/aurapanel/aurapanel/internal/native/nativetest"
	"github.com/aurapanel/aurapanel/internal/registry"
	"github.com/aurapanel/aurapanel/internal/uiloop"
)

var (
	primary   = model.Monitor{ID: 0, Name: "Built-in", Width: 1440, Height: 900, ScaleFactor: 2, Primary: true}
	secondary = model.Monitor{ID: 1, Name: "secondary", X: 1440, Width: 1920, Height: 1080, ScaleFactor: 1}
)

type harness struct {
	c       *Controller
	backend *nativetest.Backend
	reg     *registry.Registry
	closed  []string
}

func newHarness(t *testing.T, monitors ...model.Monitor) *harness {
	t.Helper()
	backend := nativetest.New(monitors...)
	loop := uiloop.New(backend)
	reg := registry.New(nil)
	h := &harness{
		c:       New(backend, reg, loop, "http://localhost:1420/", nil),
		backend: backend,
		reg:     reg,
	}
	h.c.SetMonitors(monitors)
	sub := h.c.SubscribeClosed(func(id string) { h.closed = append(h.closed, id) })
	t.Cleanup(sub.Cancel)
	return h
}

func openOpts(id string) OpenOptions {
	return OpenOptions{
		ID:     id,
		Anchor: model.Rect{X: 100, Y: 40, Width: 24, Height: 24},
		Width:  340,
		Height: 420,
		Align:  model.AlignCenter,
	}
}

func TestOpen_PlacementBelowAnchor(t *testing.T) {
	h := newHarness(t, primary)

	res, err := h.c.Open(openOpts("media"))
	require.NoError(t, err)
	assert.Equal(t, "popover-media", res.Label)
	assert.False(t, res.Closed)
	assert.Equal(t, 828.0, res.MaxHeight)

	s, ok := h.backend.ByLabel("popover-media")
	require.True(t, ok)
	assert.True(t, s.Visible)
	assert.True(t, s.Panel)
	assert.True(t, s.NonActivating, "panels never steal focus")
	assert.Equal(t, model.Rect{X: 0, Y: 72, Width: 340, Height: 420}, s.Frame,
		"centre alignment clamps to the monitor edge")
	assert.Contains(t, s.URL, "popover=media")
	assert.Contains(t, s.URL, "max_height=828")

	rec, ok := h.reg.LookupByID("media")
	require.True(t, ok)
	assert.Equal(t, model.RolePopover, rec.Role)
	assert.Equal(t, model.StatusVisible, rec.Status)
}

func TestOpen_ToggleClosesSameID(t *testing.T) {
	h := newHarness(t, primary)

	_, err := h.c.Open(openOpts("media"))
	require.NoError(t, err)

	res, err := h.c.Open(openOpts("media"))
	require.NoError(t, err)
	assert.True(t, res.Closed)
	assert.Equal(t, "popover-media", res.Label)

	assert.Empty(t, h.c.ListOpen(), "toggle ends in the absent state")
	assert.Equal(t, []string{"media"}, h.closed, "toggle emits one closed event")
	assert.Equal(t, 0, h.backend.Count())

	// Opening after absent allocates a fresh panel.
	res, err = h.c.Open(openOpts("media"))
	require.NoError(t, err)
	assert.False(t, res.Closed)
	assert.Equal(t, 1, h.backend.Count())
}

func TestClose_IdempotentSingleEvent(t *testing.T) {
	h := newHarness(t, primary)
	_, err := h.c.Open(openOpts("media"))
	require.NoError(t, err)

	h.c.Close("media")
	h.c.Close("media")

	assert.Equal(t, []string{"media"}, h.closed)
}

func TestExclusiveGroup_PrefixToggle(t *testing.T) {
	h := newHarness(t, primary)

	open := func(id string) OpenResult {
		opts := openOpts(id)
		opts.Exclusive = ExclusivePrefix("github")
		res, err := h.c.Open(opts)
		require.NoError(t, err)
		return res
	}

	res := open("github-issues")
	assert.False(t, res.Closed)
	assert.Empty(t, h.closed, "first group member closes nothing")

	res = open("github-prs")
	assert.False(t, res.Closed)
	assert.Equal(t, []string{"github-issues"}, h.closed)
	assert.Equal(t, []string{"github-prs"}, h.c.ListOpen())

	res = open("github-prs")
	assert.True(t, res.Closed, "re-open of the open id toggles")
	assert.Equal(t, []string{"github-issues", "github-prs"}, h.closed)
	assert.Empty(t, h.c.ListOpen())
}

func TestExclusiveGroup_PrefixLeavesOthersAlone(t *testing.T) {
	h := newHarness(t, primary)

	_, err := h.c.Open(openOpts("media"))
	require.NoError(t, err)

	opts := openOpts("github-issues")
	opts.Exclusive = ExclusivePrefix("github")
	_, err = h.c.Open(opts)
	require.NoError(t, err)

	assert.Empty(t, h.closed, "media is outside the github group")
	assert.Equal(t, []string{"github-issues", "media"}, h.c.ListOpen())
}

func TestExclusiveAll_ClosesEverythingFirst(t *testing.T) {
	h := newHarness(t, primary)

	_, err := h.c.Open(openOpts("media"))
	require.NoError(t, err)
	_, err = h.c.Open(openOpts("battery"))
	require.NoError(t, err)

	opts := openOpts("calendar")
	opts.Exclusive = ExclusiveAll()
	res, err := h.c.Open(opts)
	require.NoError(t, err)

	assert.False(t, res.Closed)
	assert.ElementsMatch(t, []string{"media", "battery"}, h.closed)
	assert.Equal(t, []string{"calendar"}, h.c.ListOpen())
}

func TestCloseAll(t *testing.T) {
	h := newHarness(t, primary)
	for _, id := range []string{"a", "b", "c"} {
		_, err := h.c.Open(openOpts(id))
		require.NoError(t, err)
	}

	h.c.CloseAll()
	assert.Empty(t, h.c.ListOpen())
	assert.ElementsMatch(t, []string{"a", "b", "c"}, h.closed)
	assert.Equal(t, 0, h.backend.Count())
}

func TestSetSize_ClampsToMaxHeight(t *testing.T) {
	h := newHarness(t, primary)

	// Anchor low enough that max height lands at 300.
	opts := openOpts("media")
	opts.Anchor = model.Rect{X: 100, Y: 568, Width: 24, Height: 24}
	opts.OffsetY = model.Px(8)
	res, err := h.c.Open(opts)
	require.NoError(t, err)
	require.Equal(t, 300.0, res.MaxHeight)

	require.NoError(t, h.c.SetSize("media", 400, 600))
	s, _ := h.backend.ByLabel("popover-media")
	assert.Equal(t, 400.0, s.Frame.Width)
	assert.Equal(t, 300.0, s.Frame.Height, "height clamps to max height")

	require.NoError(t, h.c.SetSize("media", 400, 200))
	s, _ = h.backend.ByLabel("popover-media")
	assert.Equal(t, 200.0, s.Frame.Height)

	assert.ErrorIs(t, h.c.SetSize("gone", 1, 1), registry.ErrNotFound)
}

func TestHandleBlur_EmitsExactlyOnce(t *testing.T) {
	h := newHarness(t, primary)
	_, err := h.c.Open(openOpts("media"))
	require.NoError(t, err)

	// Two blurs in rapid succession: the second finds no state.
	h.c.HandleBlur("popover-media")
	h.c.HandleBlur("popover-media")
	time.Sleep(10 * time.Millisecond)

	assert.Equal(t, []string{"media"}, h.closed)
	assert.Empty(t, h.c.ListOpen())
}

func TestHandleBlur_IgnoresInlineWindows(t *testing.T) {
	h := newHarness(t, primary)
	_, err := h.c.Open(openOpts("media"))
	require.NoError(t, err)

	h.c.HandleBlur("inline-window-bar")
	h.c.HandleBlur("not-a-label")
	time.Sleep(10 * time.Millisecond)

	assert.Empty(t, h.closed)
}

func TestNativePanelFailure_NoPartialState(t *testing.T) {
	h := newHarness(t, primary)
	h.backend.FailPanels = true

	_, err := h.c.Open(openOpts("media"))
	require.Error(t, err)
	assert.Equal(t, 0, h.reg.Count())
	assert.Empty(t, h.c.ListOpen())
	assert.Empty(t, h.closed)
}

func TestDuplicateIDAcrossRoles(t *testing.T) {
	h := newHarness(t, primary)
	require.NoError(t, h.reg.Insert(model.WindowRecord{
		ID: "media", Label: model.WindowLabel("media"), Role: model.RoleInlineWindow,
	}))

	_, err := h.c.Open(openOpts("media"))
	assert.ErrorIs(t, err, registry.ErrDuplicateID)
}

func TestHandleTopology_AnchorMonitorRemovedCloses(t *testing.T) {
	h := newHarness(t, primary, secondary)

	opts := openOpts("media")
	opts.Anchor = model.Rect{X: 2000, Y: 10, Width: 24, Height: 24} // on secondary
	_, err := h.c.Open(opts)
	require.NoError(t, err)

	onPrimary := openOpts("battery")
	_, err = h.c.Open(onPrimary)
	require.NoError(t, err)

	h.c.HandleTopology([]model.Monitor{primary})

	assert.Equal(t, []string{"media"}, h.closed, "orphaned popover closes with its event")
	assert.Equal(t, []string{"battery"}, h.c.ListOpen())
}
