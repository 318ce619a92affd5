package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurapanel/aurapanel/internal/model"
)

var (
	primary = model.Monitor{
		ID: 0, Name: "Built-in Display", Width: 1440, Height: 900,
		ScaleFactor: 2, Primary: true,
	}
	secondary = model.Monitor{
		ID: 1, Name: "secondary", X: 1440, Width: 1920, Height: 1080,
		ScaleFactor: 1,
	}
	table = []model.Monitor{primary, secondary}
)

func TestSolve_AxisCombinations(t *testing.T) {
	tests := []struct {
		name string
		pos  model.Position
		want model.Rect
	}{
		{
			name: "left and right span the monitor",
			pos:  model.Position{Top: model.Px(9), Left: model.Px(20), Right: model.Px(20), Height: model.Px(60)},
			want: model.Rect{X: 20, Y: 9, Width: 1400, Height: 60},
		},
		{
			name: "left and width",
			pos:  model.Position{Top: model.Px(0), Left: model.Px(100), Width: model.Px(300), Height: model.Px(40)},
			want: model.Rect{X: 100, Y: 0, Width: 300, Height: 40},
		},
		{
			name: "right and width anchor to the right edge",
			pos:  model.Position{Top: model.Px(0), Right: model.Px(10), Width: model.Px(300), Height: model.Px(40)},
			want: model.Rect{X: 1130, Y: 0, Width: 300, Height: 40},
		},
		{
			name: "left alone extends to the right edge",
			pos:  model.Position{Top: model.Px(0), Left: model.Px(40), Height: model.Px(40)},
			want: model.Rect{X: 40, Y: 0, Width: 1400, Height: 40},
		},
		{
			name: "right alone extends from the left edge",
			pos:  model.Position{Top: model.Px(0), Right: model.Px(40), Height: model.Px(40)},
			want: model.Rect{X: 0, Y: 0, Width: 1400, Height: 40},
		},
		{
			name: "width alone is centred",
			pos:  model.Position{Width: model.Px(400), Height: model.Px(300)},
			want: model.Rect{X: 520, Y: 300, Width: 400, Height: 300},
		},
		{
			name: "top and bottom span the monitor",
			pos:  model.Position{Left: model.Px(0), Width: model.Px(40), Top: model.Px(10), Bottom: model.Px(10)},
			want: model.Rect{X: 0, Y: 10, Width: 40, Height: 880},
		},
		{
			name: "bottom and height anchor to the bottom edge",
			pos:  model.Position{Left: model.Px(0), Width: model.Px(40), Bottom: model.Px(20), Height: model.Px(100)},
			want: model.Rect{X: 0, Y: 780, Width: 40, Height: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, mon, err := Solve(tt.pos, table)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, primary.Name, mon.Name)
		})
	}
}

func TestSolve_MonitorSelection(t *testing.T) {
	pos := model.Position{Monitor: "secondary", Top: model.Px(0), Left: model.Px(0), Right: model.Px(0), Height: model.Px(40)}
	got, mon, err := Solve(pos, table)
	require.NoError(t, err)
	assert.Equal(t, model.Rect{X: 1440, Y: 0, Width: 1920, Height: 40}, got)
	assert.Equal(t, "secondary", mon.Name)

	// Sentinel "primary" and unknown names both resolve to the primary.
	for _, name := range []string{"primary", "gone"} {
		pos.Monitor = name
		got, mon, err = Solve(pos, table)
		require.NoError(t, err)
		assert.Equal(t, model.Rect{X: 0, Y: 0, Width: 1440, Height: 40}, got)
		assert.True(t, mon.Primary)
	}
}

func TestSolve_Unresolvable(t *testing.T) {
	tests := []struct {
		name string
		pos  model.Position
	}{
		{"empty descriptor", model.Position{}},
		{"vertical axis missing", model.Position{Left: model.Px(0), Width: model.Px(100)}},
		{"horizontal axis missing", model.Position{Top: model.Px(0), Height: model.Px(100)}},
		{"negative width from insets", model.Position{Left: model.Px(1000), Right: model.Px(1000), Top: model.Px(0), Height: model.Px(10)}},
		{"negative origin", model.Position{Right: model.Px(100), Width: model.Px(2000), Top: model.Px(0), Height: model.Px(10)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Solve(tt.pos, table)
			assert.ErrorIs(t, err, ErrUnresolvablePosition)
		})
	}
}

func TestSolve_ClampsTinyExtents(t *testing.T) {
	pos := model.Position{Left: model.Px(720), Right: model.Px(720), Top: model.Px(0), Height: model.Px(40)}
	got, _, err := Solve(pos, table)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Width, "zero width clamps to 1")
}

func TestSolve_EmptyTable(t *testing.T) {
	_, _, err := Solve(model.Position{Width: model.Px(10), Height: model.Px(10)}, nil)
	assert.ErrorIs(t, err, ErrNoMonitors)
}

func TestSolve_Deterministic(t *testing.T) {
	pos := model.Position{Top: model.Px(9.5), Left: model.Px(20.25), Right: model.Px(20.25), Height: model.Px(60)}
	first, _, err := Solve(pos, table)
	require.NoError(t, err)
	for range 10 {
		again, _, err := Solve(pos, table)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

// Re-deriving a descriptor from a solved rectangle and solving it again
// yields the same rectangle.
func TestSolve_RoundTrip(t *testing.T) {
	pos := model.Position{Top: model.Px(9), Left: model.Px(20), Right: model.Px(20), Height: model.Px(60)}
	rect, mon, err := Solve(pos, table)
	require.NoError(t, err)

	derived := model.Position{
		Monitor: mon.Name,
		Top:     model.Px(rect.Y - mon.Y),
		Left:    model.Px(rect.X - mon.X),
		Width:   model.Px(rect.Width),
		Height:  model.Px(rect.Height),
	}
	again, _, err := Solve(derived, table)
	require.NoError(t, err)
	assert.Equal(t, rect, again)
}

func TestPlacePanel_CenterClampsToMonitorEdge(t *testing.T) {
	// Anchor near the left edge; centre alignment would place the panel
	// at a negative x.
	anchor := model.Rect{X: 100, Y: 40, Width: 24, Height: 24}
	p, err := PlacePanel(anchor, 340, 420, model.AlignCenter, 8, []model.Monitor{primary})
	require.NoError(t, err)

	assert.Equal(t, model.Rect{X: 0, Y: 72, Width: 340, Height: 420}, p.Rect)
	assert.Equal(t, 828.0, p.MaxHeight)
}

func TestPlacePanel_StartAtRightEdge(t *testing.T) {
	anchor := model.Rect{X: 1440, Y: 0, Width: 0, Height: 24}
	p, err := PlacePanel(anchor, 340, 200, model.AlignStart, 8, []model.Monitor{primary})
	require.NoError(t, err)

	assert.Equal(t, 1100.0, p.Rect.X, "panel right edge clamps to the monitor edge")
	assert.Equal(t, 1440.0, p.Rect.X+p.Rect.Width)
}

func TestPlacePanel_BottomAnchorKeepsMinimumHeight(t *testing.T) {
	anchor := model.Rect{X: 0, Y: 876, Width: 24, Height: 24}
	p, err := PlacePanel(anchor, 340, 420, model.AlignStart, 0, []model.Monitor{primary})
	require.NoError(t, err)

	assert.Equal(t, MinPanelHeight, p.MaxHeight)
	assert.Equal(t, MinPanelHeight, p.Rect.Height, "requested height clamps to max height")
}

func TestPlacePanel_AnchorOffscreenUsesPrimary(t *testing.T) {
	anchor := model.Rect{X: -5000, Y: -5000, Width: 10, Height: 10}
	p, err := PlacePanel(anchor, 340, 200, model.AlignStart, 8, table)
	require.NoError(t, err)
	assert.True(t, p.Monitor.Primary)
	assert.GreaterOrEqual(t, p.Rect.X, p.Monitor.X)
}

func TestPlacePanel_AlignEnd(t *testing.T) {
	anchor := model.Rect{X: 1000, Y: 10, Width: 60, Height: 24}
	p, err := PlacePanel(anchor, 340, 200, model.AlignEnd, 8, []model.Monitor{primary})
	require.NoError(t, err)
	assert.Equal(t, 720.0, p.Rect.X, "panel right edge sits at the anchor right edge")
}

func TestMonitorAt(t *testing.T) {
	m, err := MonitorAt(1500, 100, table)
	require.NoError(t, err)
	assert.Equal(t, "secondary", m.Name)

	m, err = MonitorAt(100, 100, table)
	require.NoError(t, err)
	assert.True(t, m.Primary)
}
