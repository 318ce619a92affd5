package geometry

import "github.com/aurapanel/aurapanel/internal/model"

// MinPanelHeight is the enforced positive minimum for the available panel
// height below an anchor. An anchor at the very bottom of a monitor still
// yields this much room; the content scrolls.
const MinPanelHeight = 100.0

// PanelPlacement is the result of solving a popover's anchor placement.
type PanelPlacement struct {
	Rect model.Rect

	// MaxHeight is the room between the panel's top edge and the bottom
	// of the anchor's monitor, never less than MinPanelHeight. It caps
	// the panel height through every later resize.
	MaxHeight float64

	Monitor model.Monitor
}

// PlacePanel computes where a popover panel of the requested size opens
// relative to its anchor: horizontally per align, clamped to the anchor
// monitor's interior; vertically below the anchor offset by offsetY.
func PlacePanel(anchor model.Rect, width, height float64, align model.Align, offsetY float64, monitors []model.Monitor) (PanelPlacement, error) {
	ax, ay := anchor.Midpoint()
	mon, err := MonitorAt(ax, ay, monitors)
	if err != nil {
		return PanelPlacement{}, err
	}

	var x float64
	switch align {
	case model.AlignStart:
		x = anchor.X
	case model.AlignEnd:
		x = anchor.X + anchor.Width - width
	default: // center
		x = anchor.X + anchor.Width/2 - width/2
	}
	x = clamp(x, mon.X, mon.X+mon.Width-width)

	y := anchor.Y + anchor.Height + offsetY
	maxHeight := mon.Y + mon.Height - y
	if maxHeight < MinPanelHeight {
		maxHeight = MinPanelHeight
	}
	if height > maxHeight {
		height = maxHeight
	}

	return PanelPlacement{
		Rect:      model.Rect{X: x, Y: y, Width: width, Height: height},
		MaxHeight: maxHeight,
		Monitor:   mon,
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
