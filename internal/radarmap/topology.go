// Package radarmap implements the fixed-origin regular grid (GridTopology)
// and the occupancy radar map (RadarMap) built on top of it: per-cell
// echo/contact evidence with decay and expiry, copy-on-write updates, and
// the target-finding primitives used by the controller's escape logic.
package radarmap

import (
	"math"

	"wheelly/control/internal/geometry"
)

// GridTopology is an immutable descriptor of a fixed-origin regular square
// grid: width*height cells of side GridSize, centred at Center.
type GridTopology struct {
	Center   geometry.Vec2
	Width    uint32
	Height   uint32
	GridSize float64
}

// NumCells returns width*height.
func (t GridTopology) NumCells() int { return int(t.Width) * int(t.Height) }

// CellCenter returns the centre of cell (i, j).
func (t GridTopology) CellCenter(i, j int) geometry.Vec2 {
	ox := (float64(i) - (float64(t.Width)-1)/2) * t.GridSize
	oy := (float64(j) - (float64(t.Height)-1)/2) * t.GridSize
	return geometry.Vec2{X: t.Center.X + ox, Y: t.Center.Y + oy}
}

// IndexOf returns the cell index containing p, or (0, false) when p falls
// outside the grid.
func (t GridTopology) IndexOf(p geometry.Vec2) (int, bool) {
	half := t.GridSize / 2
	fx := (p.X-t.Center.X)/t.GridSize + (float64(t.Width)-1)/2
	fy := (p.Y-t.Center.Y)/t.GridSize + (float64(t.Height)-1)/2
	i := int(math.Floor(fx + 0.5))
	j := int(math.Floor(fy + 0.5))
	if i < 0 || j < 0 || i >= int(t.Width) || j >= int(t.Height) {
		return 0, false
	}
	cc := t.CellCenter(i, j)
	if math.Abs(p.X-cc.X) > half+1e-9 || math.Abs(p.Y-cc.Y) > half+1e-9 {
		return 0, false
	}
	return j*int(t.Width) + i, true
}

// IJOf decomposes a cell index into (i, j) coordinates.
func (t GridTopology) IJOf(index int) (int, int) {
	w := int(t.Width)
	return index % w, index / w
}

// Indices returns every valid cell index, 0..width*height.
func (t GridTopology) Indices() []int {
	n := t.NumCells()
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
