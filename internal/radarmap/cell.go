package radarmap

import "wheelly/control/internal/geometry"

// MapCell is one cell's accumulated evidence. EchoWeight is clamped to
// [-1, +1]: positive means accumulated evidence of an obstacle, negative
// means accumulated evidence of emptiness, zero means unknown. EchoTime is
// the simulation timestamp (ms) of the last echo/anechoic update;
// ContactTime is the last time a bumper contact was imprinted on this cell.
type MapCell struct {
	Location   geometry.Vec2
	EchoTime   int64
	EchoWeight float64
	ContactTime int64
}

// Unknown reports whether the cell carries no evidence at all.
func (c MapCell) Unknown() bool { return c.EchoWeight == 0 && c.ContactTime == 0 }

// Hindered reports whether the cell's evidence currently favours occupancy.
func (c MapCell) Hindered() bool { return c.EchoWeight > 0 || c.ContactTime > 0 }

// Empty reports whether the cell's evidence favours emptiness with no
// contact evidence.
func (c MapCell) Empty() bool { return c.EchoWeight < 0 && c.ContactTime == 0 }

func clampWeight(w float64) float64 {
	if w > 1 {
		return 1
	}
	if w < -1 {
		return -1
	}
	return w
}
