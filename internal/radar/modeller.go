// Package radar consumes RobotStatus sensor signals and updates the radar
// map accordingly: the per-ping echo/anechoic cell update rule with
// exponential decay, periodic cleaning, and the translation from a raw
// proxy/contacts reading into the calls radarmap exposes.
package radar

import (
	"math"

	"wheelly/control/internal/geometry"
	"wheelly/control/internal/radarmap"
)

// Params bundles the C3 tuning constants.
type Params struct {
	CleanInterval      int64
	EchoPersistence    int64
	ContactPersistence int64
	Decay              float64
	// Smoothing is the "s" constant in the exponential-decay recurrence,
	// recommended around 0.5.
	Smoothing float64
}

// DefaultSmoothing is used when Params.Smoothing is left at zero.
const DefaultSmoothing = 0.5

func (p Params) smoothing() float64 {
	if p.Smoothing <= 0 {
		return DefaultSmoothing
	}
	return p.Smoothing
}

// Ping is one sensor reading to fold into the map: a ray from Q in
// direction Alpha with receptive half-angle Theta, observed echo at
// Distance (ignored when Echo is false), at simulation time Time.
type Ping struct {
	Q        geometry.Vec2
	Alpha    geometry.Angle
	Theta    geometry.Angle
	Distance float64
	MaxRange float64
	Time     int64
	Echo     bool
}

// UpdateCell applies the cell update rule for one ping against one cell of
// the given grid size, returning the unchanged cell when the ping doesn't
// reach it.
func UpdateCell(cell radarmap.MapCell, gridSize float64, ping Ping, params Params) radarmap.MapCell {
	interval := geometry.SquareArcInterval(cell.Location, gridSize, ping.Q, ping.Alpha, ping.Theta)
	if !interval.Ok {
		return cell
	}
	near := geometry.NormVec(geometry.SubVec(interval.Near, ping.Q))
	far := geometry.NormVec(geometry.SubVec(interval.Far, ping.Q))
	if near <= 0 || near > ping.MaxRange {
		return cell
	}
	switch {
	case ping.Echo && near <= ping.Distance && ping.Distance <= far:
		return decayUpdate(cell, ping.Time, params, true)
	case !ping.Echo || ping.Distance > far:
		return decayUpdate(cell, ping.Time, params, false)
	default:
		return cell
	}
}

// decayUpdate applies the exponential-decay recurrence:
// w' = s*w*exp(-(t-echo_time)/decay) + sign*(1-s), then echo_time <- t.
func decayUpdate(cell radarmap.MapCell, t int64, params Params, echogenic bool) radarmap.MapCell {
	s := params.smoothing()
	dt := float64(t - cell.EchoTime)
	decay := 1.0
	if params.Decay > 0 {
		decay = math.Exp(-dt / params.Decay)
	}
	sign := 1.0
	if !echogenic {
		sign = -1.0
	}
	w := s*cell.EchoWeight*decay + sign*(1-s)
	if w > 1 {
		w = 1
	}
	if w < -1 {
		w = -1
	}
	cell.EchoWeight = w
	cell.EchoTime = t
	return cell
}

// UpdateMap applies the cell update rule to every cell of m for one ping.
func UpdateMap(m radarmap.RadarMap, ping Ping, params Params) radarmap.RadarMap {
	return m.Map(func(c radarmap.MapCell) radarmap.MapCell {
		return UpdateCell(c, m.Topology.GridSize, ping, params)
	})
}

// Clean applies the periodic cleaning rule: if t is clean_interval or more
// past the map's CleanTimestamp, expire echo/contact evidence older than
// the configured persistence windows and advance CleanTimestamp to t.
// Returns the map unchanged when cleaning isn't due yet.
func Clean(m radarmap.RadarMap, t int64, params Params) radarmap.RadarMap {
	if t < m.CleanTimestamp+params.CleanInterval {
		return m
	}
	return m.CleanExpired(t, params.EchoPersistence, params.ContactPersistence)
}
