package radarmap

import (
	"math"
	"sort"

	"wheelly/control/internal/geometry"
)

// RadarMap is an immutable value: every mutator returns a fresh instance
// with its own copy of the cell slice, leaving the parent's cells
// untouched. Observable equality is value equality over
// (Topology, every cell field, CleanTimestamp) — callers must never mutate
// a Cells slice in place.
type RadarMap struct {
	Topology       GridTopology
	Cells          []MapCell
	CleanTimestamp int64
}

// Empty returns a RadarMap over topology with every cell unknown.
func Empty(topology GridTopology) RadarMap {
	cells := make([]MapCell, topology.NumCells())
	for idx := range cells {
		i, j := topology.IJOf(idx)
		cells[idx] = MapCell{Location: topology.CellCenter(i, j)}
	}
	return RadarMap{Topology: topology, Cells: cells}
}

// CellAt returns the cell containing p and whether p fell inside the grid.
func (m RadarMap) CellAt(p geometry.Vec2) (MapCell, bool) {
	idx, ok := m.Topology.IndexOf(p)
	if !ok {
		return MapCell{}, false
	}
	return m.Cells[idx], true
}

// Cell returns the cell at index.
func (m RadarMap) Cell(index int) MapCell { return m.Cells[index] }

// NumCells returns the total cell count.
func (m RadarMap) NumCells() int { return len(m.Cells) }

// Map returns a fresh map with every cell replaced by mapper(old).
func (m RadarMap) Map(mapper func(MapCell) MapCell) RadarMap {
	next := make([]MapCell, len(m.Cells))
	for i, c := range m.Cells {
		next[i] = mapper(c)
	}
	return RadarMap{Topology: m.Topology, Cells: next, CleanTimestamp: m.CleanTimestamp}
}

// MapSelected returns a fresh map whose cells at the given indices have
// been replaced by mapper(old); every other cell is copied unchanged.
func (m RadarMap) MapSelected(indices []int, mapper func(MapCell) MapCell) RadarMap {
	next := make([]MapCell, len(m.Cells))
	copy(next, m.Cells)
	for _, idx := range indices {
		next[idx] = mapper(next[idx])
	}
	return RadarMap{Topology: m.Topology, Cells: next, CleanTimestamp: m.CleanTimestamp}
}

// Clean returns a fresh map with every cell's evidence zeroed.
func (m RadarMap) Clean() RadarMap {
	return m.Map(func(c MapCell) MapCell {
		c.EchoWeight = 0
		c.EchoTime = 0
		c.ContactTime = 0
		return c
	})
}

// CleanExpired zeroes echo evidence older than echoPersistence and contact
// evidence older than contactPersistence, as of timestamp t, and advances
// CleanTimestamp to t.
func (m RadarMap) CleanExpired(t int64, echoPersistence, contactPersistence int64) RadarMap {
	next := m.Map(func(c MapCell) MapCell {
		if c.EchoTime <= t-echoPersistence {
			c.EchoWeight = 0
			c.EchoTime = 0
		}
		if c.ContactTime != 0 && c.ContactTime <= t-contactPersistence {
			c.ContactTime = 0
		}
		return c
	})
	next.CleanTimestamp = t
	return next
}

// SetContactsAt imprints a bumper contact on all cells within contactRadius
// of location that lie in the half-plane implied by front/rear: front-only
// affects the forward half-plane of direction, rear-only the rear
// half-plane, and both affects the full disc.
func (m RadarMap) SetContactsAt(location geometry.Vec2, direction geometry.Angle, front, rear bool, contactRadius float64, timestamp int64) RadarMap {
	if !front && !rear {
		return m
	}
	disc := geometry.Circle(location, contactRadius)
	var half geometry.BoolPredicate
	switch {
	case front && rear:
		half = geometry.Leaf(disc)
	case front:
		half = geometry.And(geometry.Leaf(disc), forwardHalfPlane(location, direction))
	case rear:
		half = geometry.And(geometry.Leaf(disc), rearHalfPlane(location, direction))
	}
	var selected []int
	for idx, c := range m.Cells {
		if half.Satisfies(c.Location) {
			selected = append(selected, idx)
		}
	}
	return m.MapSelected(selected, func(c MapCell) MapCell {
		c.ContactTime = timestamp
		return c
	})
}

func forwardHalfPlane(location geometry.Vec2, direction geometry.Angle) geometry.BoolPredicate {
	fwd := direction.Unit()
	return geometry.FromFunc(func(p geometry.Vec2) bool {
		d := geometry.SubVec(p, location)
		return d.X*fwd.X+d.Y*fwd.Y >= 0
	})
}

func rearHalfPlane(location geometry.Vec2, direction geometry.Angle) geometry.BoolPredicate {
	fwd := direction.Unit()
	return geometry.FromFunc(func(p geometry.Vec2) bool {
		d := geometry.SubVec(p, location)
		return d.X*fwd.X+d.Y*fwd.Y <= 0
	})
}

// FindTarget returns the farthest cell within (safeDistance, maxDistance]
// of location that is unknown-preferred (falling back to empty), and
// reachable via a free trajectory of the given safety clearance. Returns
// (zero, false) when nothing qualifies.
func (m RadarMap) FindTarget(location geometry.Vec2, maxDistance, safeDistance float64) (MapCell, bool) {
	return m.findTarget(location, maxDistance, safeDistance, nil, false)
}

// FindSafeTarget restricts the search to the right half-plane of
// escapeDir-90deg and returns the nearest eligible cell rather than the
// farthest.
func (m RadarMap) FindSafeTarget(location geometry.Vec2, escapeDir geometry.Angle, safeDistance, maxDistance float64) (MapCell, bool) {
	boundary := escapeDir.Sub(geometry.FromDeg(90))
	half := geometry.Leaf(geometry.RightHalfPlane(location, boundary))
	return m.findTarget(location, maxDistance, safeDistance, &half, true)
}

func (m RadarMap) findTarget(location geometry.Vec2, maxDistance, safeDistance float64, restrict *geometry.BoolPredicate, nearest bool) (MapCell, bool) {
	type candidate struct {
		cell MapCell
		dist float64
	}
	var unknowns, empties []candidate
	for _, c := range m.Cells {
		d := geometry.NormVec(geometry.SubVec(c.Location, location))
		if d <= safeDistance || d > maxDistance {
			continue
		}
		if restrict != nil && !restrict.Satisfies(c.Location) {
			continue
		}
		if c.Hindered() {
			continue
		}
		if !m.FreeTrajectory(location, c.Location, m.tubeClearance(safeDistance)) {
			continue
		}
		if c.Unknown() {
			unknowns = append(unknowns, candidate{c, d})
		} else if c.Empty() {
			empties = append(empties, candidate{c, d})
		}
	}
	pick := func(cands []candidate) (MapCell, bool) {
		if len(cands) == 0 {
			return MapCell{}, false
		}
		sort.Slice(cands, func(i, j int) bool {
			if nearest {
				return cands[i].dist < cands[j].dist
			}
			return cands[i].dist > cands[j].dist
		})
		return cands[0].cell, true
	}
	if cell, ok := pick(unknowns); ok {
		return cell, true
	}
	return pick(empties)
}

// tubeClearance widens a raw safeDistance by g*sqrt(2), the diagonal of one
// grid cell, so a trajectory finder rejects cells a straight-line check
// alone would let graze the corner of a hindered cell.
func (m RadarMap) tubeClearance(safeDistance float64) float64 {
	return safeDistance + m.Topology.GridSize*math.Sqrt2
}

// FreeTrajectory reports whether a straight segment from "from" to "to",
// widened by safeDistance on either side and extended by safeDistance past
// "to", clears every hindered cell. The forward bound excludes the
// safeDistance-radius disc around "from" itself, so a hindered cell close
// behind the starting point does not block the trajectory.
func (m RadarMap) FreeTrajectory(from, to geometry.Vec2, safeDistance float64) bool {
	length := geometry.NormVec(geometry.SubVec(to, from))
	direction := geometry.FromVec(geometry.SubVec(to, from))
	for _, c := range m.Cells {
		if !c.Hindered() {
			continue
		}
		projections := geometry.LineSquareProjections(from, direction, c.Location, m.Topology.GridSize)
		for _, proj := range projections {
			if absF(proj.Right) <= safeDistance && proj.Forward >= safeDistance && proj.Forward <= length+safeDistance {
				return false
			}
		}
		for _, forward := range geometry.CrossesAxis(projections) {
			if forward >= safeDistance && forward <= length+safeDistance {
				return false
			}
		}
	}
	return true
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
