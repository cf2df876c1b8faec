package radarmap

import (
	"testing"

	"wheelly/control/internal/geometry"
)

func testTopology() GridTopology {
	return GridTopology{Center: geometry.Vec2{}, Width: 11, Height: 11, GridSize: 1}
}

func withHinderedCellAt(m RadarMap, at geometry.Vec2) RadarMap {
	idx, ok := m.Topology.IndexOf(at)
	if !ok {
		panic("test cell outside topology")
	}
	return m.MapSelected([]int{idx}, func(c MapCell) MapCell {
		c.EchoWeight = 0.8
		return c
	})
}

func TestEmptyRadarMapAllUnknown(t *testing.T) {
	m := Empty(testTopology())
	if m.NumCells() != testTopology().NumCells() {
		t.Fatalf("NumCells() = %d, want %d", m.NumCells(), testTopology().NumCells())
	}
	for i := 0; i < m.NumCells(); i++ {
		if !m.Cell(i).Unknown() {
			t.Fatalf("cell %d of a fresh map should be unknown: %+v", i, m.Cell(i))
		}
	}
}

func TestCleanExpiredZeroesOldEvidence(t *testing.T) {
	m := Empty(testTopology())
	m = withHinderedCellAt(m, geometry.Vec2{X: 0, Y: 0})
	idx, _ := m.Topology.IndexOf(geometry.Vec2{X: 0, Y: 0})
	m.Cells[idx].EchoTime = 100

	next := m.CleanExpired(1000, 200, 200)
	if next.Cell(idx).EchoWeight != 0 {
		t.Fatalf("echo evidence older than echoPersistence should be cleared, got %+v", next.Cell(idx))
	}
	if next.CleanTimestamp != 1000 {
		t.Fatalf("CleanTimestamp = %d, want 1000", next.CleanTimestamp)
	}
}

func TestSetContactsAtFrontOnly(t *testing.T) {
	m := Empty(testTopology())
	next := m.SetContactsAt(geometry.Vec2{X: 0, Y: 0}, geometry.FromDeg(0), true, false, 2, 42)

	front, ok := next.CellAt(geometry.Vec2{X: 0, Y: 1})
	if !ok || front.ContactTime != 42 {
		t.Fatalf("cell ahead of the contact should be marked, got %+v ok=%v", front, ok)
	}
	rear, ok := next.CellAt(geometry.Vec2{X: 0, Y: -1})
	if !ok || rear.ContactTime != 0 {
		t.Fatalf("cell behind a front-only contact should be untouched, got %+v ok=%v", rear, ok)
	}
}

func TestFreeTrajectoryClearPath(t *testing.T) {
	m := Empty(testTopology())
	if !m.FreeTrajectory(geometry.Vec2{X: 0, Y: 0}, geometry.Vec2{X: 0, Y: 5}, 0.4) {
		t.Fatal("an obstacle-free grid must report a free trajectory")
	}
}

func TestFreeTrajectoryBlockedAhead(t *testing.T) {
	m := Empty(testTopology())
	m = withHinderedCellAt(m, geometry.Vec2{X: 0, Y: 3})
	if m.FreeTrajectory(geometry.Vec2{X: 0, Y: 0}, geometry.Vec2{X: 0, Y: 5}, 0.4) {
		t.Fatal("a hindered cell straddling the trajectory must block it")
	}
}

// TestFreeTrajectoryIgnoresCellBehindStart pins down the forward-bound fix:
// a hindered cell whose far corner creeps just short of "from" along the
// trajectory axis (Forward in (-safeDistance, safeDistance)) must not block
// the trajectory. The old bound, "Forward >= -safeDistance", would have
// wrongly let this corner count as ahead of the start and blocked the path;
// the corrected bound requires Forward >= safeDistance.
func TestFreeTrajectoryIgnoresCellBehindStart(t *testing.T) {
	m := Empty(GridTopology{Center: geometry.Vec2{}, Width: 21, Height: 21, GridSize: 0.2})
	m = withHinderedCellAt(m, geometry.Vec2{X: 0, Y: -0.2})
	if !m.FreeTrajectory(geometry.Vec2{X: 0, Y: 0}, geometry.Vec2{X: 0, Y: 5}, 0.4) {
		t.Fatal("a hindered cell whose corner only grazes the start must not block the trajectory")
	}
}

func TestFreeTrajectoryBlockedPastEndpointWithinClearance(t *testing.T) {
	m := Empty(testTopology())
	m = withHinderedCellAt(m, geometry.Vec2{X: 0, Y: 5})
	if m.FreeTrajectory(geometry.Vec2{X: 0, Y: 0}, geometry.Vec2{X: 0, Y: 5}, 0.4) {
		t.Fatal("a hindered cell at the endpoint must block the trajectory")
	}
}

func TestTubeClearanceWidensBySqrt2TimesGrid(t *testing.T) {
	m := Empty(GridTopology{Width: 5, Height: 5, GridSize: 2})
	got := m.tubeClearance(1)
	want := 1 + 2*1.4142135623730951
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("tubeClearance(1) = %v, want %v", got, want)
	}
}

func TestFindTargetPrefersUnknownOverEmpty(t *testing.T) {
	m := Empty(testTopology())
	near, ok := m.Topology.IndexOf(geometry.Vec2{X: 0, Y: 1})
	if !ok {
		t.Fatal("setup: near cell outside topology")
	}
	m.Cells[near].EchoWeight = -0.5 // mark empty, not unknown

	cell, ok := m.FindTarget(geometry.Vec2{X: 0, Y: 0}, 5, 0.1)
	if !ok {
		t.Fatal("FindTarget should find a candidate in an open grid")
	}
	if !cell.Unknown() {
		t.Fatalf("FindTarget must prefer an unknown cell over an empty one, got %+v", cell)
	}
}

func TestFindTargetExcludesHinderedTrajectory(t *testing.T) {
	m := Empty(testTopology())
	// Wall off every cell directly ahead at y=2 so no straight trajectory
	// north of the robot is free; the cells south of it stay reachable.
	for x := -5; x <= 5; x++ {
		m = withHinderedCellAt(m, geometry.Vec2{X: float64(x), Y: 2})
	}
	cell, ok := m.FindTarget(geometry.Vec2{X: 0, Y: 0}, 5, 0.1)
	if !ok {
		t.Fatal("FindTarget should still find a candidate on the open side of the wall")
	}
	if cell.Location.Y >= 2 {
		t.Fatalf("FindTarget must not return a cell behind a hindered wall, got %+v", cell)
	}
}

func TestFindSafeTargetRestrictsToEscapeHalfPlane(t *testing.T) {
	m := Empty(testTopology())
	cell, ok := m.FindSafeTarget(geometry.Vec2{X: 0, Y: 0}, geometry.FromDeg(0), 0.1, 5)
	if !ok {
		t.Fatal("FindSafeTarget should find a candidate in an open grid")
	}
	// escapeDir-90deg boundary with escapeDir=0 puts the eligible half-plane
	// ahead of the robot (Y >= 0), on the escape side: verify the result obeys it.
	boundary := geometry.FromDeg(0).Sub(geometry.FromDeg(90))
	half := geometry.Leaf(geometry.RightHalfPlane(geometry.Vec2{}, boundary))
	if !half.Satisfies(cell.Location) {
		t.Fatalf("FindSafeTarget returned a cell outside its restricted half-plane: %+v", cell)
	}
}
