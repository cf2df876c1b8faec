package radar

import (
	"testing"

	"wheelly/control/internal/geometry"
	"wheelly/control/internal/radarmap"
)

func TestUpdateCellEchoIncreasesWeight(t *testing.T) {
	cell := radarmap.MapCell{Location: geometry.Vec2{X: 0, Y: 2}}
	ping := Ping{
		Q:        geometry.Vec2{},
		Alpha:    geometry.FromDeg(0),
		Theta:    geometry.FromDeg(10),
		Distance: 2,
		MaxRange: 10,
		Time:     100,
		Echo:     true,
	}
	got := UpdateCell(cell, 1, ping, Params{Decay: 0})
	if got.EchoWeight <= 0 {
		t.Fatalf("an echo within range must push EchoWeight positive, got %+v", got)
	}
	if got.EchoTime != 100 {
		t.Fatalf("EchoTime should advance to the ping time, got %d", got.EchoTime)
	}
}

func TestUpdateCellNoEchoDecreasesWeight(t *testing.T) {
	cell := radarmap.MapCell{Location: geometry.Vec2{X: 0, Y: 2}}
	ping := Ping{
		Q:        geometry.Vec2{},
		Alpha:    geometry.FromDeg(0),
		Theta:    geometry.FromDeg(10),
		Distance: 0,
		MaxRange: 10,
		Time:     100,
		Echo:     false,
	}
	got := UpdateCell(cell, 1, ping, Params{Decay: 0})
	if got.EchoWeight >= 0 {
		t.Fatalf("a clear (no-echo) ping reaching the cell must push EchoWeight negative, got %+v", got)
	}
}

func TestUpdateCellOutOfConeUnchanged(t *testing.T) {
	cell := radarmap.MapCell{Location: geometry.Vec2{X: 10, Y: -10}}
	ping := Ping{
		Q:        geometry.Vec2{},
		Alpha:    geometry.FromDeg(0),
		Theta:    geometry.FromDeg(5),
		Distance: 2,
		MaxRange: 10,
		Time:     100,
		Echo:     true,
	}
	got := UpdateCell(cell, 1, ping, Params{})
	if got != cell {
		t.Fatalf("a cell outside the ping's cone must be returned unchanged, got %+v", got)
	}
}

func TestDecayUpdateExponentialDecayTowardZero(t *testing.T) {
	cell := radarmap.MapCell{EchoWeight: 1, EchoTime: 0}
	params := Params{Decay: 10, Smoothing: 0.5}
	got := decayUpdate(cell, 1000, params, true)
	if got.EchoWeight <= 0 || got.EchoWeight >= 1 {
		t.Fatalf("decay over a long interval should pull the weight away from its old extreme: %v", got.EchoWeight)
	}
}

func TestDecayUpdateClampsToUnitRange(t *testing.T) {
	cell := radarmap.MapCell{EchoWeight: 1, EchoTime: 0}
	params := Params{Decay: 0, Smoothing: 0.9}
	got := decayUpdate(cell, 1, params, true)
	if got.EchoWeight > 1 {
		t.Fatalf("EchoWeight must never exceed 1, got %v", got.EchoWeight)
	}
}

func TestUpdateMapAppliesToEveryCell(t *testing.T) {
	topo := radarmap.GridTopology{Width: 3, Height: 3, GridSize: 1}
	m := radarmap.Empty(topo)
	ping := Ping{
		Q:        geometry.Vec2{},
		Alpha:    geometry.FromDeg(0),
		Theta:    geometry.FromDeg(45),
		Distance: 1,
		MaxRange: 10,
		Time:     5,
		Echo:     true,
	}
	next := UpdateMap(m, ping, Params{})
	changed := false
	for i := 0; i < next.NumCells(); i++ {
		if next.Cell(i) != m.Cell(i) {
			changed = true
		}
	}
	if !changed {
		t.Fatal("UpdateMap should change at least one cell reachable by the ping's cone")
	}
}

func TestCleanRespectsInterval(t *testing.T) {
	topo := radarmap.GridTopology{Width: 2, Height: 2, GridSize: 1}
	m := radarmap.Empty(topo)
	m.Cells[0].EchoWeight = 0.5
	m.Cells[0].EchoTime = 0

	params := Params{CleanInterval: 1000, EchoPersistence: 10, ContactPersistence: 10}
	notDue := Clean(m, 500, params)
	if notDue.Cells[0].EchoWeight == 0 {
		t.Fatal("Clean must not touch the map before CleanInterval has elapsed")
	}

	due := Clean(m, 1000, params)
	if due.Cells[0].EchoWeight != 0 {
		t.Fatal("Clean must expire stale evidence once CleanInterval has elapsed")
	}
	if due.CleanTimestamp != 1000 {
		t.Fatalf("CleanTimestamp = %d, want 1000", due.CleanTimestamp)
	}
}
