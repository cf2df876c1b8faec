package replay

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"wheelly/control/internal/geometry"
	"wheelly/control/internal/markers"
	"wheelly/control/internal/messages"
	"wheelly/control/internal/radarmap"
	"wheelly/control/internal/worldmodel"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestWriterLoaderRoundTrip(t *testing.T) {
	dir := t.TempDir()

	header := Header{
		RobotSpec: messages.RobotSpec{MaxRadarDistance: 3, RobotRadius: 0.15, MaxPPS: 60},
		Topology:  radarmap.GridTopology{Center: geometry.Vec2{}, Width: 11, Height: 11, GridSize: 0.2},
	}

	w, err := NewWriter(dir, "session", header, fixedClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	wm := worldmodel.WorldModel{
		RobotStatus: messages.RobotStatus{
			SimulationTime: 1000,
			Motion:         messages.Motion{SimTime: 1000, XPulses: 5, YPulses: -2, DirectionDeg: 30},
			Camera:         messages.Camera{SimTime: 1000, QRCode: "A12", Points: []messages.CameraPoint{{X: 1, Y: 2}}},
		},
		Markers: map[string]markers.LabelMarker{
			"A12": {Label: "A12", Location: geometry.Vec2{X: 1, Y: 2}, Weight: 4, MarkerTime: 1000, CleanTime: 0},
		},
	}
	if err := w.AppendWorldModel(wm); err != nil {
		t.Fatalf("AppendWorldModel: %v", err)
	}
	cmd := RobotCommand{SimTime: 1010, Kind: "move", Direction: 15, Speed: 30}
	if err := w.AppendCommand(cmd); err != nil {
		t.Fatalf("AppendCommand: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	loaded, err := Load(w.Path())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if diff := cmp.Diff(header.RobotSpec, loaded.Header.RobotSpec); diff != "" {
		t.Fatalf("RobotSpec round trip mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(header.Topology, loaded.Header.Topology); diff != "" {
		t.Fatalf("Topology round trip mismatch (-want +got):\n%s", diff)
	}
	if len(loaded.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(loaded.Records))
	}

	first := loaded.Records[0]
	if !first.IsWorldModel() {
		t.Fatalf("expected first record to be a world model")
	}
	if first.WorldModel.RobotStatus.Motion.XPulses != 5 {
		t.Fatalf("expected XPulses round trip, got %d", first.WorldModel.RobotStatus.Motion.XPulses)
	}
	if first.WorldModel.RobotStatus.Camera.QRCode != "A12" {
		t.Fatalf("expected QR code round trip, got %q", first.WorldModel.RobotStatus.Camera.QRCode)
	}
	marker, ok := first.WorldModel.Markers["A12"]
	if !ok || marker.Weight != 4 {
		t.Fatalf("expected marker round trip, got %+v (ok=%v)", marker, ok)
	}

	second := loaded.Records[1]
	if !second.IsCommand() {
		t.Fatalf("expected second record to be a command")
	}
	if second.Command.Kind != "move" || second.Command.Speed != 30 {
		t.Fatalf("expected command round trip, got %+v", second.Command)
	}
}

func TestLoaderAcceptsHeaderOnlyFile(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, "bad", Header{}, fixedClock(time.Unix(0, 0)))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := Load(w.Path()); err != nil {
		t.Fatalf("Load of header-only file should succeed, got %v", err)
	}
}
