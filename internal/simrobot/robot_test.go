package simrobot

import (
	"testing"

	"wheelly/control/internal/geometry"
	"wheelly/control/internal/messages"
)

func testParams() Params {
	return Params{
		Spec: messages.RobotSpec{
			MaxRadarDistance: 5,
			RobotRadius:      0.1,
			MaxPPS:           100,
			WheelDiameter:    0.03,
			PulsesPerRevolution: 100,
		},
		MaxAngularSpeed:   90,
		SafeDistance:      0.3,
		ObstacleSize:      0.3,
		StalemateInterval: 1000,
		MotionInterval:    100,
		ProxyInterval:     100,
		CameraInterval:    100,
		Seed:              1,
		Arena:             Arena{HalfSize: 5},
	}
}

func TestNewRobotStartsFacingForwardAndClear(t *testing.T) {
	r := New(testParams())
	if r.IsHalt() {
		t.Fatal("a freshly constructed robot must not start halted")
	}
	if !r.frontClear || !r.rearClear {
		t.Fatal("a freshly constructed robot must start with both bumpers clear")
	}
}

func TestMoveAndHalt(t *testing.T) {
	r := New(testParams())
	r.Move(geometry.FromDeg(45), 10)
	if r.IsHalt() {
		t.Fatal("Move must clear any prior halt")
	}
	r.Halt()
	if !r.IsHalt() {
		t.Fatal("Halt must set the halted flag")
	}
}

func TestTickMovesRobotForward(t *testing.T) {
	r := New(testParams())
	r.Move(geometry.FromDeg(0), 50)
	before := r.position
	for i := 0; i < 50; i++ {
		r.Tick(10)
	}
	if r.position == before {
		t.Fatal("repeated ticks with a forward command should move the robot")
	}
	if r.position.Y <= before.Y {
		t.Fatalf("moving forward (heading 0) should increase Y, went from %+v to %+v", before, r.position)
	}
}

func TestTickHaltedRobotDoesNotAccelerate(t *testing.T) {
	r := New(testParams())
	r.Halt()
	r.Tick(100)
	if r.leftPPS != 0 || r.rightPPS != 0 {
		t.Fatalf("a halted robot must drive both wheels at zero PPS, got left=%v right=%v", r.leftPPS, r.rightPPS)
	}
}

func TestTickHaltsOnFrontCollision(t *testing.T) {
	params := testParams()
	params.Arena.Obstacles = []Obstacle{{Center: geometry.Vec2{X: 0, Y: 0.3}, Size: 0.2}}
	r := New(params)
	r.Move(geometry.FromDeg(0), 50)
	for i := 0; i < 5; i++ {
		r.Tick(10)
	}
	if !r.halted {
		t.Fatal("driving forward into an obstacle directly ahead must halt the robot")
	}
}

func TestTickEmitsMotionOnSchedule(t *testing.T) {
	r := New(testParams())
	ch := r.Motion()
	r.Tick(150) // exceeds the 100ms MotionInterval
	select {
	case <-ch:
	default:
		t.Fatal("a tick that crosses MotionInterval should publish a motion message")
	}
}

func TestPulsesAtRoundTripsThroughDistancePerPulse(t *testing.T) {
	r := New(testParams())
	x, y := r.pulsesAt(geometry.Vec2{X: 0.03, Y: -0.03})
	perPulse := r.params.Spec.DistancePerPulse()
	if perPulse == 0 {
		t.Fatal("setup: expected a non-zero DistancePerPulse")
	}
	if x != int64(0.03/perPulse+0.5) && x != int64(0.03/perPulse) {
		t.Fatalf("pulsesAt X = %d, did not round to the expected pulse count", x)
	}
	_ = y
}

func TestRngSourceIsDeterministic(t *testing.T) {
	a := rngSource(7)
	b := rngSource(7)
	for i := 0; i < 10; i++ {
		if a.Uint64() != b.Uint64() {
			t.Fatal("two rngSourceT instances with the same seed must produce identical sequences")
		}
	}
}

func TestRngSourceZeroSeedFallsBackToOne(t *testing.T) {
	a := rngSource(0)
	b := rngSource(1)
	if a.Uint64() != b.Uint64() {
		t.Fatal("a zero seed must be treated the same as seed 1")
	}
}

func TestClip(t *testing.T) {
	if got := clip(5, 0, 10); got != 5 {
		t.Fatalf("clip(5,0,10) = %v, want 5", got)
	}
	if got := clip(-5, 0, 10); got != 0 {
		t.Fatalf("clip(-5,0,10) = %v, want 0", got)
	}
	if got := clip(15, 0, 10); got != 10 {
		t.Fatalf("clip(15,0,10) = %v, want 10", got)
	}
}

func TestLinearMap(t *testing.T) {
	if got := linearMap(5, 0, 10, 0, 100); got != 50 {
		t.Fatalf("linearMap(5,0,10,0,100) = %v, want 50", got)
	}
	if got := linearMap(5, 10, 10, 0, 100); got != 0 {
		t.Fatalf("linearMap with a degenerate input range should fall back to outLo, got %v", got)
	}
}
