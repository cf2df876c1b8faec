// Package simrobot implements the deterministic simulated robot (C6): a
// 2-D rigid-body simulation that emits the same four message streams as
// the real microcontroller, so the controller (C8) can drive either
// interchangeably behind the shared Robot contract.
package simrobot

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat/distuv"

	"wheelly/control/internal/geometry"
	"wheelly/control/internal/messages"
	"wheelly/control/internal/streams"
)

// Obstacle is an axis-aligned square obstacle in the simulated arena.
type Obstacle struct {
	Center geometry.Vec2
	Size   float64
}

// Params bundles the tuning constants for the rigid-body simulation.
type Params struct {
	Spec             messages.RobotSpec
	MaxAngularSpeed  float64 // deg/s
	SafeDistance     float64
	ObstacleSize     float64
	StalemateInterval int64 // ms
	ErrSigma         float64 // torque noise stddev
	ErrSensor        float64 // force/sensor noise stddev
	MotionInterval   int64
	ProxyInterval    int64
	CameraInterval   int64
	Seed             uint64
	Arena            Arena
}

// Arena bounds the free cells available for a stalemate teleport.
type Arena struct {
	Obstacles []Obstacle
	HalfSize  float64
}

// Robot is the deterministic simulated substitute for the real
// microcontroller, implementing the same contract C7 exposes.
type Robot struct {
	mu sync.Mutex

	params Params
	noise  *distuv.Normal

	simTimeMs int64

	position    geometry.Vec2
	velocity    geometry.Vec2
	heading     geometry.Angle
	leftPPS     float64
	rightPPS    float64
	halted      bool

	desiredDir   geometry.Angle
	desiredSpeed float64
	scanDir      geometry.Angle

	frontClear bool
	rearClear  bool
	echoAlarm  bool

	stalemateSince int64

	motionTimeout int64
	proxyTimeout  int64
	cameraTimeout int64

	motionStream   *streams.Stream[messages.Motion]
	proxyStream    *streams.Stream[messages.Proxy]
	contactsStream *streams.Stream[messages.Contacts]
	cameraStream   *streams.Stream[messages.Camera]
}

// New constructs a Robot at the origin, facing forward, bumpers clear.
func New(params Params) *Robot {
	src := rngSource(params.Seed)
	return &Robot{
		params:         params,
		noise:          &distuv.Normal{Mu: 0, Sigma: 1, Src: src},
		heading:        geometry.FromDeg(0),
		frontClear:     true,
		rearClear:      true,
		motionStream:   streams.New[messages.Motion](),
		proxyStream:    streams.New[messages.Proxy](),
		contactsStream: streams.New[messages.Contacts](),
		cameraStream:   streams.New[messages.Camera](),
	}
}

// Connect is a no-op for the simulated robot: there is no socket to dial.
func (r *Robot) Connect() error { return nil }

// Configure emits synthetic motion, proxy and contact messages immediately,
// on connect, before any command has been issued.
func (r *Robot) Configure() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emitMotionLocked()
	r.emitProxyLocked()
	r.emitContactsLocked()
	return nil
}

// Halt forces the robot to stop moving.
func (r *Robot) Halt() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.halted = true
	r.desiredSpeed = 0
}

// Move sets the desired (direction, speed) command.
func (r *Robot) Move(direction geometry.Angle, speed float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.halted = false
	r.desiredDir = direction
	r.desiredSpeed = speed
}

// Scan points the sensor head toward direction.
func (r *Robot) Scan(direction geometry.Angle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scanDir = direction
}

// IsHalt reports whether the robot is currently halted.
func (r *Robot) IsHalt() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.halted
}

// SimulationTime returns the robot's current simulated clock, in ms.
func (r *Robot) SimulationTime() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.simTimeMs
}

// RobotSpec returns the robot's physical-constants record.
func (r *Robot) RobotSpec() messages.RobotSpec { return r.params.Spec }

// Close releases resources; the simulated robot holds none but implements
// the contract symmetrically with the real driver.
func (r *Robot) Close() error { return nil }

// Motion exposes the motion message stream.
func (r *Robot) Motion() <-chan messages.Motion { return r.motionStream.Subscribe(16) }

// Proxy exposes the proxy message stream.
func (r *Robot) Proxy() <-chan messages.Proxy { return r.proxyStream.Subscribe(16) }

// Contacts exposes the contacts message stream.
func (r *Robot) Contacts() <-chan messages.Contacts { return r.contactsStream.Subscribe(16) }

// Camera exposes the camera message stream; the simulated robot never
// recognises a marker on its own (no camera rig to simulate), so it only
// ever emits the UnknownQRCode sentinel on its own schedule.
func (r *Robot) Camera() <-chan messages.Camera { return r.cameraStream.Subscribe(16) }

func rngSource(seed uint64) *rngSourceT {
	if seed == 0 {
		seed = 1
	}
	return &rngSourceT{state: seed}
}

// rngSourceT is a tiny deterministic PRNG (splitmix64) satisfying gonum's
// rand.Source interface, so simulation runs are fully reproducible given a
// seed without reaching into math/rand's global state.
type rngSourceT struct{ state uint64 }

func (s *rngSourceT) Uint64() uint64 {
	s.state += 0x9E3779B97f4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

func (s *rngSourceT) Seed(seed uint64) { s.state = seed }

var _ interface{ Uint64() uint64 } = (*rngSourceT)(nil)

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func linearMap(x, inLo, inHi, outLo, outHi float64) float64 {
	if inHi == inLo {
		return outLo
	}
	t := (x - inLo) / (inHi - inLo)
	return outLo + t*(outHi-outLo)
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }
