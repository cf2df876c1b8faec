package simrobot

import (
	"math"

	"wheelly/control/internal/geometry"
	"wheelly/control/internal/messages"
)

const (
	wheelTrack = 0.08 // metres between the two drive wheels
	wheelRadiusM = 0.015
)

// Tick advances the simulation by dtMs milliseconds of simulated time. The
// caller (typically internal/simulation.Loop) drives this at the robot's
// internal step rate, set far above the message
// emission rates so the control law sees an effectively continuous motion.
func (r *Robot) Tick(dtMs int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.simTimeMs += dtMs
	dt := float64(dtMs) / 1000.0

	r.applyControlLawLocked()
	r.integrateLocked(dt)
	r.checkCollisionsLocked()
	r.checkStalemateLocked(dtMs)
	r.maybeEmitLocked(dtMs)
}

// applyControlLawLocked derives differential wheel speeds from the desired
// (direction, speed) command: the robot turns toward the
// commanded direction before committing to forward speed, and commits fully
// once nearly aligned.
func (r *Robot) applyControlLawLocked() {
	if r.halted {
		r.leftPPS, r.rightPPS = 0, 0
		return
	}

	dTheta := r.desiredDir.Sub(r.heading).ToIntDeg()

	maxOmega := r.params.MaxAngularSpeed
	angularCmd := clip(linearMap(float64(dTheta), -10, 10, -maxOmega, maxOmega), -maxOmega, maxOmega)

	absTheta := math.Abs(float64(dTheta))
	speedFactor := clip(linearMap(absTheta, 0, 30, 1, 0), 0, 1)
	linearCmd := r.desiredSpeed * speedFactor

	maxPPS := r.params.Spec.MaxPPS
	r.leftPPS = clip(linearCmd-angularCmd, -maxPPS, maxPPS)
	r.rightPPS = clip(linearCmd+angularCmd, -maxPPS, maxPPS)
}

// integrateLocked performs one Euler step of the differential-drive rigid
// body, adding zero-mean Gaussian process noise to the wheel speeds so
// repeated identical commands within a run produce slightly different
// tracks; the noise source is seeded, so a run with the same seed repeats.
func (r *Robot) integrateLocked(dt float64) {
	leftNoisy := r.leftPPS + r.noise.Rand()*r.params.ErrSigma
	rightNoisy := r.rightPPS + r.noise.Rand()*r.params.ErrSigma

	linearSpeed := (leftNoisy + rightNoisy) / 2 * wheelRadiusM
	angularSpeed := (rightNoisy - leftNoisy) * wheelRadiusM / wheelTrack // rad/s

	headingRad := r.heading.ToRad() + angularSpeed*dt
	r.heading = geometry.FromRad(headingRad)

	r.velocity = geometry.Vec2{X: linearSpeed * r.heading.X, Y: linearSpeed * r.heading.Y}
	r.position = geometry.AddVec(r.position, geometry.ScaleVec(dt, r.velocity))
}

// checkCollisionsLocked derives the front/rear bumper contact flags from
// the nearest obstacle, and forces a halt on contact, matching the
// safety rule that the simulated robot cannot be driven through a wall.
func (r *Robot) checkCollisionsLocked() {
	front, rear := false, false
	radius := r.params.Spec.RobotRadius

	for _, obs := range r.params.Arena.Obstacles {
		delta := geometry.SubVec(obs.Center, r.position)
		dist := geometry.NormVec(delta)
		if dist > radius+obs.Size {
			continue
		}
		bearing := geometry.FromVec(delta).Sub(r.heading)
		if bearing.IsFront(0) {
			front = true
		}
		if bearing.IsRear(0) {
			rear = true
		}
	}

	r.frontClear = !front
	r.rearClear = !rear

	if front && r.leftPPS+r.rightPPS > 0 {
		r.halted = true
	}
	if rear && r.leftPPS+r.rightPPS < 0 {
		r.halted = true
	}
}

// checkStalemateLocked teleports the robot to a clear cell once it has sat
// halted against an obstacle for longer than StalemateInterval, per
// the stalemate-breaking rule (a real robot would need a human;
// the simulation instead relocates it so unattended test runs keep going).
func (r *Robot) checkStalemateLocked(dtMs int64) {
	stuck := r.halted && (!r.frontClear || !r.rearClear)
	if !stuck {
		r.stalemateSince = 0
		return
	}
	r.stalemateSince += dtMs
	if r.stalemateSince < r.params.StalemateInterval {
		return
	}
	r.teleportToClearCellLocked()
	r.stalemateSince = 0
	r.halted = false
}

func (r *Robot) teleportToClearCellLocked() {
	half := r.params.Arena.HalfSize
	if half <= 0 {
		half = 1
	}
	step := r.params.ObstacleSize
	if step <= 0 {
		step = 0.3
	}
	for y := -half; y <= half; y += step {
		for x := -half; x <= half; x += step {
			candidate := geometry.Vec2{X: x, Y: y}
			if r.clearOfObstaclesLocked(candidate) {
				r.position = candidate
				return
			}
		}
	}
}

func (r *Robot) clearOfObstaclesLocked(p geometry.Vec2) bool {
	radius := r.params.Spec.RobotRadius
	for _, obs := range r.params.Arena.Obstacles {
		if geometry.NormVec(geometry.SubVec(obs.Center, p)) <= radius+obs.Size {
			return false
		}
	}
	return true
}

// maybeEmitLocked publishes each message kind once its own interval has
// elapsed, independently, each stream on its own schedule.
func (r *Robot) maybeEmitLocked(dtMs int64) {
	r.motionTimeout -= dtMs
	if r.motionTimeout <= 0 {
		r.emitMotionLocked()
		r.motionTimeout = r.params.MotionInterval
	}

	r.proxyTimeout -= dtMs
	if r.proxyTimeout <= 0 {
		r.emitProxyLocked()
		r.proxyTimeout = r.params.ProxyInterval
	}

	r.cameraTimeout -= dtMs
	if r.cameraTimeout <= 0 {
		r.emitCameraLocked()
		r.cameraTimeout = r.params.CameraInterval
	}
}

// pulsesAt converts a simulated position into the same raw encoder pulse
// counts the real driver reads off the wire: position / DistancePerPulse,
// the inverse of internal/radar's pulsesToLocation. Rounding happens at
// encoder resolution (millimetres, typically), not at the metre, so the
// simulated robot's position keeps sub-cell precision against the radar
// grid instead of snapping to whole-metre cells.
func (r *Robot) pulsesAt(p geometry.Vec2) (x, y int64) {
	perPulse := r.params.Spec.DistancePerPulse()
	if perPulse == 0 {
		perPulse = 1
	}
	return int64(math.Round(p.X / perPulse)), int64(math.Round(p.Y / perPulse))
}

func (r *Robot) emitMotionLocked() {
	xPulses, yPulses := r.pulsesAt(r.position)
	r.motionStream.Publish(messages.Motion{
		SimTime:      r.simTimeMs,
		XPulses:      xPulses,
		YPulses:      yPulses,
		DirectionDeg: float64(r.heading.ToIntDeg()),
		LeftPPS:      r.leftPPS,
		RightPPS:     r.rightPPS,
		Halt:         r.halted,
		LeftTarget:   r.leftPPS,
		RightTarget:  r.rightPPS,
	})
}

func (r *Robot) emitProxyLocked() {
	dist := r.nearestObstacleDistanceLocked(r.scanDir)
	noisy := clip(dist+r.noise.Rand()*r.params.ErrSensor, 0, r.params.Spec.MaxRadarDistance)
	xPulses, yPulses := r.pulsesAt(r.position)
	r.proxyStream.Publish(messages.Proxy{
		SimTime:            r.simTimeMs,
		SensorDirectionDeg: float64(r.scanDir.ToIntDeg()),
		EchoDelayUs:        int64(noisy / messages.DistanceScale),
		XPulses:            xPulses,
		YPulses:            yPulses,
		YawDeg:             float64(r.heading.ToIntDeg()),
	})
}

func (r *Robot) emitContactsLocked() {
	r.contactsStream.Publish(messages.Contacts{
		SimTime:         r.simTimeMs,
		FrontSensor:     r.frontClear,
		RearSensor:      r.rearClear,
		CanMoveForward:  r.frontClear,
		CanMoveBackward: r.rearClear,
	})
}

func (r *Robot) emitCameraLocked() {
	r.cameraStream.Publish(messages.Camera{
		SimTime: r.simTimeMs,
		QRCode:  messages.UnknownQRCode,
	})
}

// nearestObstacleDistanceLocked returns the distance from the sensor head
// to the nearest obstacle along direction, or MaxRadarDistance if none is
// within range, used to synthesise the proxy reading.
func (r *Robot) nearestObstacleDistanceLocked(direction geometry.Angle) float64 {
	best := r.params.Spec.MaxRadarDistance
	head := geometry.AddVec(r.position, geometry.Vec2{X: r.params.Spec.HeadLocation.X, Y: r.params.Spec.HeadLocation.Y})

	for _, obs := range r.params.Arena.Obstacles {
		delta := geometry.SubVec(obs.Center, head)
		dist := geometry.NormVec(delta)
		if dist > best {
			continue
		}
		bearing := geometry.FromVec(delta).Sub(r.heading).Sub(direction)
		if math.Abs(float64(bearing.ToIntDeg())) > r.params.Spec.SensorReceptiveAngle {
			continue
		}
		if dist-obs.Size < best {
			best = math.Max(0, dist-obs.Size)
		}
	}
	return best
}
