package simulation

import (
	"context"
	"time"
)

// RobotStepFunc advances the simulated robot's rigid body by a fixed
// timestep. step is already scaled by the loop's simulation speed, so the
// callee (simrobot.Robot.Tick) never needs to know a speed factor is in
// play.
type RobotStepFunc func(step time.Duration)

// Loop drives the simulated robot at a fixed timestep, independent of
// wall-clock time: a SimulationSpeed above 1 compresses more simulated
// motion into each wall-clock tick, letting a scripted scenario (C6) run
// faster than real time without changing the physics step size itself.
type Loop struct {
	wallInterval time.Duration
	simStep      time.Duration
	stepFunc     RobotStepFunc
	monitor      *TickMonitor
	ticker       *time.Ticker
	done         chan struct{}
}

// NewLoop configures a loop that ticks the robot at targetHz simulated
// frames per second, scaled by simSpeed (1 = real time, 2 = twice as fast).
// monitor, if non-nil, records the wall-clock time each step call takes,
// and counts the extra steps run to catch up within one tick as overruns,
// so a diagnostic consumer (internal/statusapi) can report them.
func NewLoop(targetHz, simSpeed float64, monitor *TickMonitor, step RobotStepFunc) *Loop {
	if targetHz <= 0 {
		targetHz = 60
	}
	if simSpeed <= 0 {
		simSpeed = 1
	}
	if step == nil {
		step = func(time.Duration) {}
	}
	simStep := time.Duration(float64(time.Second) / targetHz)
	if simStep <= 0 {
		simStep = time.Second / 60
	}
	wallInterval := time.Duration(float64(simStep) / simSpeed)
	if wallInterval <= 0 {
		wallInterval = time.Millisecond
	}
	return &Loop{
		wallInterval: wallInterval,
		simStep:      simStep,
		stepFunc:     step,
		monitor:      monitor,
	}
}

// Start begins ticking until the context is cancelled or Stop is invoked.
func (l *Loop) Start(ctx context.Context) {
	if l == nil || l.stepFunc == nil {
		return
	}

	l.ticker = time.NewTicker(l.wallInterval)
	l.done = make(chan struct{})
	go func() {
		defer close(l.done)
		defer l.ticker.Stop()
		last := time.Now()
		accumulator := time.Duration(0)
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-l.ticker.C:
				//1.- Accumulate elapsed wall-clock time and run fixed simulated
				//    steps while catching up, each wrapped for tick-duration metrics.
				accumulator += now.Sub(last)
				last = now
				caughtUp := false
				for accumulator >= l.wallInterval {
					if caughtUp {
						l.monitor.ObserveOverrun()
					}
					start := time.Now()
					l.stepFunc(l.simStep)
					l.monitor.Observe(time.Since(start))
					accumulator -= l.wallInterval
					caughtUp = true
				}
			}
		}
	}()
}

// Stop cancels the loop and waits for the goroutine to exit.
func (l *Loop) Stop() {
	if l == nil {
		return
	}
	if l.ticker != nil {
		l.ticker.Stop()
	}
	if l.done != nil {
		<-l.done
		l.done = nil
	}
}

// StepDuration exposes the simulated (not wall-clock) timestep for testing.
func (l *Loop) StepDuration() time.Duration {
	if l == nil {
		return 0
	}
	return l.simStep
}

// WallInterval exposes the wall-clock tick period, already scaled by
// SimulationSpeed, for testing.
func (l *Loop) WallInterval() time.Duration {
	if l == nil {
		return 0
	}
	return l.wallInterval
}
