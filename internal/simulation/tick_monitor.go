package simulation

import (
	"sync"
	"time"
)

// TickMetricsSnapshot summarises the simulated robot's tick timing, as
// reported by internal/statusapi's /healthz endpoint.
type TickMetricsSnapshot struct {
	Samples  int
	Average  time.Duration
	Max      time.Duration
	Last     time.Duration
	Overruns int
}

// AverageFPS derives the frames-per-second equivalent of the average
// measured step duration — the rate the step function could sustain at
// its measured cost, as opposed to the target rate NewLoop was configured
// with.
func (s TickMetricsSnapshot) AverageFPS() float64 {
	if s.Average <= 0 {
		return 0
	}
	return float64(time.Second) / float64(s.Average)
}

// TickMonitor accumulates timing statistics for the simulated robot's
// Loop. A nil *TickMonitor is valid everywhere in this file: buildRobot
// only constructs one for the simulated robot, never the wire-driven one,
// so every method degrades to a no-op/zero-value when the robot in use
// has no loop to instrument.
type TickMonitor struct {
	mu       sync.Mutex
	samples  int
	total    time.Duration
	max      time.Duration
	last     time.Duration
	overruns int
}

// NewTickMonitor constructs an empty monitor ready to collect samples.
func NewTickMonitor() *TickMonitor {
	return &TickMonitor{}
}

// Observe records the wall-clock duration a single Tick call actually took.
// overrunThreshold, if a caller wants one, belongs to the step duration
// comparison done by Loop, not here — this just tallies what happened.
func (m *TickMonitor) Observe(duration time.Duration) {
	if m == nil || duration <= 0 {
		return
	}
	m.mu.Lock()
	m.samples++
	m.total += duration
	if duration > m.max {
		m.max = duration
	}
	m.last = duration
	m.mu.Unlock()
}

// ObserveOverrun records that one physics step took longer than the
// configured step duration, meaning Loop's accumulator is falling behind
// real time for this tick.
func (m *TickMonitor) ObserveOverrun() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.overruns++
	m.mu.Unlock()
}

// Snapshot returns a copy of the aggregated tick statistics.
func (m *TickMonitor) Snapshot() TickMetricsSnapshot {
	if m == nil {
		return TickMetricsSnapshot{}
	}
	m.mu.Lock()
	samples := m.samples
	total := m.total
	max := m.max
	last := m.last
	overruns := m.overruns
	m.mu.Unlock()

	average := time.Duration(0)
	if samples > 0 {
		average = total / time.Duration(samples)
	}
	return TickMetricsSnapshot{Samples: samples, Average: average, Max: max, Last: last, Overruns: overruns}
}

// Reset clears the accumulated statistics, used when a fresh simulated run
// begins and stale timing from a previous one would otherwise skew the
// first snapshot reported.
func (m *TickMonitor) Reset() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.samples = 0
	m.total = 0
	m.max = 0
	m.last = 0
	m.overruns = 0
	m.mu.Unlock()
}
