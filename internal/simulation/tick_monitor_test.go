package simulation

import (
	"testing"
	"time"
)

func TestTickMonitorAccumulatesSamples(t *testing.T) {
	m := NewTickMonitor()
	m.Observe(10 * time.Millisecond)
	m.Observe(30 * time.Millisecond)
	snap := m.Snapshot()
	if snap.Samples != 2 {
		t.Fatalf("expected 2 samples, got %d", snap.Samples)
	}
	if snap.Average != 20*time.Millisecond {
		t.Fatalf("expected average 20ms, got %v", snap.Average)
	}
	if snap.Max != 30*time.Millisecond {
		t.Fatalf("expected max 30ms, got %v", snap.Max)
	}
	if snap.Last != 30*time.Millisecond {
		t.Fatalf("expected last 30ms, got %v", snap.Last)
	}
}

func TestTickMonitorAverageFPS(t *testing.T) {
	m := NewTickMonitor()
	m.Observe(20 * time.Millisecond)
	if fps := m.Snapshot().AverageFPS(); fps != 50 {
		t.Fatalf("expected 50fps from a 20ms tick, got %v", fps)
	}
}

func TestTickMonitorObserveOverrun(t *testing.T) {
	m := NewTickMonitor()
	m.ObserveOverrun()
	m.ObserveOverrun()
	if got := m.Snapshot().Overruns; got != 2 {
		t.Fatalf("expected 2 overruns, got %d", got)
	}
}

func TestTickMonitorReset(t *testing.T) {
	m := NewTickMonitor()
	m.Observe(10 * time.Millisecond)
	m.ObserveOverrun()
	m.Reset()
	snap := m.Snapshot()
	if snap.Samples != 0 || snap.Overruns != 0 || snap.Average != 0 {
		t.Fatalf("expected zeroed snapshot after reset, got %+v", snap)
	}
}

func TestTickMonitorNilIsNoOp(t *testing.T) {
	var m *TickMonitor
	m.Observe(time.Millisecond)
	m.ObserveOverrun()
	m.Reset()
	if snap := m.Snapshot(); snap != (TickMetricsSnapshot{}) {
		t.Fatalf("expected zero snapshot from nil monitor, got %+v", snap)
	}
}

func TestTickMonitorIgnoresNonPositiveDuration(t *testing.T) {
	m := NewTickMonitor()
	m.Observe(0)
	m.Observe(-time.Millisecond)
	if snap := m.Snapshot(); snap.Samples != 0 {
		t.Fatalf("expected non-positive durations to be ignored, got %+v", snap)
	}
}
