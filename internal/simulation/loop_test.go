package simulation

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoopRunsAtLeastTargetTicks(t *testing.T) {
	var ticks int32
	loop := NewLoop(60, 1, nil, func(time.Duration) {
		atomic.AddInt32(&ticks, 1)
	})
	ctx, cancel := context.WithCancel(context.Background())
	loop.Start(ctx)
	time.Sleep(55 * time.Millisecond)
	cancel()
	loop.Stop()
	if atomic.LoadInt32(&ticks) == 0 {
		t.Fatalf("expected loop to tick at least once")
	}
}

func TestLoopStepDuration(t *testing.T) {
	loop := NewLoop(120, 1, nil, func(time.Duration) {})
	step := loop.StepDuration()
	expected := time.Second / 120
	if step != expected {
		t.Fatalf("unexpected step duration %v", step)
	}
}

func TestLoopSimulationSpeedScalesWallInterval(t *testing.T) {
	loop := NewLoop(60, 2, nil, func(time.Duration) {})
	if loop.StepDuration() != time.Second/60 {
		t.Fatalf("simulated step must stay fixed regardless of speed, got %v", loop.StepDuration())
	}
	if loop.WallInterval() != (time.Second/60)/2 {
		t.Fatalf("wall interval must halve at 2x simulation speed, got %v", loop.WallInterval())
	}
}

func TestLoopDefaultsInvalidSpeedToOne(t *testing.T) {
	loop := NewLoop(60, 0, nil, func(time.Duration) {})
	if loop.WallInterval() != loop.StepDuration() {
		t.Fatalf("zero simulation speed must fall back to 1x, wall=%v step=%v", loop.WallInterval(), loop.StepDuration())
	}
}

func TestLoopObservesTickDurationOnMonitor(t *testing.T) {
	monitor := NewTickMonitor()
	done := make(chan struct{})
	loop := NewLoop(200, 1, monitor, func(time.Duration) {
		close(done)
	})
	ctx, cancel := context.WithCancel(context.Background())
	loop.Start(ctx)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop never ticked")
	}
	cancel()
	loop.Stop()
	if monitor.Snapshot().Samples == 0 {
		t.Fatalf("expected monitor to observe at least one tick")
	}
}
