package controller

import (
	"testing"
	"time"
)

func TestThrottleAllowsFirstCommand(t *testing.T) {
	th := NewThrottle(time.Second)
	if !th.Allow("move") {
		t.Fatal("the first command of a kind must always be allowed")
	}
}

func TestThrottleBlocksWithinInterval(t *testing.T) {
	th := NewThrottle(time.Second)
	now := time.Now()
	th.now = func() time.Time { return now }
	if !th.Allow("move") {
		t.Fatal("expected the first call to be allowed")
	}
	th.now = func() time.Time { return now.Add(500 * time.Millisecond) }
	if th.Allow("move") {
		t.Fatal("a command within minInterval of the last accepted one must be blocked")
	}
}

func TestThrottleAllowsAfterInterval(t *testing.T) {
	th := NewThrottle(time.Second)
	now := time.Now()
	th.now = func() time.Time { return now }
	th.Allow("move")
	th.now = func() time.Time { return now.Add(2 * time.Second) }
	if !th.Allow("move") {
		t.Fatal("a command past minInterval must be allowed")
	}
}

func TestThrottleKindsAreIndependent(t *testing.T) {
	th := NewThrottle(time.Second)
	now := time.Now()
	th.now = func() time.Time { return now }
	th.Allow("move")
	if !th.Allow("scan") {
		t.Fatal("a different command kind must not be blocked by another kind's throttle")
	}
}

func TestThrottleZeroIntervalAlwaysAllows(t *testing.T) {
	th := NewThrottle(0)
	if !th.Allow("move") || !th.Allow("move") {
		t.Fatal("a zero minInterval must never block")
	}
}

func TestThrottleResetClearsMemory(t *testing.T) {
	th := NewThrottle(time.Second)
	now := time.Now()
	th.now = func() time.Time { return now }
	th.Allow("move")
	th.Reset()
	th.now = func() time.Time { return now.Add(10 * time.Millisecond) }
	if !th.Allow("move") {
		t.Fatal("Reset must clear prior acceptance times")
	}
}
