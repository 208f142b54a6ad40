package utils

import (
	"testing"
	"time"
)

func TestLatencyTrackerPercentile(t *testing.T) {
	tracker := NewLatencyTracker(10)
	for i := 1; i <= 10; i++ {
		tracker.Observe(time.Duration(i) * time.Millisecond)
	}

	if got := tracker.Count(); got != 10 {
		t.Fatalf("expected 10 samples, got %d", got)
	}
	if p0 := tracker.Percentile(0); p0 != time.Millisecond {
		t.Fatalf("expected 1ms at p0, got %v", p0)
	}
	if p100 := tracker.Percentile(100); p100 != 10*time.Millisecond {
		t.Fatalf("expected 10ms at p100, got %v", p100)
	}
	if p50 := tracker.Percentile(50); p50 < 4*time.Millisecond || p50 > 6*time.Millisecond {
		t.Fatalf("unexpected p50: %v", p50)
	}
}

func TestLatencyTrackerEvictsOldest(t *testing.T) {
	tracker := NewLatencyTracker(4)
	for i := 1; i <= 8; i++ {
		tracker.Observe(time.Duration(i) * time.Second)
	}
	if got := tracker.Count(); got != 4 {
		t.Fatalf("expected bounded window of 4, got %d", got)
	}
	if min := tracker.Percentile(0); min != 5*time.Second {
		t.Fatalf("expected oldest retained sample 5s, got %v", min)
	}
}

func TestLatencyTrackerEmpty(t *testing.T) {
	tracker := NewLatencyTracker(8)
	if got := tracker.Percentile(95); got != 0 {
		t.Fatalf("expected zero percentile without samples, got %v", got)
	}
}
