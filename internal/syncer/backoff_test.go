package syncer

import (
	"testing"
	"time"
)

func TestBackoff_Delay(t *testing.T) {
	b := DefaultBackoff()
	tests := []struct {
		retries int
		want    time.Duration
	}{
		{0, 5 * time.Second},
		{1, 10 * time.Second},
		{2, 20 * time.Second},
		{3, 40 * time.Second},
		{5, 160 * time.Second},
		{6, 5 * time.Minute},
		{7, 5 * time.Minute},
		{200, 5 * time.Minute},
		{-1, 5 * time.Second},
	}
	for _, tt := range tests {
		if got := b.Delay(tt.retries); got != tt.want {
			t.Fatalf("Delay(%d)=%v want=%v", tt.retries, got, tt.want)
		}
	}
}

func TestBackoff_MatchesFormula(t *testing.T) {
	b := DefaultBackoff()
	for n := 0; n < 12; n++ {
		ms := int64(5000) << n
		if ms > 300000 {
			ms = 300000
		}
		if got := b.Delay(n).Milliseconds(); got != ms {
			t.Fatalf("n=%d got=%dms want=%dms", n, got, ms)
		}
	}
}

func TestBackoff_Eligible(t *testing.T) {
	b := DefaultBackoff()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	if !b.Eligible(4, nil, now) {
		t.Fatalf("never attempted should be eligible")
	}
	last := now.Add(-9 * time.Second)
	if b.Eligible(1, &last, now) {
		t.Fatalf("9s after attempt with 1 retry should wait for 10s")
	}
	last = now.Add(-10 * time.Second)
	if !b.Eligible(1, &last, now) {
		t.Fatalf("exactly 10s after attempt with 1 retry should be eligible")
	}
	last = now.Add(-5 * time.Minute)
	if !b.Eligible(50, &last, now) {
		t.Fatalf("cap should apply at high retry counts")
	}
}

func TestBackoff_CustomAndZeroValues(t *testing.T) {
	var zero Backoff
	if got := zero.Delay(0); got != DefaultBaseBackoff {
		t.Fatalf("zero Delay(0)=%v", got)
	}
	b := Backoff{Base: time.Minute, Max: 30 * time.Second}
	if got := b.Delay(0); got != 30*time.Second {
		t.Fatalf("base above cap: got=%v", got)
	}
}
