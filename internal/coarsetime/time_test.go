package coarsetime

import (
	"testing"
	"time"
)

func TestNow(t *testing.T) {
	got := Now()
	if got.IsZero() {
		t.Fatal("Now() returned zero time")
	}

	drift := time.Since(got)
	if drift < 0 || drift > 2*resolution {
		t.Fatalf("Now() drifted too far from wall clock: %v", drift)
	}
}
