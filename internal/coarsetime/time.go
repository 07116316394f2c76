// Package coarsetime provides a coarse clock to avoid the cost of frequent
// time.Now() calls in connection bookkeeping. The current time is refreshed
// every 50ms by a background goroutine.
package coarsetime

import (
	"sync/atomic"
	"time"
)

const resolution = 50 * time.Millisecond

var now atomic.Value

func init() {
	now.Store(time.Now())

	ticker := time.NewTicker(resolution)
	go func() {
		for range ticker.C {
			now.Store(time.Now())
		}
	}()
}

// Now returns the current time, up to 50ms stale.
func Now() time.Time {
	return now.Load().(time.Time)
}
