package redis

import (
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/pior/redis/resp"
)

// NewCircuitBreakerConfig returns a factory that creates one circuit breaker
// per server address. This is a helper for common use cases; pass your own
// factory via Config.NewCircuitBreaker for full gobreaker control.
//
// The breaker trips when at least 3 requests were seen in the interval and
// 60% of them failed. Note that ServerError replies do not count as
// failures: the server answered, only the command was rejected.
func NewCircuitBreakerConfig(maxRequests uint32, interval, timeout time.Duration) func(serverAddr string) *gobreaker.CircuitBreaker[resp.Value] {
	return func(serverAddr string) *gobreaker.CircuitBreaker[resp.Value] {
		settings := gobreaker.Settings{
			Name:        serverAddr,
			MaxRequests: maxRequests,
			Interval:    interval,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
		}
		return gobreaker.NewCircuitBreaker[resp.Value](settings)
	}
}
