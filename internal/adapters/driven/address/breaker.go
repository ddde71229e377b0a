package address

import (
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
	"github.com/wbattistetti/AILawyer-sub000/internal/logger"
	"github.com/wbattistetti/AILawyer-sub000/internal/metrics"
)

// newBreaker opens after threshold consecutive service failures and lets a
// single trial request through once coolDown has elapsed.
func newBreaker(threshold uint32, coolDown time.Duration) *gobreaker.CircuitBreaker[*domain.Address] {
	return gobreaker.NewCircuitBreaker[*domain.Address](gobreaker.Settings{
		Name:        serviceName,
		MaxRequests: 1,
		Timeout:     coolDown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Debug("%s breaker: %s -> %s", name, from, to)
			if to == gobreaker.StateOpen {
				metrics.BreakerOpen.Set(1)
			} else {
				metrics.BreakerOpen.Set(0)
			}
		},
	})
}
