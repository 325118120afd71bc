// Package breaker builds circuit breakers for outbound HTTP upstreams.
// This is part of the platform layer and contains no business logic.
package breaker

import (
	"time"

	"areabutler_backend/platform/logger"
	"areabutler_backend/platform/metrics"

	"github.com/sony/gobreaker/v2"
)

// Settings tune a breaker. Zero values fall back to the defaults below.
type Settings struct {
	// MinRequests is the sample size needed before the failure ratio is considered.
	MinRequests uint32
	// FailureRatio opens the circuit once reached.
	FailureRatio float64
	// OpenTimeout is how long the circuit stays open before probing.
	OpenTimeout time.Duration
	// Ignore marks errors that are the caller's fault and must not count as failures.
	Ignore func(error) bool
}

const (
	defaultMinRequests  = 5
	defaultFailureRatio = 0.6
	defaultOpenTimeout  = 30 * time.Second
)

// New returns a breaker that reports its state on the upstream_circuit_state gauge.
func New[T any](name string, s Settings, log *logger.Logger) *gobreaker.CircuitBreaker[T] {
	if s.MinRequests == 0 {
		s.MinRequests = defaultMinRequests
	}
	if s.FailureRatio == 0 {
		s.FailureRatio = defaultFailureRatio
	}
	if s.OpenTimeout == 0 {
		s.OpenTimeout = defaultOpenTimeout
	}

	metrics.UpstreamCircuitState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || (s.Ignore != nil && s.Ignore(err))
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if log != nil {
				log.Warn("circuit breaker state change", "upstream", name, "from", from.String(), "to", to.String())
			}
			metrics.UpstreamCircuitState.WithLabelValues(name).Set(stateValue(to))
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
