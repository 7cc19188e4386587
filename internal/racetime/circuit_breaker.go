// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

package racetime

import (
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/raceroom/internal/logging"
	"github.com/tomtom215/raceroom/internal/metrics"
)

// restBreakerName labels the REST circuit breaker in metrics and logs.
const restBreakerName = "racetime-api"

// errServerStatus marks a 5xx response as a breaker failure. It never leaves
// this package; the response itself is handed back to the caller.
var errServerStatus = errors.New("server error status")

// newRESTBreaker creates the circuit breaker guarding REST calls.
// Circuit breaker configuration:
// - Max 3 concurrent requests in half-open state
// - 1 minute measurement window
// - 2 minute timeout before attempting recovery
// - Opens after 60% failure rate with minimum 10 requests
//
// The breaker runs on wall-clock time; tests that need it open should drive
// it with failing requests rather than a fake clock.
func newRESTBreaker(name string) *gobreaker.CircuitBreaker[*restResponse] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0) // 0 = closed

	return gobreaker.NewCircuitBreaker[*restResponse](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6

			if shouldTrip {
				logging.Warn().Str("breaker", name).Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}

			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})
}

// executeBreaker runs fn through cb and normalizes its outcome: a 5xx
// response counts as a breaker failure but is still returned with a nil
// error, and rejections are reported as ErrCircuitOpen.
func executeBreaker(cb *gobreaker.CircuitBreaker[*restResponse], fn func() (*restResponse, error)) (*restResponse, error) {
	if cb == nil {
		return fn()
	}

	var serverResp *restResponse
	resp, err := cb.Execute(func() (*restResponse, error) {
		r, err := fn()
		if err == nil && r.StatusCode >= 500 {
			serverResp = r
			return r, errServerStatus
		}
		return r, err
	})

	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(cb.Name(), "success").Inc()
		return resp, nil
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(cb.Name(), "rejected").Inc()
		logging.Warn().Err(err).Str("breaker", cb.Name()).Msg("[CIRCUIT BREAKER] Request rejected")
		return nil, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	case errors.Is(err, errServerStatus):
		metrics.CircuitBreakerRequests.WithLabelValues(cb.Name(), "failure").Inc()
		return serverResp, nil
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(cb.Name(), "failure").Inc()
		return nil, err
	}
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
