// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	DefaultRequestsPerSecond = 3.0
	defaultRateLimitAttempts = 5
	maxRateLimitBackoff      = 2 * time.Minute
)

// Call results reported to a CallObserver.
const (
	ResultOK          = "ok"
	ResultNotFound    = "not_found"
	ResultRateLimited = "rate_limited"
	ResultError       = "error"
)

// CallObserver is told about every external call the gate lets through.
type CallObserver interface {
	ObserveCall(service, result string, duration time.Duration)
}

// Gate serializes external calls to a fixed rate and retries calls that were
// rate limited after the delay the service asked for. One Gate is shared by
// every capability in a run, so the spacing holds across services.
type Gate struct {
	limiter  *rate.Limiter
	attempts uint
	observer CallObserver
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithObserver reports every call to o.
func WithObserver(o CallObserver) GateOption {
	return func(g *Gate) { g.observer = o }
}

// WithRateLimitAttempts caps how often one call is tried when rate limited.
func WithRateLimitAttempts(n uint) GateOption {
	return func(g *Gate) {
		if n > 0 {
			g.attempts = n
		}
	}
}

// NewGate returns a Gate allowing requestsPerSecond calls per second.
// Zero or negative rates use DefaultRequestsPerSecond.
func NewGate(requestsPerSecond float64, opts ...GateOption) *Gate {
	if requestsPerSecond <= 0 {
		requestsPerSecond = DefaultRequestsPerSecond
	}
	g := &Gate{
		limiter:  rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		attempts: defaultRateLimitAttempts,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Do runs fn once the rate allows it. A *RateLimitError from fn is retried
// after its RetryAfter (DefaultRateLimitBackoff when unset); any other error
// is returned as is.
func (g *Gate) Do(ctx context.Context, service string, fn func(ctx context.Context) error) error {
	return retry.Do(
		func() error {
			if err := g.limiter.Wait(ctx); err != nil {
				return err
			}
			start := time.Now()
			err := fn(ctx)
			g.observe(service, err, time.Since(start))
			return err
		},
		retry.Context(ctx),
		retry.Attempts(g.attempts),
		retry.LastErrorOnly(true),
		retry.RetryIf(IsRateLimit),
		retry.MaxDelay(maxRateLimitBackoff),
		retry.DelayType(func(_ uint, err error, _ *retry.Config) time.Duration {
			return backoffFor(err)
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Err(err).Str("service", service).Uint("attempt", n+1).Dur("backoff", backoffFor(err)).Msg("catalog: rate limited, backing off")
		}),
	)
}

func backoffFor(err error) time.Duration {
	var rl *RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	return DefaultRateLimitBackoff
}

func (g *Gate) observe(service string, err error, d time.Duration) {
	if g.observer == nil {
		return
	}
	g.observer.ObserveCall(service, resultOf(err), d)
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, ErrNotFound):
		return ResultNotFound
	case IsRateLimit(err):
		return ResultRateLimited
	default:
		return ResultError
	}
}
