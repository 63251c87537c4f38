package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/hupe1980/campaignmesh/logging"
)

// Default circuit breaker settings.
const (
	defaultBreakerMaxFailures uint32        = 5
	defaultBreakerTimeout     time.Duration = 30 * time.Second
	defaultBreakerInterval    time.Duration = 60 * time.Second
)

// BreakerOptions configures the circuit breaker behavior.
type BreakerOptions struct {
	// MaxFailures is the number of consecutive failures before the circuit opens.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before transitioning to half-open.
	Timeout time.Duration
	// Interval is the cyclic period of the closed state for clearing failure counts.
	Interval time.Duration
	Logger   logging.Logger
}

// Breaker wraps a Model with circuit breaker protection. When the provider
// fails repeatedly the circuit opens and calls fail fast instead of each
// agent step waiting on a dead upstream.
//
// Calls are collapsed into a single final Response; partial chunks are not
// forwarded.
type Breaker struct {
	inner   Model
	breaker *gobreaker.CircuitBreaker[Response]
}

// NewBreaker wraps inner.
func NewBreaker(inner Model, optFns ...func(o *BreakerOptions)) *Breaker {
	opts := BreakerOptions{
		MaxFailures: defaultBreakerMaxFailures,
		Timeout:     defaultBreakerTimeout,
		Interval:    defaultBreakerInterval,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	logger := logging.OrNoOp(opts.Logger)

	cb := gobreaker.NewCircuitBreaker[Response](gobreaker.Settings{
		Name:        "model:" + inner.Info().Name,
		MaxRequests: 1,
		Interval:    opts.Interval,
		Timeout:     opts.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("model.breaker.state_change", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellation says nothing about provider health.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &Breaker{inner: inner, breaker: cb}
}

// Generate implements Model.
func (b *Breaker) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		resp, err := b.breaker.Execute(func() (Response, error) {
			return Complete(ctx, b.inner, req)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				err = fmt.Errorf("model %q circuit open: %w", b.inner.Info().Name, err)
			}
			errCh <- err
			return
		}

		respCh <- resp
	}()

	return respCh, errCh
}

// Info implements Model.
func (b *Breaker) Info() Info { return b.inner.Info() }

// State returns the current circuit breaker state.
func (b *Breaker) State() gobreaker.State { return b.breaker.State() }
