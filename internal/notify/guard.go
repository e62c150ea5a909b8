package notify

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	apperrors "github.com/gmsas95/medtrack/internal/errors"
	"github.com/gmsas95/medtrack/internal/metrics"
)

// GuardConfig tunes the limiter and breaker around one channel.
type GuardConfig struct {
	RatePerSecond   float64
	Burst           int
	MaxFailures     uint32        // consecutive failures before the breaker opens
	BreakerCooldown time.Duration // time spent open before a trial send
}

// Guarded wraps a channel with a token bucket and a circuit breaker so a dead
// transport fails fast instead of stalling every tick.
type Guarded struct {
	inner   Channel
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[struct{}]
}

func NewGuarded(inner Channel, cfg GuardConfig, logger *zap.Logger) *Guarded {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	name := inner.Name()
	metrics.SetBreakerOpen(name, false)

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Channel breaker state changed",
				zap.String("channel", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.SetBreakerOpen(name, to == gobreaker.StateOpen)
		},
		// A cancelled tick says nothing about the transport's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	return &Guarded{
		inner:   inner,
		limiter: rate.NewLimiter(limit, burst),
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

func (g *Guarded) Name() string { return g.inner.Name() }

func (g *Guarded) Send(ctx context.Context, contact string, msg Message) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return apperrors.Transport(g.Name(), err)
	}

	_, err := g.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, g.inner.Send(ctx, contact, msg)
	})
	if err != nil {
		return apperrors.Transport(g.Name(), err)
	}
	return nil
}

// State reports the breaker state, for status output.
func (g *Guarded) State() string {
	return g.breaker.State().String()
}
