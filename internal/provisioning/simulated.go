// Package provisioning holds ProvisioningClient implementations. Only a
// simulated client is provided; it never performs network calls.
package provisioning

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/ganot/quotagate/internal/domain/generation"
	"github.com/ganot/quotagate/internal/random"
	"github.com/google/uuid"
)

const (
	DefaultSuccessRate = 0.8
	DefaultLatency     = 3 * time.Second

	// FailureReason is reported for simulated failures.
	FailureReason = "username taken or rate limited"

	// EmailDomain is a reserved domain; simulated addresses never resolve.
	EmailDomain = "example.invalid"
)

// Config tunes a Simulated client.
type Config struct {
	SuccessRate float64
	Latency     time.Duration
}

// Simulated resolves each attempt after a fixed latency, succeeding with a
// configured probability.
type Simulated struct {
	cfg    Config
	src    random.Source
	logger *slog.Logger
}

// NewSimulated creates a simulated client. A negative SuccessRate or
// Latency selects the default.
func NewSimulated(cfg Config, src random.Source, logger *slog.Logger) *Simulated {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.SuccessRate < 0 || cfg.SuccessRate > 1 {
		cfg.SuccessRate = DefaultSuccessRate
	}
	if cfg.Latency < 0 {
		cfg.Latency = DefaultLatency
	}
	return &Simulated{cfg: cfg, src: src, logger: logger}
}

// Attempt waits for the configured latency and then draws the result. It
// returns ctx's error if ctx ends first.
func (s *Simulated) Attempt(ctx context.Context, attempt generation.Attempt) (generation.Result, error) {
	if s.cfg.Latency > 0 {
		timer := time.NewTimer(s.cfg.Latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return generation.Result{}, ctx.Err()
		}
	} else if err := ctx.Err(); err != nil {
		return generation.Result{}, err
	}

	if s.src.Float64() >= s.cfg.SuccessRate {
		s.logger.Debug("simulated attempt failed", "username", attempt.Username)
		return generation.Result{Reason: FailureReason}, nil
	}

	email := strings.ToLower(attempt.Username) + "@" + EmailDomain
	secret := "sim_" + uuid.NewString()
	s.logger.Debug("simulated attempt succeeded", "username", attempt.Username)
	return generation.Result{
		Success:  true,
		Username: attempt.Username,
		Email:    &email,
		Secret:   &secret,
	}, nil
}
