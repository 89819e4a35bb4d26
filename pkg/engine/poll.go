package engine

import (
	"context"
	"time"
)

// PollConfig holds configuration for Wait's caller-driven polling.
type PollConfig struct {
	// Interval is the initial delay between status polls.
	// Default: 500ms
	Interval time.Duration

	// MaxInterval caps the poll delay as it backs off.
	// Default: 10s
	MaxInterval time.Duration

	// Multiplier is applied to the delay after each poll.
	// Default: 1.5
	Multiplier float64
}

// DefaultPollConfig returns the default polling configuration.
func DefaultPollConfig() PollConfig {
	return PollConfig{
		Interval:    500 * time.Millisecond,
		MaxInterval: 10 * time.Second,
		Multiplier:  1.5,
	}
}

// Wait polls an asynchronous engine job until it completes, then fetches
// its result. It is a convenience for callers choosing the asynchronous
// path; the subsystem itself runs no polling loop. Polling stops on
// context cancellation or on any terminal error from the gateway
// (including core.ErrEngineJobNotFound for expired handles).
//
// Engine-defined statuses other than COMPLETED are treated as still
// pending; the engine reports failures through the result endpoint.
func Wait(ctx context.Context, eng Engine, handle string, cfg PollConfig) (*Result, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollConfig().Interval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = DefaultPollConfig().MaxInterval
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = DefaultPollConfig().Multiplier
	}

	delay := cfg.Interval
	for {
		status, err := eng.PollStatus(ctx, handle)
		if err != nil {
			return nil, err
		}
		if status == StatusCompleted {
			return eng.FetchResult(ctx, handle)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxInterval {
			delay = cfg.MaxInterval
		}
	}
}
