// Copyright 2025 Copyforge Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package resilience provides the bounded retry loop used for
// upstream calls.
package resilience

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultMaxAttempts is the default number of upstream attempts
	DefaultMaxAttempts = 3
	// DefaultBaseDelay is the per-attempt unit of linear backoff
	DefaultBaseDelay = 500 * time.Millisecond
)

// SleepFunc waits for the given duration, honoring context
// cancellation. Injected so tests run without real delays.
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryFunc is one attempt of the retried operation.
type RetryFunc func(ctx context.Context) error

// RetryConfig holds configuration for linear-backoff retry logic.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Sleep       SleepFunc
	RetryOn     func(error) bool
}

// DefaultRetryConfig returns the default retry configuration:
// 3 attempts, delay attempt x 500ms between failures.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		Sleep:       sleepWithContext,
		RetryOn:     DefaultRetryOn,
	}
}

// DefaultRetryOn retries everything except context cancellation.
func DefaultRetryOn(err error) bool {
	if err == nil {
		return false
	}
	return err != context.Canceled
}

// WithLinearRetry executes fn up to MaxAttempts times, waiting
// attempt x BaseDelay after each failure except the last. The loop is
// an explicit counter, not recursion, so timing stays deterministic
// under an injected sleep.
func WithLinearRetry(ctx context.Context, logger *zap.Logger, config RetryConfig, fn RetryFunc) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Sleep == nil {
		config.Sleep = sleepWithContext
	}
	if config.RetryOn == nil {
		config.RetryOn = DefaultRetryOn
	}

	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info("Operation succeeded after retry",
					zap.Int("attempt", attempt),
					zap.Int("max_attempts", config.MaxAttempts))
			}
			return nil
		}

		lastErr = err

		if !config.RetryOn(err) {
			logger.Debug("Error is not retryable, stopping attempts",
				zap.Error(err),
				zap.Int("attempt", attempt))
			return err
		}

		// No wait after the final attempt
		if attempt == config.MaxAttempts {
			break
		}

		delay := time.Duration(attempt) * config.BaseDelay

		logger.Warn("Attempt failed, retrying after delay",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Int("max_attempts", config.MaxAttempts))

		if serr := config.Sleep(ctx, delay); serr != nil {
			return serr
		}
	}

	logger.Error("All attempts exhausted",
		zap.Int("max_attempts", config.MaxAttempts),
		zap.Error(lastErr))

	return lastErr
}

// sleepWithContext waits for d or until ctx is done.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
