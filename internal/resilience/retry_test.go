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

package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

// recordingSleep collects requested delays without actually waiting.
func recordingSleep(delays *[]time.Duration) SleepFunc {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestWithLinearRetry_SucceedsFirstAttempt(t *testing.T) {
	var delays []time.Duration
	cfg := DefaultRetryConfig()
	cfg.Sleep = recordingSleep(&delays)

	calls := 0
	err := WithLinearRetry(context.Background(), zap.NewNop(), cfg, func(context.Context) error {
		calls++
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if len(delays) != 0 {
		t.Errorf("no sleep expected on immediate success, got %v", delays)
	}
}

func TestWithLinearRetry_LinearDelaysBetweenFailures(t *testing.T) {
	var delays []time.Duration
	cfg := DefaultRetryConfig()
	cfg.Sleep = recordingSleep(&delays)

	calls := 0
	upstreamErr := errors.New("status 502")
	err := WithLinearRetry(context.Background(), zap.NewNop(), cfg, func(context.Context) error {
		calls++
		return upstreamErr
	})

	if !errors.Is(err, upstreamErr) {
		t.Errorf("expected last error back, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	// attempt x 500ms between failures, no wait after the final one
	want := []time.Duration{500 * time.Millisecond, 1000 * time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("expected %d sleeps, got %v", len(want), delays)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("sleep %d: expected %v, got %v", i, want[i], delays[i])
		}
	}
}

func TestWithLinearRetry_SucceedsAfterRetry(t *testing.T) {
	var delays []time.Duration
	cfg := DefaultRetryConfig()
	cfg.Sleep = recordingSleep(&delays)

	calls := 0
	err := WithLinearRetry(context.Background(), zap.NewNop(), cfg, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestWithLinearRetry_NonRetryableStopsImmediately(t *testing.T) {
	var delays []time.Duration
	cfg := DefaultRetryConfig()
	cfg.Sleep = recordingSleep(&delays)
	fatal := errors.New("bad request")
	cfg.RetryOn = func(err error) bool { return !errors.Is(err, fatal) }

	calls := 0
	err := WithLinearRetry(context.Background(), zap.NewNop(), cfg, func(context.Context) error {
		calls++
		return fatal
	})

	if !errors.Is(err, fatal) {
		t.Errorf("expected the fatal error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("non-retryable error must stop after 1 attempt, got %d", calls)
	}
	if len(delays) != 0 {
		t.Errorf("no sleep expected, got %v", delays)
	}
}

func TestWithLinearRetry_CanceledContextStopsSleep(t *testing.T) {
	cfg := DefaultRetryConfig()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := WithLinearRetry(ctx, zap.NewNop(), cfg, func(context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 attempt before cancellation, got %d", calls)
	}
}

func TestDefaultRetryOn(t *testing.T) {
	if DefaultRetryOn(nil) {
		t.Error("nil error is not retryable")
	}
	if DefaultRetryOn(context.Canceled) {
		t.Error("cancellation is not retryable")
	}
	if !DefaultRetryOn(errors.New("io timeout")) {
		t.Error("ordinary errors are retryable")
	}
	if !DefaultRetryOn(context.DeadlineExceeded) {
		t.Error("a per-attempt deadline is retryable; the next attempt gets its own")
	}
}
