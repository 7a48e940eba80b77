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

// Package quota enforces the per-tenant rate limit and monthly usage
// quota. Every operation fails open: when the store is unavailable or
// errors, generation proceeds rather than blocking on the policy store.
package quota

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/copyforge/internal/store"
)

const rateWindow = 60 * time.Second

// RateDecision is the outcome of a rate-limit check.
type RateDecision struct {
	Allowed   bool
	Remaining int
}

// MonthlyDecision is the outcome of a monthly-quota check.
type MonthlyDecision struct {
	Allowed bool
	Used    int
	Limit   int
}

// Tracker tracks per-tenant call rates and monthly usage in the
// key-value store.
type Tracker struct {
	store        store.Store
	logger       *zap.Logger
	rateLimit    int
	monthlyLimit int
	now          func() time.Time
}

// NewTracker creates a tracker with the given per-minute and monthly
// limits.
func NewTracker(st store.Store, rateLimit, monthlyLimit int, logger *zap.Logger) *Tracker {
	return &Tracker{
		store:        st,
		logger:       logger,
		rateLimit:    rateLimit,
		monthlyLimit: monthlyLimit,
		now:          time.Now,
	}
}

// CheckRateLimit increments the tenant's fixed-window counter and
// reports whether the call is within the per-minute limit. The window
// starts at the increment that creates the key and lasts 60 seconds;
// the counter resets only by expiry. An empty tenant ID is always
// allowed since there is nothing to account against.
func (t *Tracker) CheckRateLimit(ctx context.Context, tenantID string) RateDecision {
	if tenantID == "" {
		return RateDecision{Allowed: true, Remaining: t.rateLimit}
	}
	if !t.store.Available(ctx) {
		return RateDecision{Allowed: true, Remaining: t.rateLimit}
	}

	key := fmt.Sprintf("ratelimit:%s", tenantID)

	count, err := t.store.Incr(ctx, key)
	if err != nil {
		t.logger.Warn("Rate limit increment failed, allowing request",
			zap.String("tenant", tenantID),
			zap.Error(err))
		return RateDecision{Allowed: true, Remaining: t.rateLimit}
	}

	// Expiry is set only by the increment that created the key, so
	// the window is anchored to the first call in it.
	if count == 1 {
		if err := t.store.Expire(ctx, key, rateWindow); err != nil {
			t.logger.Warn("Failed to set rate window expiry",
				zap.String("tenant", tenantID),
				zap.Error(err))
		}
	}

	remaining := t.rateLimit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return RateDecision{
		Allowed:   count <= int64(t.rateLimit),
		Remaining: remaining,
	}
}

// CheckMonthlyLimit reads, without incrementing, the tenant's usage
// counter for the current calendar month.
func (t *Tracker) CheckMonthlyLimit(ctx context.Context, tenantID string) MonthlyDecision {
	if tenantID == "" {
		return MonthlyDecision{Allowed: true, Limit: t.monthlyLimit}
	}
	if !t.store.Available(ctx) {
		return MonthlyDecision{Allowed: true, Limit: t.monthlyLimit}
	}

	used := 0
	val, err := t.store.Get(ctx, t.usageKey(tenantID))
	switch {
	case err == store.ErrNotFound:
		// First generation this month
	case err != nil:
		t.logger.Warn("Monthly usage lookup failed, allowing request",
			zap.String("tenant", tenantID),
			zap.Error(err))
		return MonthlyDecision{Allowed: true, Limit: t.monthlyLimit}
	default:
		parsed, perr := strconv.Atoi(val)
		if perr != nil {
			t.logger.Warn("Monthly usage counter is not a number, allowing request",
				zap.String("tenant", tenantID),
				zap.String("value", val))
			return MonthlyDecision{Allowed: true, Limit: t.monthlyLimit}
		}
		used = parsed
	}

	return MonthlyDecision{
		Allowed: used < t.monthlyLimit,
		Used:    used,
		Limit:   t.monthlyLimit,
	}
}

// IncrementUsage adds n to the tenant's monthly counter. The expiry
// is recomputed on every increment to the start of next month plus
// one month of buffer, so a stale counter never leaks into a later
// month. Failures are logged and swallowed.
func (t *Tracker) IncrementUsage(ctx context.Context, tenantID string, n int) {
	if tenantID == "" || n <= 0 {
		return
	}
	if !t.store.Available(ctx) {
		return
	}

	key := t.usageKey(tenantID)

	for i := 0; i < n; i++ {
		if _, err := t.store.Incr(ctx, key); err != nil {
			t.logger.Warn("Monthly usage increment failed",
				zap.String("tenant", tenantID),
				zap.Error(err))
			return
		}
	}

	if err := t.store.Expire(ctx, key, t.monthlyTTL()); err != nil {
		t.logger.Warn("Failed to set monthly usage expiry",
			zap.String("tenant", tenantID),
			zap.Error(err))
	}
}

// usageKey scopes a counter to the tenant and current calendar month.
func (t *Tracker) usageKey(tenantID string) string {
	return fmt.Sprintf("usage:%s:%s", tenantID, t.now().UTC().Format("2006-01"))
}

// monthlyTTL is the duration until the start of the month after next,
// i.e. next month's boundary plus a month of buffer.
func (t *Tracker) monthlyTTL() time.Duration {
	now := t.now().UTC()
	boundary := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 2, 0)
	return boundary.Sub(now)
}
