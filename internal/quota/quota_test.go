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

package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/copyforge/internal/store"
)

func TestCheckRateLimit_AllowsUpToLimit(t *testing.T) {
	tr := NewTracker(store.NewMemoryStore(), 30, 150, zap.NewNop())
	ctx := context.Background()

	for i := 1; i <= 30; i++ {
		d := tr.CheckRateLimit(ctx, "shop-a")
		if !d.Allowed {
			t.Fatalf("call %d should be allowed", i)
		}
		if d.Remaining != 30-i {
			t.Errorf("call %d: expected remaining %d, got %d", i, 30-i, d.Remaining)
		}
	}

	d := tr.CheckRateLimit(ctx, "shop-a")
	if d.Allowed {
		t.Error("call 31 should be rejected")
	}
	if d.Remaining != 0 {
		t.Errorf("expected remaining 0 after limit, got %d", d.Remaining)
	}
}

func TestCheckRateLimit_TenantsAreIndependent(t *testing.T) {
	tr := NewTracker(store.NewMemoryStore(), 1, 150, zap.NewNop())
	ctx := context.Background()

	if d := tr.CheckRateLimit(ctx, "shop-a"); !d.Allowed {
		t.Fatal("first call for shop-a should be allowed")
	}
	if d := tr.CheckRateLimit(ctx, "shop-a"); d.Allowed {
		t.Error("second call for shop-a should be rejected")
	}
	if d := tr.CheckRateLimit(ctx, "shop-b"); !d.Allowed {
		t.Error("shop-b must not be affected by shop-a's counter")
	}
}

func TestCheckRateLimit_EmptyTenantAlwaysAllowed(t *testing.T) {
	tr := NewTracker(store.NewMemoryStore(), 1, 150, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if d := tr.CheckRateLimit(ctx, ""); !d.Allowed {
			t.Fatal("calls without a tenant must be unconditionally allowed")
		}
	}
}

func TestCheckMonthlyLimit_ReadsWithoutIncrementing(t *testing.T) {
	tr := NewTracker(store.NewMemoryStore(), 30, 150, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		d := tr.CheckMonthlyLimit(ctx, "shop-a")
		if !d.Allowed {
			t.Fatal("check must not consume quota")
		}
		if d.Used != 0 {
			t.Fatalf("check must not increment usage, got used=%d", d.Used)
		}
	}
}

func TestMonthlyLimit_BlocksAtLimit(t *testing.T) {
	tr := NewTracker(store.NewMemoryStore(), 30, 3, zap.NewNop())
	ctx := context.Background()

	tr.IncrementUsage(ctx, "shop-a", 3)

	d := tr.CheckMonthlyLimit(ctx, "shop-a")
	if d.Allowed {
		t.Error("usage at limit must block further generation")
	}
	if d.Used != 3 || d.Limit != 3 {
		t.Errorf("expected used=3 limit=3, got used=%d limit=%d", d.Used, d.Limit)
	}
}

func TestMonthlyLimit_FreshMonthResetsUsage(t *testing.T) {
	tr := NewTracker(store.NewMemoryStore(), 30, 3, zap.NewNop())
	ctx := context.Background()

	march := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return march }

	tr.IncrementUsage(ctx, "shop-a", 3)
	if d := tr.CheckMonthlyLimit(ctx, "shop-a"); d.Allowed {
		t.Fatal("March quota should be exhausted")
	}

	tr.now = func() time.Time { return march.AddDate(0, 1, 0) }

	d := tr.CheckMonthlyLimit(ctx, "shop-a")
	if !d.Allowed {
		t.Error("a fresh month must reset usage")
	}
	if d.Used != 0 {
		t.Errorf("expected used=0 in fresh month, got %d", d.Used)
	}
}

func TestMonthlyTTL_CoversNextMonthBoundaryPlusBuffer(t *testing.T) {
	tr := NewTracker(store.NewMemoryStore(), 30, 150, zap.NewNop())
	tr.now = func() time.Time { return time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC) }

	ttl := tr.monthlyTTL()
	want := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC).Sub(tr.now())
	if ttl != want {
		t.Errorf("expected TTL %v, got %v", want, ttl)
	}
}

// failingStore reports available but errors on operations, to verify
// fail-open behavior distinct from the availability probe.
type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, error) {
	return "", errors.New("io timeout")
}
func (failingStore) Set(context.Context, string, string, time.Duration) error {
	return errors.New("io timeout")
}
func (failingStore) Incr(context.Context, string) (int64, error) {
	return 0, errors.New("io timeout")
}
func (failingStore) Expire(context.Context, string, time.Duration) error {
	return errors.New("io timeout")
}
func (failingStore) Available(context.Context) bool { return true }
func (failingStore) Close() error                   { return nil }

func TestQuota_FailsOpenOnStoreErrors(t *testing.T) {
	tr := NewTracker(failingStore{}, 1, 1, zap.NewNop())
	ctx := context.Background()

	if d := tr.CheckRateLimit(ctx, "shop-a"); !d.Allowed {
		t.Error("rate limit must fail open on store errors")
	}
	if d := tr.CheckMonthlyLimit(ctx, "shop-a"); !d.Allowed {
		t.Error("monthly limit must fail open on store errors")
	}
	// Must not panic
	tr.IncrementUsage(ctx, "shop-a", 1)
}
