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

// Package store provides the key-value store backing the cache and
// quota counters. The store is optional infrastructure: callers are
// expected to treat every failure as a soft degradation.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("store: key not found")

// Store is the minimal key-value contract needed for caching and
// quota accounting: get, set-with-expiry, atomic increment, and
// expiry override.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Incr atomically increments the integer value at key, creating
	// it at 1 when absent, and returns the post-increment count.
	Incr(ctx context.Context, key string) (int64, error)

	// Expire overrides the expiry of an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Available reports whether the store can currently serve
	// requests. Callers branch on this to fail open rather than
	// relying on operation errors for control flow.
	Available(ctx context.Context) bool

	// Close releases the underlying connection.
	Close() error
}
