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

// Package cache memoizes generation results by request fingerprint.
// The cache is best-effort: store failures degrade to always-miss
// reads and skipped writes, never errors.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/copyforge/internal/store"
)

// fingerprintLength is the number of hex characters kept from the
// digest. Collisions only cost a wrong cache hit on a non-adversarial
// keyspace, so a short identifier is enough.
const fingerprintLength = 12

// Fingerprint derives a stable cache key from the parameters that
// determine a generation's output. Equal inputs always produce equal
// fingerprints; the concatenation is order-sensitive.
func Fingerprint(productID, vibe, format, keywords string, includeSocials bool) string {
	payload := productID + "|" + vibe + "|" + format + "|" + keywords + "|" + strconv.FormatBool(includeSocials)
	digest := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(digest[:])[:fingerprintLength]
}

// Cache stores JSON-serialized results in the key-value store with a
// fixed TTL.
type Cache struct {
	store  store.Store
	logger *zap.Logger
	ttl    time.Duration
}

// New creates a cache over the given store.
func New(st store.Store, ttl time.Duration, logger *zap.Logger) *Cache {
	return &Cache{
		store:  st,
		logger: logger,
		ttl:    ttl,
	}
}

// Get looks up the cached value for fingerprint and unmarshals it
// into out. It returns false on a miss, on an unavailable store, and
// on a corrupt entry; none of these surface as errors.
func (c *Cache) Get(ctx context.Context, fingerprint string, out interface{}) bool {
	if !c.store.Available(ctx) {
		return false
	}

	data, err := c.store.Get(ctx, c.key(fingerprint))
	if err == store.ErrNotFound {
		return false
	}
	if err != nil {
		c.logger.Warn("Cache lookup failed, treating as miss",
			zap.String("fingerprint", fingerprint),
			zap.Error(err))
		return false
	}

	if err := json.Unmarshal([]byte(data), out); err != nil {
		c.logger.Warn("Cached entry is not valid JSON, treating as miss",
			zap.String("fingerprint", fingerprint),
			zap.Error(err))
		return false
	}

	c.logger.Debug("Cache hit", zap.String("fingerprint", fingerprint))
	return true
}

// Set writes value under fingerprint with the cache TTL. Failures are
// logged and swallowed.
func (c *Cache) Set(ctx context.Context, fingerprint string, value interface{}) {
	if !c.store.Available(ctx) {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("Failed to serialize result for caching",
			zap.String("fingerprint", fingerprint),
			zap.Error(err))
		return
	}

	if err := c.store.Set(ctx, c.key(fingerprint), string(data), c.ttl); err != nil {
		c.logger.Warn("Cache write failed, result not cached",
			zap.String("fingerprint", fingerprint),
			zap.Error(err))
	}
}

func (c *Cache) key(fingerprint string) string {
	return fmt.Sprintf("copycache:%s", fingerprint)
}
