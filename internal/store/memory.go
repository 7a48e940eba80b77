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

package store

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// MemoryStore is an in-process Store with TTL support. It backs
// store-less deployments and tests; counters use the same
// increment-then-expire semantics as the Redis backend.
type MemoryStore struct {
	mutex   sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the value for key, or ErrNotFound for absent or
// expired keys.
func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	entry, ok := m.live(key)
	if !ok {
		return "", ErrNotFound
	}
	return entry.value, nil
}

// Set stores value under key with the given TTL.
func (m *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.entries[key] = memoryEntry{value: value, expiresAt: m.expiry(ttl)}
	return nil
}

// Incr increments the counter at key, creating it at 1 when absent
// or expired.
func (m *MemoryStore) Incr(_ context.Context, key string) (int64, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var count int64
	if entry, ok := m.live(key); ok {
		parsed, err := strconv.ParseInt(entry.value, 10, 64)
		if err == nil {
			count = parsed
		}
		count++
		m.entries[key] = memoryEntry{value: strconv.FormatInt(count, 10), expiresAt: entry.expiresAt}
		return count, nil
	}

	count = 1
	m.entries[key] = memoryEntry{value: "1"}
	return count, nil
}

// Expire overrides the expiry of an existing key.
func (m *MemoryStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	entry, ok := m.live(key)
	if !ok {
		return ErrNotFound
	}
	entry.expiresAt = m.expiry(ttl)
	m.entries[key] = entry
	return nil
}

// Available always reports true for the in-memory backend.
func (m *MemoryStore) Available(_ context.Context) bool {
	return true
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}

// live returns the entry for key if present and unexpired, deleting
// it when expired. Caller must hold the mutex.
func (m *MemoryStore) live(key string) (memoryEntry, bool) {
	entry, ok := m.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !entry.expiresAt.IsZero() && m.now().After(entry.expiresAt) {
		delete(m.entries, key)
		return memoryEntry{}, false
	}
	return entry, true
}

func (m *MemoryStore) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(ttl)
}
