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

package generator

import (
	"errors"
	"fmt"
)

var (
	// ErrRateLimitExceeded is an expected, user-facing rejection: too
	// many calls for this tenant in the current 60-second window.
	ErrRateLimitExceeded = errors.New("rate limit exceeded, try again shortly")

	// ErrMonthlyLimitExceeded is an expected, user-facing rejection:
	// the tenant used up this month's generation quota.
	ErrMonthlyLimitExceeded = errors.New("monthly generation limit reached")

	// ErrMissingAPIKey means the upstream credential is not
	// configured. Raised lazily on the first call attempt, never at
	// startup.
	ErrMissingAPIKey = errors.New("upstream API key is not configured")
)

// UpstreamError wraps the last underlying failure after the retry
// loop is exhausted.
type UpstreamError struct {
	Attempts int
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream generation failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
