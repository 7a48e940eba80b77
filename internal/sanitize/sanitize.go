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

// Package sanitize strips unsafe markup from generated HTML before it
// is cached or returned. Only a small set of formatting tags survives
// and no attributes at all, so model output can never smuggle event
// handlers, links, or styles into a storefront.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var allowedElements = []string{
	"p", "br", "ul", "li", "strong", "b", "em", "i",
	"h1", "h2", "h3", "h4", "ol",
}

// Sanitizer applies the allow-list policy. Sanitization is
// idempotent: already-clean HTML passes through unchanged.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// New creates a sanitizer with the fixed allow-list policy.
func New() *Sanitizer {
	policy := bluemonday.NewPolicy()
	policy.AllowElements(allowedElements...)

	return &Sanitizer{policy: policy}
}

// HTML sanitizes raw generated HTML. Empty input yields an empty
// string.
func (s *Sanitizer) HTML(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(s.policy.Sanitize(raw))
}
