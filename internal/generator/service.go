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

// Package generator orchestrates a single copy generation: quota
// checks, cache lookup, the retried upstream call, extraction,
// sanitization, and usage accounting.
package generator

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/copyforge/internal/cache"
	"github.com/your-org/copyforge/internal/config"
	"github.com/your-org/copyforge/internal/extract"
	"github.com/your-org/copyforge/internal/history"
	"github.com/your-org/copyforge/internal/llm"
	"github.com/your-org/copyforge/internal/prompt"
	"github.com/your-org/copyforge/internal/quota"
	"github.com/your-org/copyforge/internal/resilience"
	"github.com/your-org/copyforge/internal/sanitize"
	"github.com/your-org/copyforge/internal/store"
)

// Request is a single generation request. Immutable once constructed.
type Request struct {
	ProductID          string
	ProductTitle       string
	ProductDescription string
	Metafields         []prompt.Metafield
	Vibe               string
	Format             string
	Keywords           string
	IncludeSocials     bool
	TenantID           string
}

// Socials are the optional social media captions.
type Socials struct {
	Twitter   string `json:"twitter"`
	Instagram string `json:"instagram"`
}

/// Result is a finished generation: sanitized HTML plus optional
// captions. Cached verbatim, post-sanitization.
type Result struct {
	Description string   `json:"description"`
	Socials     *Socials `json:"socials"`
}

// Service composes the generation pipeline around explicitly injected
// dependencies; there are no package-level singletons.
type Service struct {
	cache     *cache.Cache
	quota     *quota.Tracker
	completer llm.Completer
	sanitizer *sanitize.Sanitizer
	history   *history.Store
	logger    *zap.Logger

	apiKeySet bool
	timeout   time.Duration
	retry     resilience.RetryConfig
}

// New wires a Service from configuration and its collaborators.
// history may be nil; recording is best-effort anyway.
func New(cfg *config.Config, st store.Store, completer llm.Completer, hist *history.Store, logger *zap.Logger) *Service {
	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = cfg.Generation.MaxRetries

	return &Service{
		cache:     cache.New(st, time.Duration(cfg.Generation.CacheTTLHours)*time.Hour, logger),
		quota:     quota.NewTracker(st, cfg.Limits.PerMinute, cfg.Limits.Monthly, logger),
		completer: completer,
		sanitizer: sanitize.New(),
		history:   hist,
		logger:    logger,
		apiKeySet: cfg.Upstream.APIKey != "",
		timeout:   time.Duration(cfg.Generation.TimeoutMillis) * time.Millisecond,
		retry:     retry,
	}
}

// Generate runs one request end to end. Rate and monthly checks come
// before the cache lookup, so a cache-servable request can still be
// rejected by quota; that ordering is deliberate and matches billing.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	if d := s.quota.CheckRateLimit(ctx, req.TenantID); !d.Allowed {
		s.logger.Info("Request rejected by rate limit",
			zap.String("tenant", req.TenantID))
		return nil, ErrRateLimitExceeded
	}

	if d := s.quota.CheckMonthlyLimit(ctx, req.TenantID); !d.Allowed {
		s.logger.Info("Request rejected by monthly quota",
			zap.String("tenant", req.TenantID),
			zap.Int("used", d.Used),
			zap.Int("limit", d.Limit))
		return nil, ErrMonthlyLimitExceeded
	}

	fingerprint := cache.Fingerprint(req.ProductID, req.Vibe, req.Format, req.Keywords, req.IncludeSocials)

	var cached Result
	if s.cache.Get(ctx, fingerprint, &cached) {
		// Cache hits never increment monthly usage; repeat requests
		// are free after the first.
		return &cached, nil
	}

	if !s.apiKeySet {
		return nil, ErrMissingAPIKey
	}

	p := prompt.Build(prompt.Product{
		ID:          req.ProductID,
		Title:       req.ProductTitle,
		Description: req.ProductDescription,
		Metafields:  req.Metafields,
	}, req.Vibe, req.Format, req.Keywords, req.IncludeSocials)

	raw, err := s.callUpstream(ctx, p)
	if err != nil {
		return nil, err
	}

	obj, err := extract.Object(raw)
	if err != nil {
		s.logger.Warn("Model output could not be parsed",
			zap.String("tenant", req.TenantID),
			zap.Int("output_length", len(raw)),
			zap.Error(err))
		return nil, err
	}

	result := normalize(obj)
	result.Description = s.sanitizer.HTML(result.Description)

	// Write-through and accounting are best-effort; the result is
	// already in hand.
	s.cache.Set(ctx, fingerprint, result)
	s.quota.IncrementUsage(ctx, req.TenantID, 1)
	s.record(req, result)

	return result, nil
}

// callUpstream runs the retried, per-attempt-timeout-bounded call.
func (s *Service) callUpstream(ctx context.Context, p string) (string, error) {
	var raw string

	err := resilience.WithLinearRetry(ctx, s.logger, s.retry, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		out, err := s.completer.Complete(attemptCtx, p)
		if err != nil {
			return err
		}
		raw = out
		return nil
	})
	if err != nil {
		return "", &UpstreamError{Attempts: s.retry.MaxAttempts, Err: err}
	}

	return raw, nil
}

// normalize fills in the contract's two keys: a missing or non-string
// description becomes the empty string and missing or malformed
// socials become null.
func normalize(obj map[string]json.RawMessage) *Result {
	result := &Result{}

	if raw, ok := obj["description"]; ok {
		var desc string
		if err := json.Unmarshal(raw, &desc); err == nil {
			result.Description = desc
		}
	}

	if raw, ok := obj["socials"]; ok && string(raw) != "null" {
		var socials Socials
		if err := json.Unmarshal(raw, &socials); err == nil {
			result.Socials = &socials
		}
	}

	return result
}

// record appends the generation to history, best-effort.
func (s *Service) record(req Request, result *Result) {
	if s.history == nil {
		return
	}

	socials := ""
	if result.Socials != nil {
		if data, err := json.Marshal(result.Socials); err == nil {
			socials = string(data)
		}
	}

	if _, err := s.history.Add(history.Entry{
		Tenant:       req.TenantID,
		ProductID:    req.ProductID,
		ProductTitle: req.ProductTitle,
		Vibe:         req.Vibe,
		Format:       req.Format,
		Description:  result.Description,
		Socials:      socials,
	}); err != nil {
		s.logger.Warn("Failed to record generation history",
			zap.String("tenant", req.TenantID),
			zap.Error(err))
	}
}
