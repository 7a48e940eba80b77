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

// Package health provides the component health snapshot served by the
// health endpoint.
package health

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	// StatusHealthy represents healthy status
	StatusHealthy = "healthy"
	// StatusUnhealthy represents unhealthy status
	StatusUnhealthy = "unhealthy"
	// StatusDegraded represents degraded status
	StatusDegraded = "degraded"
	// DefaultTimeout is the default timeout for health checks
	DefaultTimeout = 5 * time.Second
)

// CheckResult represents the result of a single component check
type CheckResult struct {
	Status    string        `json:"status"`
	Latency   time.Duration `json:"latency"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// Response represents the complete health check response
type Response struct {
	Status       string                 `json:"status"`
	Service      string                 `json:"service"`
	Uptime       time.Duration          `json:"uptime"`
	Dependencies map[string]CheckResult `json:"dependencies"`
	Timestamp    time.Time              `json:"timestamp"`
}

// Checker is a single component health check
type Checker interface {
	Check(ctx context.Context) CheckResult
}

// CheckerFunc is a function adapter for the Checker interface
type CheckerFunc func(ctx context.Context) CheckResult

// Check implements the Checker interface
func (f CheckerFunc) Check(ctx context.Context) CheckResult {
	return f(ctx)
}

// Manager runs registered checks and aggregates their results.
// Optional dependencies (store, history) report degraded rather than
// unhealthy, because the service keeps working without them.
type Manager struct {
	serviceName string
	startTime   time.Time
	checkers    map[string]Checker
	optional    map[string]bool
	timeout     time.Duration
	logger      *zap.Logger
}

// NewManager creates a health check manager
func NewManager(serviceName string, logger *zap.Logger) *Manager {
	return &Manager{
		serviceName: serviceName,
		startTime:   time.Now(),
		checkers:    make(map[string]Checker),
		optional:    make(map[string]bool),
		timeout:     DefaultTimeout,
		logger:      logger,
	}
}

// Register adds a required component check.
func (m *Manager) Register(name string, checker Checker) {
	m.checkers[name] = checker
}

// RegisterOptional adds a check for a component whose failure only
// degrades the service.
func (m *Manager) RegisterOptional(name string, checker Checker) {
	m.checkers[name] = checker
	m.optional[name] = true
}

// CheckAll runs every registered check and aggregates an overall
// status.
func (m *Manager) CheckAll(ctx context.Context) Response {
	checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	deps := make(map[string]CheckResult, len(m.checkers))
	overall := StatusHealthy

	for name, checker := range m.checkers {
		result := checker.Check(checkCtx)
		deps[name] = result

		if result.Status == StatusHealthy {
			continue
		}

		if m.optional[name] {
			if overall == StatusHealthy {
				overall = StatusDegraded
			}
		} else {
			overall = StatusUnhealthy
		}

		m.logger.Warn("Health check failed",
			zap.String("component", name),
			zap.String("status", result.Status),
			zap.String("error", result.Error))
	}

	return Response{
		Status:       overall,
		Service:      m.serviceName,
		Uptime:       time.Since(m.startTime),
		Dependencies: deps,
		Timestamp:    time.Now(),
	}
}

// CheckFunc wraps a plain error-returning probe into a Checker.
func CheckFunc(probe func(ctx context.Context) error) Checker {
	return CheckerFunc(func(ctx context.Context) CheckResult {
		start := time.Now()
		result := CheckResult{Timestamp: start}

		if err := probe(ctx); err != nil {
			result.Status = StatusUnhealthy
			result.Error = err.Error()
		} else {
			result.Status = StatusHealthy
		}

		result.Latency = time.Since(start)
		return result
	})
}
