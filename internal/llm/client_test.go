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

package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

func TestClassifyError_DeadlineBecomesTimeout(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	err := classifyError(ctx, fmt.Errorf("request aborted: %w", context.DeadlineExceeded))

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Errorf("expected *TimeoutError, got %T: %v", err, err)
	}
}

func TestClassifyError_APIErrorCarriesStatusAndBody(t *testing.T) {
	apiErr := &openai.APIError{
		HTTPStatusCode: 503,
		Message:        "model overloaded",
	}

	err := classifyError(context.Background(), apiErr)

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %T: %v", err, err)
	}
	if statusErr.Status != 503 {
		t.Errorf("expected status 503, got %d", statusErr.Status)
	}
	if statusErr.Body != "model overloaded" {
		t.Errorf("expected body to carry the upstream message, got %q", statusErr.Body)
	}
}

func TestClassifyError_UnknownErrorPassesThrough(t *testing.T) {
	cause := errors.New("connection reset by peer")

	err := classifyError(context.Background(), cause)

	if !errors.Is(err, cause) {
		t.Errorf("unknown errors should wrap the cause, got %v", err)
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		t.Error("plain transport errors must not be classified as status errors")
	}
}

func TestNewClient_NoCredentialCheckAtConstruction(t *testing.T) {
	// Missing credentials are reported lazily on first call, never at
	// construction, so a store can boot unconfigured.
	c := NewClient(Options{Model: "gpt-4o-mini"}, zap.NewNop())
	if c == nil {
		t.Fatal("client construction must succeed without an API key")
	}
}
