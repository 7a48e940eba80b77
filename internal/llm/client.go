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

// Package llm wraps the upstream chat-completion endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// systemInstruction is the fixed system message sent with every
// generation request.
const systemInstruction = "You are an expert e-commerce copywriter. You write persuasive, on-brand product descriptions in clean HTML and follow output format instructions exactly."

// Completer is the upstream call the orchestrator depends on.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// StatusError is a non-2xx upstream response, carrying the status
// code and response body for diagnostics.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Body)
}

// TimeoutError is an upstream call aborted by the per-call deadline.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("upstream call timed out: %v", e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// Options configures the upstream client.
type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
}

// Client calls a chat-completion-style endpoint with bearer auth.
type Client struct {
	client *openai.Client
	opts   Options
	logger *zap.Logger
}

// NewClient creates an upstream client. No connection or credential
// check happens here; a missing key is the orchestrator's problem, on
// first use.
func NewClient(opts Options, logger *zap.Logger) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	return &Client{
		client: openai.NewClientWithConfig(cfg),
		opts:   opts,
		logger: logger,
	}
}

// Complete sends the prompt as a single user message and returns the
// first choice's content. Errors are classified: context deadline
// expiry becomes *TimeoutError, non-2xx responses become
// *StatusError.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
	}

	c.logger.Debug("Calling upstream completion endpoint",
		zap.String("model", c.opts.Model),
		zap.Int("max_tokens", c.opts.MaxTokens),
		zap.Int("prompt_length", len(prompt)),
	)

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyError(ctx, err)
	}

	if len(resp.Choices) == 0 {
		return "", &StatusError{Status: 200, Body: "no choices in completion response"}
	}

	c.logger.Debug("Upstream completion succeeded",
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	return resp.Choices[0].Message.Content, nil
}

// classifyError maps transport errors into the package's taxonomy.
func classifyError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Err: err}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &StatusError{
			Status: apiErr.HTTPStatusCode,
			Body:   apiErr.Message,
		}
	}

	var statusErr *openai.RequestError
	if errors.As(err, &statusErr) {
		return &StatusError{
			Status: statusErr.HTTPStatusCode,
			Body:   statusErr.Error(),
		}
	}

	return fmt.Errorf("upstream call failed: %w", err)
}
