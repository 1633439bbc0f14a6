// Package solver talks to an OpenAI-compatible chat-completion backend that solves homework tasks.
package solver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/dskvich/homework-solver-bot/pkg/domain"
	"github.com/dskvich/homework-solver-bot/pkg/logger"
)

const maxResponseBytes = 4 << 20

type Client struct {
	url     string
	apiKey  string
	model   string
	timeout time.Duration
	hc      *http.Client
}

func NewClient(url, apiKey, model string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is empty")
	}
	if url == "" {
		return nil, fmt.Errorf("api url is empty")
	}
	return &Client{
		url:     url,
		apiKey:  apiKey,
		model:   model,
		timeout: timeout,
		hc:      &http.Client{},
	}, nil
}

// NewRequest builds the immutable request for a single task.
func (c *Client) NewRequest(taskText string) domain.SolveRequest {
	return domain.SolveRequest{
		SystemPrompt: systemPrompt,
		UserText:     taskText,
		ModelID:      c.model,
		MaxTokens:    defaultMaxTokens,
		Temperature:  defaultTemperature,
		Timeout:      c.timeout,
	}
}

// Solve sends the task to the backend once. It never returns an error: every outcome is
// folded into the SolveResult.
func (c *Client) Solve(ctx context.Context, taskText string) domain.SolveResult {
	req := c.NewRequest(taskText)

	slog.InfoContext(ctx, "Calling solver", "model", req.ModelID, "taskLength", len(req.UserText))

	payload, reason := c.do(ctx, req)
	if reason != "" {
		return domain.Failed(reason)
	}

	answer, ok := ParseResponse(payload)
	if !ok {
		slog.ErrorContext(ctx, "Unknown solver response format", "body", excerpt(payload))
		return domain.Failed(domain.FailureUnparseable)
	}

	slog.InfoContext(ctx, "Solver answer received", "answerLength", len(answer))

	return domain.Solved(answer)
}

func (c *Client) do(ctx context.Context, r domain.SolveRequest) ([]byte, domain.FailureReason) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(openai.ChatCompletionRequest{
		Model: r.ModelID,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: r.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: r.UserText},
		},
		MaxTokens:   r.MaxTokens,
		Temperature: r.Temperature,
	})
	if err != nil {
		slog.ErrorContext(ctx, "Marshaling solver request", logger.Err(err))
		return nil, domain.FailureNetwork
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		slog.ErrorContext(ctx, "Creating solver request", logger.Err(err))
		return nil, domain.FailureNetwork
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		reason := classify(ctx, err)
		slog.ErrorContext(ctx, "Executing solver request", "reason", reason, logger.Err(err))
		return nil, reason
	}
	defer func(Body io.ReadCloser) {
		if closeErr := Body.Close(); closeErr != nil {
			slog.ErrorContext(ctx, "Closing solver response body", logger.Err(closeErr))
		}
	}(resp.Body)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		reason := classify(ctx, err)
		slog.ErrorContext(ctx, "Reading solver response", "reason", reason, logger.Err(err))
		return nil, reason
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.ErrorContext(ctx, "Unexpected solver status", "status", resp.StatusCode, "body", excerpt(data))
		return nil, domain.FailureBadStatus
	}

	return data, ""
}

func classify(ctx context.Context, err error) domain.FailureReason {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.FailureTimeout
	}
	return domain.FailureNetwork
}

func excerpt(b []byte) string {
	const limit = 512
	if len(b) > limit {
		return string(b[:limit]) + "…"
	}
	return string(b)
}
