package solver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/dskvich/homework-solver-bot/pkg/domain"
)

func newTestClient(t *testing.T, url string, timeout time.Duration) *Client {
	t.Helper()
	c, err := NewClient(url, "secret", "test-model", timeout)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClientRequiresKeyAndURL(t *testing.T) {
	if _, err := NewClient("http://localhost", "", "m", time.Second); err == nil {
		t.Error("expected error for empty api key")
	}
	if _, err := NewClient("", "key", "m", time.Second); err == nil {
		t.Error("expected error for empty url")
	}
}

func TestSolveSendsChatCompletionRequest(t *testing.T) {
	var got openai.ChatCompletionRequest
	var auth, contentType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		contentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"x = 4"}}]}`))
	}))
	defer srv.Close()

	res := newTestClient(t, srv.URL, time.Second).Solve(context.Background(), "2x = 8")

	if !res.OK() || res.Answer() != "x = 4" {
		t.Fatalf("Solve() = %+v, want answer %q", res, "x = 4")
	}
	if auth != "Bearer secret" {
		t.Errorf("Authorization = %q", auth)
	}
	if contentType != "application/json" {
		t.Errorf("Content-Type = %q", contentType)
	}
	if got.Model != "test-model" || got.MaxTokens != 2000 || got.Temperature != 0.7 {
		t.Errorf("unexpected request parameters: model=%q maxTokens=%d temperature=%v", got.Model, got.MaxTokens, got.Temperature)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(got.Messages))
	}
	if got.Messages[0].Role != openai.ChatMessageRoleSystem || got.Messages[0].Content != systemPrompt {
		t.Errorf("first message is not the system prompt: %+v", got.Messages[0])
	}
	if got.Messages[1].Role != openai.ChatMessageRoleUser || got.Messages[1].Content != "2x = 8" {
		t.Errorf("second message is not the task: %+v", got.Messages[1])
	}
}

func TestSolveFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    domain.FailureReason
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			want: domain.FailureBadStatus,
		},
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			want: domain.FailureBadStatus,
		},
		{
			name: "unknown body shape",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"result":"x"}`))
			},
			want: domain.FailureUnparseable,
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`<html></html>`))
			},
			want: domain.FailureUnparseable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			res := newTestClient(t, srv.URL, time.Second).Solve(context.Background(), "task")
			if res.OK() {
				t.Fatalf("Solve() succeeded with %q, want failure %q", res.Answer(), tt.want)
			}
			if res.Reason() != tt.want {
				t.Errorf("Reason() = %q, want %q", res.Reason(), tt.want)
			}
		})
	}
}

func TestSolveTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	timeout := 100 * time.Millisecond
	start := time.Now()
	res := newTestClient(t, srv.URL, timeout).Solve(context.Background(), "task")
	elapsed := time.Since(start)

	if res.Reason() != domain.FailureTimeout {
		t.Errorf("Reason() = %q, want %q", res.Reason(), domain.FailureTimeout)
	}
	if elapsed > timeout+2*time.Second {
		t.Errorf("Solve took %v, want it bounded by the timeout", elapsed)
	}
}

func TestSolveNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	res := newTestClient(t, url, time.Second).Solve(context.Background(), "task")
	if res.Reason() != domain.FailureNetwork {
		t.Errorf("Reason() = %q, want %q", res.Reason(), domain.FailureNetwork)
	}
	if res.Err() != domain.ErrSolverNetwork {
		t.Errorf("Err() = %v, want %v", res.Err(), domain.ErrSolverNetwork)
	}
}
