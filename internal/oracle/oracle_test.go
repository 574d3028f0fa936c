package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClaudeJudge_Ask(t *testing.T) {
	var got anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "k" || r.Header.Get("anthropic-version") == "" {
			t.Errorf("missing auth headers: %v", r.Header)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"content":[{"type":"text","text":"1. 是\n"},{"type":"text","text":"2. 否"}]}`)
	}))
	defer srv.Close()

	j := NewClaudeJudge("k", "claude-test", srv.URL)
	defer j.Close()
	answer, err := j.Ask(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if answer != "1. 是\n2. 否" {
		t.Errorf("unexpected answer %q", answer)
	}
	if got.System != SystemPrompt || got.MaxTokens != claudeMaxTokens || got.Messages[0].Content != "prompt" {
		t.Errorf("unexpected request %+v", got)
	}
}

func TestClaudeJudge_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClaudeJudge("k", "m", srv.URL).Ask(context.Background(), "p")
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected StatusError 503, got %v", err)
	}
}

func TestOpenAIJudge_Ask(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"c1","object":"chat.completion","created":0,"model":"qwen3-32b",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"1. yes"}}]}`)
	}))
	defer srv.Close()

	j := NewOpenAIJudge(OpenAIConfig{APIKey: "k", BaseURL: srv.URL + "/v1", Timeout: time.Second})
	answer, err := j.Ask(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if answer != "1. yes" {
		t.Errorf("unexpected answer %q", answer)
	}
	if body["model"] != DefaultOpenAIModel || body["temperature"] != 0.4 || body["top_p"] != 0.7 {
		t.Errorf("unexpected request body %v", body)
	}
	msgs, _ := body["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected system and user messages, got %v", body["messages"])
	}
}

func TestOpenAIJudge_StatusErrorNoRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":{"message":"boom","type":"server_error"}}`)
	}))
	defer srv.Close()

	j := NewOpenAIJudge(OpenAIConfig{APIKey: "k", BaseURL: srv.URL + "/v1", Timeout: time.Second})
	_, err := j.Ask(context.Background(), "p")
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected StatusError 500, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single attempt, got %d", calls)
	}
}

func TestBudget(t *testing.T) {
	b := NewBudget(2)
	for i := 0; i < 2; i++ {
		if err := b.Take("heading"); err != nil {
			t.Fatalf("take %d: %v", i, err)
		}
	}
	if err := b.Take("heading"); !errors.Is(err, ErrBudgetExhausted) {
		t.Fatalf("expected ErrBudgetExhausted, got %v", err)
	}
	if err := b.Take("subtable"); err != nil {
		t.Fatalf("kinds should have separate budgets: %v", err)
	}
	if b.Used("heading") != 2 || b.Used("subtable") != 1 {
		t.Errorf("unexpected usage %d/%d", b.Used("heading"), b.Used("subtable"))
	}
	if NewBudget(0).limit != DefaultBudget {
		t.Error("non-positive limit should fall back to the default")
	}
}

func TestTimed_TimeoutAndStats(t *testing.T) {
	stats := NewStats(time.Hour)
	slow := JudgeFunc(func(ctx context.Context, prompt string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	_, err := Timed(slow, 20*time.Millisecond, stats, nil).Ask(context.Background(), "p")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	echo := JudgeFunc(func(ctx context.Context, prompt string) (string, error) {
		return strings.ToUpper(prompt), nil
	})
	answer, err := Timed(echo, time.Second, stats, nil).Ask(context.Background(), "ok")
	if err != nil || answer != "OK" {
		t.Fatalf("unexpected %q %v", answer, err)
	}

	snap := stats.Snapshot()
	if snap.Count != 2 || snap.Failures != 1 {
		t.Errorf("expected 2 calls with 1 failure, got %+v", snap)
	}
}

func TestNew(t *testing.T) {
	j, err := New(Config{Provider: ProviderNone}, nil, nil)
	if err != nil || j != nil {
		t.Fatalf("none provider should yield nil judge, got %v %v", j, err)
	}
	if _, err := New(Config{Provider: "bogus"}, nil, nil); err == nil {
		t.Fatal("expected error for unknown provider")
	}
	j, err = New(Config{Provider: ProviderClaude, AnthropicKey: "k", AnthropicModel: "m"}, nil, nil)
	if err != nil || j == nil {
		t.Fatalf("claude provider: %v %v", j, err)
	}
}
