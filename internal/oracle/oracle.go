// Package oracle talks to the external yes/no judge used for gray-zone
// decisions. Judges are synchronous and never retry; callers treat every
// error as a negative answer.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SystemPrompt frames every judge request.
const SystemPrompt = "你是一个专业的文档结构分析助手，擅长判断标题和表格结构。"

// Defaults applied when the configuration leaves them unset.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultBudget      = 5
	DefaultOpenAIModel = "qwen3-32b"
)

// Providers accepted by New.
const (
	ProviderNone   = "none"
	ProviderClaude = "claude"
	ProviderOpenAI = "openai"
)

// ErrBudgetExhausted is returned by Budget.Take once a kind's calls are used up.
var ErrBudgetExhausted = errors.New("oracle: call budget exhausted")

// Judge answers one natural-language prompt.
type Judge interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// JudgeFunc adapts a function to Judge.
type JudgeFunc func(ctx context.Context, prompt string) (string, error)

// Ask calls f.
func (f JudgeFunc) Ask(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// StatusError is a non-200 answer from a judge endpoint.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("oracle status %d: %s", e.StatusCode, truncate(e.Message, 200))
}

// Budget counts calls per decision kind within one pipeline run.
type Budget struct {
	mu    sync.Mutex
	limit int
	used  map[string]int
}

// NewBudget returns a budget allowing limit calls per kind. A non-positive
// limit uses DefaultBudget.
func NewBudget(limit int) *Budget {
	if limit <= 0 {
		limit = DefaultBudget
	}
	return &Budget{limit: limit, used: make(map[string]int)}
}

// Take reserves one call for kind.
func (b *Budget) Take(kind string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.used[kind] >= b.limit {
		return ErrBudgetExhausted
	}
	b.used[kind]++
	return nil
}

// Used returns the number of calls reserved for kind.
func (b *Budget) Used(kind string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used[kind]
}

// Config selects and configures a judge.
type Config struct {
	Provider       string
	AnthropicKey   string
	AnthropicModel string
	OpenAIKey      string
	OpenAIBaseURL  string
	OpenAIModel    string
	Timeout        time.Duration
}

// New builds the judge named by cfg.Provider, wrapped with a per-call
// timeout and latency recording into stats. The "none" provider (or an empty
// one) yields a nil Judge, which callers treat as unreachable.
func New(cfg Config, stats *Stats, log *slog.Logger) (Judge, error) {
	var j Judge
	switch cfg.Provider {
	case "", ProviderNone:
		return nil, nil
	case ProviderClaude:
		j = NewClaudeJudge(cfg.AnthropicKey, cfg.AnthropicModel, "")
	case ProviderOpenAI:
		j = NewOpenAIJudge(OpenAIConfig{
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", cfg.Provider)
	}
	return Timed(j, cfg.Timeout, stats, log), nil
}

// Timed bounds every call to j by timeout and records its latency and
// outcome in stats, which may be nil.
func Timed(j Judge, timeout time.Duration, stats *Stats, log *slog.Logger) Judge {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return JudgeFunc(func(ctx context.Context, prompt string) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		start := time.Now()
		answer, err := j.Ask(ctx, prompt)
		elapsed := time.Since(start)
		if stats != nil {
			stats.Record(elapsed.Milliseconds(), err == nil)
		}
		if err != nil {
			log.Warn("oracle call failed", "error", err, "duration_ms", elapsed.Milliseconds())
			return "", err
		}
		log.Debug("oracle call", "duration_ms", elapsed.Milliseconds(), "answer_len", len(answer))
		return answer, nil
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
