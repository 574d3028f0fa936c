package oracle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Sampling parameters for OpenAI-compatible endpoints.
const (
	openAITemperature = 0.4
	openAITopP        = 0.7
	openAIMaxTokens   = 8192
)

// OpenAIConfig configures an OpenAI-compatible chat endpoint.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string // empty for api.openai.com
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client // Optional (tests)
}

// OpenAIJudge asks an OpenAI-compatible chat completion endpoint, such as a
// self-hosted qwen deployment.
type OpenAIJudge struct {
	model  string
	client openai.Client
}

// NewOpenAIJudge builds a judge with SDK retries disabled.
func NewOpenAIJudge(cfg OpenAIConfig) *OpenAIJudge {
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIJudge{
		model:  cfg.Model,
		client: openai.NewClient(opts...),
	}
}

// Ask sends prompt with the shared system prompt and returns the first
// choice's content.
func (j *OpenAIJudge) Ask(ctx context.Context, prompt string) (string, error) {
	resp, err := j.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: j.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(openAITemperature),
		TopP:        openai.Float(openAITopP),
		MaxTokens:   openai.Int(openAIMaxTokens),
	})
	if err != nil {
		return "", mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty response from openai endpoint")
	}
	return resp.Choices[0].Message.Content, nil
}

func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &StatusError{StatusCode: apiErr.StatusCode, Message: apiErr.Message}
	}
	return fmt.Errorf("openai chat: %w", err)
}
