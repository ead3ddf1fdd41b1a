package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"clinical-backend/internal/llm"
	"clinical-backend/internal/shared/telemetry"
	"clinical-backend/internal/shared/util"
)

const (
	OpenAIBaseURL   = "https://api.openai.com/v1"
	DeepSeekBaseURL = "https://api.deepseek.com"

	OpenAIModel   = "gpt-4o-mini"
	DeepSeekModel = "deepseek-chat"
)

// Config describes one OpenAI-compatible chat endpoint.
type Config struct {
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// Client implements llm.Client against an OpenAI-compatible Chat Completions API.
type Client struct {
	provider   string
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient constructs a chat client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("model is required for %s", cfg.Provider)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required for %s", cfg.Provider)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = OpenAIBaseURL
	}
	return &Client{
		provider: cfg.Provider,
		endpoint: base + "/chat/completions",
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// FromKeys prefers DeepSeek, then OpenAI, and falls back to the placeholder client.
func FromKeys(deepseekKey, openaiKey string, timeout time.Duration) llm.Client {
	if strings.TrimSpace(deepseekKey) != "" {
		c, err := NewClient(Config{Provider: llm.ProviderDeepSeek, BaseURL: DeepSeekBaseURL, APIKey: deepseekKey, Model: DeepSeekModel, Timeout: timeout})
		if err == nil {
			return c
		}
	}
	if strings.TrimSpace(openaiKey) != "" {
		c, err := NewClient(Config{Provider: llm.ProviderOpenAI, BaseURL: OpenAIBaseURL, APIKey: openaiKey, Model: OpenAIModel, Timeout: timeout})
		if err == nil {
			return c
		}
	}
	return llm.PlaceholderClient{}
}

func (c *Client) Provider() string { return c.provider }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *chatResponseUsage `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

type chatResponseUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Complete sends messages and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	reqMessages := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		reqMessages = append(reqMessages, chatMessage{Role: m.Role, Content: m.Content})
	}
	reqBody := chatRequest{
		Model:     c.model,
		Messages:  reqMessages,
		MaxTokens: opts.MaxTokens,
	}
	if !isGPT5(c.model) {
		reqBody.Temperature = opts.Temperature
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", fmt.Errorf("%s request timeout: %w", c.provider, err)
		}
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode >= 400 {
			return "", fmt.Errorf("%s http status %d: %s", c.provider, resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return "", fmt.Errorf("%s response parse: %w", c.provider, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%s http status %d: %s (%s)", c.provider, resp.StatusCode, parsed.Error.Message, parsed.Error.Type)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%s http status %d: %s", c.provider, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%s response missing choices", c.provider)
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%s response empty content", c.provider)
	}
	c.logUsage(messages, parsed.Usage, time.Since(start))
	return content, nil
}

func (c *Client) logUsage(messages []llm.Message, usage *chatResponseUsage, elapsed time.Duration) {
	fields := map[string]any{
		"provider":    c.provider,
		"model":       c.model,
		"prompt_hash": util.SHA256Hex(promptStringFromMessages(messages)),
		"duration_ms": elapsed.Milliseconds(),
	}
	if usage != nil {
		fields["prompt_tokens"] = usage.PromptTokens
		fields["completion_tokens"] = usage.CompletionTokens
		fields["total_tokens"] = usage.TotalTokens
	}
	telemetry.Info("llm.response", fields)
}

func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

func promptStringFromMessages(messages []llm.Message) string {
	var b strings.Builder
	for i, m := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}

var _ llm.Client = (*Client)(nil)
