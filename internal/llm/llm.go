package llm

import (
	"context"
	"errors"
)

// Provider names reported to callers.
const (
	ProviderNone     = "none"
	ProviderDeepSeek = "deepseek"
	ProviderOpenAI   = "openai"
)

// Message is one chat message.
type Message struct {
	Role    string
	Content string
}

// Options tune a single completion.
type Options struct {
	Temperature *float32
	MaxTokens   int
}

// Temperature returns a pointer for Options.Temperature.
func Temperature(v float32) *float32 { return &v }

// Client abstracts chat completion providers.
type Client interface {
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)
	Provider() string
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("no LLM provider configured")

// PlaceholderClient stands in when no provider key is set.
type PlaceholderClient struct{}

// Complete returns ErrNotConfigured.
func (PlaceholderClient) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	_ = ctx
	_ = messages
	_ = opts
	return "", ErrNotConfigured
}

func (PlaceholderClient) Provider() string { return ProviderNone }
