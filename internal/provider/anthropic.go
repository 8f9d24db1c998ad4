package provider

import (
	"strings"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com/v1"
	defaultAnthropicVersion = "2023-06-01"
)

// anthropicFormat is the typed-event variant.
type anthropicFormat struct{}

// NewAnthropic builds the Anthropic-format provider adapter.
func NewAnthropic(cfg Config) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAnthropicBaseURL
	}
	if cfg.Version == "" {
		cfg.Version = defaultAnthropicVersion
	}
	return newAdapter(anthropicFormat{}, cfg)
}

func (anthropicFormat) name() string { return "anthropic" }

func (anthropicFormat) endpoint(cfg Config, _ string) string {
	return strings.TrimRight(cfg.BaseURL, "/") + "/messages"
}

func (f anthropicFormat) reportEndpoint(cfg Config) string {
	return f.endpoint(cfg, "")
}

func (anthropicFormat) headers(cfg Config, key string) map[string]string {
	return map[string]string{
		"x-api-key":         key,
		"anthropic-version": cfg.Version,
	}
}

type anthropicSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicReqContent struct {
	Type   string           `json:"type"`
	Text   string           `json:"text,omitempty"`
	Source *anthropicSource `json:"source,omitempty"`
}

type anthropicMessage struct {
	Role    string                `json:"role"`
	Content []anthropicReqContent `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Stream      bool               `json:"stream"`
	Temperature float32            `json:"temperature,omitempty"`
}

func (anthropicFormat) body(cfg Config, req Request) (any, error) {
	content := []anthropicReqContent{{Type: "text", Text: req.Prompt}}
	if req.IsBinary {
		content = append(content, anthropicReqContent{
			Type:   "document",
			Source: &anthropicSource{Type: "base64", MediaType: req.MIMEType, Data: req.Content},
		})
	} else if req.Content != "" {
		content = append(content, anthropicReqContent{Type: "text", Text: req.Content})
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096 // the messages API rejects requests without a bound
	}

	return anthropicRequest{
		Model:       cfg.Model,
		System:      req.SystemPrompt,
		Messages:    []anthropicMessage{{Role: "user", Content: content}},
		MaxTokens:   maxTokens,
		Stream:      true,
		Temperature: cfg.Temperature,
	}, nil
}

func (anthropicFormat) newParser() FrameParser { return newAnthropicFrameParser() }

var _ wireFormat = anthropicFormat{}
