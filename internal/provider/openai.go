package provider

import (
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// openaiFormat is the delta-object variant. The request body reuses the
// go-openai SDK structs (the canonical chat/completions shape); the
// transport and stream decoding stay ours.
type openaiFormat struct{}

// NewOpenAI builds the OpenAI-format provider adapter.
func NewOpenAI(cfg Config) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenAIBaseURL
	}
	return newAdapter(openaiFormat{}, cfg)
}

func (openaiFormat) name() string { return "openai" }

func (openaiFormat) endpoint(cfg Config, _ string) string {
	return strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions"
}

func (f openaiFormat) reportEndpoint(cfg Config) string {
	return f.endpoint(cfg, "")
}

func (openaiFormat) headers(_ Config, key string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + key}
}

func (openaiFormat) body(cfg Config, req Request) (any, error) {
	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if req.IsBinary {
		user.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: req.Prompt},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL: fmt.Sprintf("data:%s;base64,%s", req.MIMEType, req.Content),
				},
			},
		}
	} else {
		user.Content = req.Prompt
		if req.Content != "" {
			user.Content = req.Prompt + "\n\n" + req.Content
		}
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, user)

	return openai.ChatCompletionRequest{
		Model:       cfg.Model,
		Messages:    messages,
		Stream:      true,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}, nil
}

func (openaiFormat) newParser() FrameParser { return newOpenAIFrameParser() }

var _ wireFormat = openaiFormat{}
