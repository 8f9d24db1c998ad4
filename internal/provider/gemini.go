package provider

import (
	"fmt"
	"strings"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// geminiFormat is the candidate-array variant. Authentication travels as a
// query parameter, so error reporting must use the credential-free endpoint.
type geminiFormat struct{}

// NewGemini builds the Gemini-format provider adapter.
func NewGemini(cfg Config) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGeminiBaseURL
	}
	return newAdapter(geminiFormat{}, cfg)
}

func (geminiFormat) name() string { return "gemini" }

func (f geminiFormat) endpoint(cfg Config, key string) string {
	return f.reportEndpoint(cfg) + "?alt=sse&key=" + key
}

func (geminiFormat) reportEndpoint(cfg Config) string {
	return fmt.Sprintf("%s/models/%s:streamGenerateContent", strings.TrimRight(cfg.BaseURL, "/"), cfg.Model)
}

func (geminiFormat) headers(_ Config, _ string) map[string]string {
	return nil
}

type geminiReqPart struct {
	Text       string `json:"text,omitempty"`
	InlineData *struct {
		MIMEType string `json:"mime_type"`
		Data     string `json:"data"`
	} `json:"inline_data,omitempty"`
}

type geminiReqContent struct {
	Role  string          `json:"role,omitempty"`
	Parts []geminiReqPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiReqContent  `json:"system_instruction,omitempty"`
	Contents          []geminiReqContent `json:"contents"`
	GenerationConfig  struct {
		MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
		Temperature     float32 `json:"temperature,omitempty"`
	} `json:"generationConfig"`
}

func (geminiFormat) body(cfg Config, req Request) (any, error) {
	parts := []geminiReqPart{{Text: req.Prompt}}
	if req.IsBinary {
		part := geminiReqPart{}
		part.InlineData = &struct {
			MIMEType string `json:"mime_type"`
			Data     string `json:"data"`
		}{MIMEType: req.MIMEType, Data: req.Content}
		parts = append(parts, part)
	} else if req.Content != "" {
		parts = append(parts, geminiReqPart{Text: req.Content})
	}

	body := geminiRequest{
		Contents: []geminiReqContent{{Role: "user", Parts: parts}},
	}
	if req.SystemPrompt != "" {
		body.SystemInstruction = &geminiReqContent{Parts: []geminiReqPart{{Text: req.SystemPrompt}}}
	}
	body.GenerationConfig.MaxOutputTokens = cfg.MaxTokens
	body.GenerationConfig.Temperature = cfg.Temperature
	return body, nil
}

func (geminiFormat) newParser() FrameParser { return newGeminiFrameParser() }

var _ wireFormat = geminiFormat{}
