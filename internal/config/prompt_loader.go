package config

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

const defaultSystemPrompt = `You are a meticulous research assistant. You read academic papers and
library documents and produce concise, faithful summaries. Report only
what the document supports; never invent citations or results.`

const defaultTaskPrompt = `Summarize the following document. Cover the research question, the
method, the key findings, and any stated limitations. Keep the summary
under 400 words and write it in plain prose.`

// promptsDir is where user prompt overrides live when a configured file
// path is relative.
func promptsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "prompts"
	}
	return filepath.Join(home, ".config", "butler", "prompts")
}

// loadPromptFile reads a prompt override from disk. Relative paths
// resolve under the user prompts directory.
func loadPromptFile(path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(promptsDir(), path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt file %s: %w", path, err)
	}
	return string(data), nil
}

// SystemPrompt returns the configured system prompt, falling back to the
// built-in prompt when no override file is set or readable.
func (c *Config) SystemPrompt() string {
	if c.Analysis.SystemPromptFile == "" {
		return defaultSystemPrompt
	}
	content, err := loadPromptFile(c.Analysis.SystemPromptFile)
	if err != nil {
		log.Warnf("Falling back to built-in system prompt: %v", err)
		return defaultSystemPrompt
	}
	return content
}

// TaskPrompt returns the configured task prompt, falling back to the
// built-in prompt when no override file is set or readable.
func (c *Config) TaskPrompt() string {
	if c.Analysis.TaskPromptFile == "" {
		return defaultTaskPrompt
	}
	content, err := loadPromptFile(c.Analysis.TaskPromptFile)
	if err != nil {
		log.Warnf("Falling back to built-in task prompt: %v", err)
		return defaultTaskPrompt
	}
	return content
}
