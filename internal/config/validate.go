package config

import "fmt"

// Validate checks the loaded configuration for values that would only
// fail later at an awkward moment.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.Provider == "" {
		return fmt.Errorf("provider must not be empty")
	}
	if _, ok := envKeyVars[c.Provider]; !ok {
		if _, configured := c.Providers[c.Provider]; !configured {
			return fmt.Errorf("unknown provider %q", c.Provider)
		}
	}
	if c.Scheduler.Concurrency < 1 {
		return fmt.Errorf("scheduler.concurrency must be at least 1, got %d", c.Scheduler.Concurrency)
	}
	if c.Scheduler.BatchSize < 1 {
		return fmt.Errorf("scheduler.batch_size must be at least 1, got %d", c.Scheduler.BatchSize)
	}
	if c.Scheduler.PollIntervalSeconds < 1 {
		return fmt.Errorf("scheduler.poll_interval_seconds must be at least 1, got %d", c.Scheduler.PollIntervalSeconds)
	}
	if c.Scheduler.MaxRetries < 0 {
		return fmt.Errorf("scheduler.max_retries must not be negative, got %d", c.Scheduler.MaxRetries)
	}
	if c.Analysis.MaxDocumentChars < 1 {
		return fmt.Errorf("analysis.max_document_chars must be at least 1, got %d", c.Analysis.MaxDocumentChars)
	}
	for id, pc := range c.Providers {
		if pc.Temperature < 0 || pc.Temperature > 2 {
			return fmt.Errorf("providers.%s.temperature must be between 0 and 2, got %g", id, pc.Temperature)
		}
		if pc.MaxTokens < 0 {
			return fmt.Errorf("providers.%s.max_tokens must not be negative, got %d", id, pc.MaxTokens)
		}
	}
	return nil
}
