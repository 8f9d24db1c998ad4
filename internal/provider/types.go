package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Config is the per-provider knob set loaded from configuration.
type Config struct {
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	// Version is the dated API version header some providers require.
	Version string
}

// Request is the uniform payload every provider adapter accepts. Content is
// the document being analyzed, either plain text or base64-encoded binary.
type Request struct {
	SystemPrompt string
	Prompt       string
	Content      string
	IsBinary     bool
	MIMEType     string
}

// Provider wraps one remote API's request construction, authentication and
// stream decoding behind one call contract. Send streams the response,
// invoking onDelta for each decoded text delta, and returns the full
// accumulated text. If any delta was delivered before a transport error or
// abort, Send returns the partial text instead of the error.
type Provider interface {
	Name() string
	Model() string
	Send(ctx context.Context, req Request, key string, onDelta func(string)) (string, error)
}

// Registry maps provider ids to adapters. The set of variants is closed
// (openai, gemini, anthropic) and registered at startup; the registry exists
// so callers dispatch on the configured provider id alone.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	if !ok {
		return nil, &ConfigError{Provider: name, Reason: fmt.Sprintf("unknown provider %q", name)}
	}
	return p, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
