package provider

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/steven-jianhao-li/zotero-ai-butler/internal/keyring"
	"github.com/steven-jianhao-li/zotero-ai-butler/internal/models"
)

// Invoker wraps a provider call with credential rotation. Retries are
// bounded by the number of configured keys, not a fixed constant: each
// failure rotates to the next key until the ring reports exhaustion.
type Invoker struct {
	registry *Registry
	keys     *keyring.Keyring
}

func NewInvoker(registry *Registry, keys *keyring.Keyring) *Invoker {
	return &Invoker{registry: registry, keys: keys}
}

func (iv *Invoker) Invoke(ctx context.Context, providerID string, req Request, onDelta func(string)) (string, error) {
	p, err := iv.registry.Get(providerID)
	if err != nil {
		return "", err
	}
	if iv.keys.KeyCount(providerID) == 0 {
		return "", &ConfigError{Provider: providerID, Reason: "no api keys configured"}
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		key, err := iv.keys.Current(providerID)
		if err != nil {
			return "", &ConfigError{Provider: providerID, Reason: err.Error()}
		}

		text, err := p.Send(ctx, req, key, onDelta)
		if err == nil {
			iv.keys.Advance(providerID)
			return text, nil
		}
		lastErr = err

		// Misconfiguration and caller cancellation cannot be fixed by
		// switching credentials.
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) || ctx.Err() != nil {
			return "", err
		}

		log.Warnf("Provider %s attempt %d failed, rotating key: %v", providerID, attempt, err)
		if !iv.keys.Rotate(providerID) {
			return "", fmt.Errorf("provider %s: %w: %w", providerID, models.ErrKeysExhausted, lastErr)
		}
	}
}
