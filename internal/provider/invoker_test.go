package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steven-jianhao-li/zotero-ai-butler/internal/keyring"
	"github.com/steven-jianhao-li/zotero-ai-butler/internal/models"
)

// scriptedProvider fails for every key in failKeys and succeeds otherwise,
// recording the keys it was called with.
type scriptedProvider struct {
	name     string
	failKeys map[string]error
	calls    []string
}

func (p *scriptedProvider) Name() string  { return p.name }
func (p *scriptedProvider) Model() string { return "test-model" }

func (p *scriptedProvider) Send(ctx context.Context, req Request, key string, onDelta func(string)) (string, error) {
	p.calls = append(p.calls, key)
	if err, ok := p.failKeys[key]; ok {
		return "", err
	}
	if onDelta != nil {
		onDelta("result")
	}
	return "result", nil
}

func newTestInvoker(p Provider, keys ...string) (*Invoker, *keyring.Keyring) {
	reg := NewRegistry()
	reg.Register(p)
	ring := keyring.New()
	ring.SetKeys(p.Name(), keys)
	return NewInvoker(reg, ring), ring
}

func TestInvokerSucceedsFirstTry(t *testing.T) {
	p := &scriptedProvider{name: "openai"}
	iv, ring := newTestInvoker(p, "k1", "k2")

	text, err := iv.Invoke(context.Background(), "openai", Request{Prompt: "x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "result", text)
	assert.Equal(t, []string{"k1"}, p.calls)

	// Success advances the ring so the next call spreads load.
	key, err := ring.Current("openai")
	require.NoError(t, err)
	assert.Equal(t, "k2", key)
}

func TestInvokerRotatesOnFailure(t *testing.T) {
	p := &scriptedProvider{
		name:     "openai",
		failKeys: map[string]error{"k1": errors.New("rate limited")},
	}
	iv, ring := newTestInvoker(p, "k1", "k2")

	text, err := iv.Invoke(context.Background(), "openai", Request{Prompt: "x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "result", text)
	assert.Equal(t, []string{"k1", "k2"}, p.calls)

	// The key that actually worked stays current for the next call.
	key, err := ring.Current("openai")
	require.NoError(t, err)
	assert.Equal(t, "k2", key)
}

func TestInvokerExhaustsAllKeys(t *testing.T) {
	boom := errors.New("rate limited")
	p := &scriptedProvider{
		name:     "openai",
		failKeys: map[string]error{"k1": boom, "k2": boom},
	}
	iv, _ := newTestInvoker(p, "k1", "k2")

	_, err := iv.Invoke(context.Background(), "openai", Request{Prompt: "x"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrKeysExhausted)
	assert.ErrorIs(t, err, boom, "the last provider error stays in the chain")
	// Attempts are bounded by the key count.
	assert.Equal(t, []string{"k1", "k2"}, p.calls)
}

func TestInvokerConfigErrorNotRetried(t *testing.T) {
	cfgErr := &ConfigError{Provider: "openai", Reason: "model not set"}
	p := &scriptedProvider{
		name:     "openai",
		failKeys: map[string]error{"k1": cfgErr, "k2": cfgErr},
	}
	iv, _ := newTestInvoker(p, "k1", "k2")

	_, err := iv.Invoke(context.Background(), "openai", Request{Prompt: "x"}, nil)
	var got *ConfigError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, []string{"k1"}, p.calls, "configuration failures must not burn keys")
}

func TestInvokerCancelledContextNotRetried(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &scriptedProvider{
		name: "openai",
		failKeys: map[string]error{
			"k1": context.Canceled,
			"k2": context.Canceled,
		},
	}
	iv, _ := newTestInvoker(p, "k1", "k2")

	cancel()
	_, err := iv.Invoke(ctx, "openai", Request{Prompt: "x"}, nil)
	require.Error(t, err)
	assert.Len(t, p.calls, 1)
}

func TestInvokerNoKeysIsConfigError(t *testing.T) {
	p := &scriptedProvider{name: "openai"}
	iv, _ := newTestInvoker(p)

	_, err := iv.Invoke(context.Background(), "openai", Request{Prompt: "x"}, nil)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Empty(t, p.calls)
}

func TestInvokerUnknownProvider(t *testing.T) {
	iv := NewInvoker(NewRegistry(), keyring.New())
	_, err := iv.Invoke(context.Background(), "nope", Request{Prompt: "x"}, nil)

	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}
