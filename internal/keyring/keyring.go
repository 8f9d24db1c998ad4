// Package keyring holds the process-lifetime API credential sets and the
// rotation cursor used to spread load and survive exhausted keys.
package keyring

import (
	"fmt"
	"sync"

	"github.com/steven-jianhao-li/zotero-ai-butler/internal/models"
)

type keySet struct {
	keys []string
	// cursor is the committed position; trial counts failed rotations since
	// the last success. Current reads cursor+trial, so a rotation only
	// becomes the committed position once the rotated key succeeds. trial
	// also bounds how far a failure may walk the ring before giving up.
	cursor int
	trial  int
}

// Keyring maps provider ids to ordered credential lists.
type Keyring struct {
	mu   sync.Mutex
	sets map[string]*keySet
}

func New() *Keyring {
	return &Keyring{sets: make(map[string]*keySet)}
}

// SetKeys installs the ordered key list for a provider, resetting the
// cursor. Empty keys are dropped.
func (k *Keyring) SetKeys(provider string, keys []string) {
	clean := make([]string, 0, len(keys))
	for _, key := range keys {
		if key != "" {
			clean = append(clean, key)
		}
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.sets[provider] = &keySet{keys: clean}
}

// Current returns the key the next call should use.
func (k *Keyring) Current(provider string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	set, ok := k.sets[provider]
	if !ok || len(set.keys) == 0 {
		return "", fmt.Errorf("no api keys configured for provider %s: %w", provider, models.ErrNotFound)
	}
	return set.keys[(set.cursor+set.trial)%len(set.keys)], nil
}

// Advance commits one step past the committed position after a success.
// Rotating on success too keeps load spread evenly across the configured
// keys, and a success on a rotated key leaves that key current.
func (k *Keyring) Advance(provider string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	set, ok := k.sets[provider]
	if !ok || len(set.keys) == 0 {
		return
	}
	set.cursor = (set.cursor + 1) % len(set.keys)
	set.trial = 0
}

// Rotate moves to the next key after a failure without committing the
// cursor. It returns false once every key has been visited since the last
// success, signaling exhaustion.
func (k *Keyring) Rotate(provider string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	set, ok := k.sets[provider]
	if !ok || len(set.keys) == 0 {
		return false
	}

	set.trial++
	if set.trial >= len(set.keys) {
		set.trial = 0
		return false
	}
	return true
}

// KeyCount returns how many keys a provider has configured.
func (k *Keyring) KeyCount(provider string) int {
	k.mu.Lock()
	defer k.mu.Unlock()

	set, ok := k.sets[provider]
	if !ok {
		return 0
	}
	return len(set.keys)
}
