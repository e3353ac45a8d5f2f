package gemini

import (
	"slices"
	"sync"

	"github.com/ai-rustic/OCR-Bill2Sheet/pkg/apierr"
)

// KeyRotator hands out API keys in round-robin order so that quota is
// spread across the configured pool. One instance is shared by every
// request; Next is the only critical section.
type KeyRotator struct {
	mu   sync.Mutex
	keys []string
	next int
}

func NewKeyRotator(keys []string) *KeyRotator {
	return &KeyRotator{keys: slices.Clone(keys)}
}

func (r *KeyRotator) Next() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.keys) == 0 {
		return "", apierr.New(apierr.KindConfiguration, "gemini API key is not configured")
	}

	key := r.keys[r.next%len(r.keys)]
	r.next = (r.next + 1) % len(r.keys)
	return key, nil
}

// SetKeys replaces the key pool. Rotation restarts from the beginning
// of the new set; an identical set keeps the current position.
func (r *KeyRotator) SetKeys(keys []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if slices.Equal(r.keys, keys) {
		return
	}
	r.keys = slices.Clone(keys)
	r.next = 0
}
