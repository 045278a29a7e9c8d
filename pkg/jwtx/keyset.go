package jwtx

import (
	"crypto/ed25519"
	"sync"
)

// KeySet holds the Ed25519 public verification keys in memory, keyed by kid.
// It's thread-safe so the verifier can be shared across request handlers.
type KeySet struct {
	mu  sync.RWMutex
	pub map[string]ed25519.PublicKey
}

// NewKeySet returns an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{pub: make(map[string]ed25519.PublicKey)}
}

// Add registers a public key under the given kid, replacing any previous key.
func (k *KeySet) Add(kid string, pub ed25519.PublicKey) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pub[kid] = pub
}

// AddSigner registers a Signer's public key into the KeySet.
func (k *KeySet) AddSigner(s *EdDSASigner) {
	k.Add(s.KID(), s.Public())
}

// Get returns the public key for the given kid.
func (k *KeySet) Get(kid string) (ed25519.PublicKey, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if pk, ok := k.pub[kid]; ok {
		return pk, nil
	}
	return nil, ErrUnknownKID
}

// IsReady returns true if the KeySet has at least one key loaded.
func (k *KeySet) IsReady() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.pub) > 0
}
