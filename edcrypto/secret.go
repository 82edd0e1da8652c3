package edcrypto

import (
	"crypto/ed25519"
	"sync"

	"github.com/creatorledger/core/ledgererr"
)

// PrivateKey owns a 32-byte Ed25519 seed. It exposes the seed only
// through Seed, which fails once the key has been released, and it
// zeroes the backing array on Release so the bytes do not linger in
// process memory any longer than necessary. Copies are made only
// through Clone, never implicitly.
type PrivateKey struct {
	mu       sync.Mutex
	seed     [SeedSize]byte
	released bool
}

func newPrivateKey(seed []byte) *PrivateKey {
	sk := &PrivateKey{}
	copy(sk.seed[:], seed)
	return sk
}

// NewPrivateKeyFromSeed wraps a caller-supplied 32-byte seed. The
// caller's slice is copied, not retained.
func NewPrivateKeyFromSeed(seed []byte) (*PrivateKey, error) {
	if len(seed) != SeedSize {
		return nil, ledgererr.New(ledgererr.InvalidInput, "seed must be 32 bytes")
	}
	return newPrivateKey(seed), nil
}

// Seed returns a copy of the 32-byte seed. It fails with a lifecycle
// error once the key has been released.
func (k *PrivateKey) Seed() ([SeedSize]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.released {
		return [SeedSize]byte{}, ledgererr.New(ledgererr.Lifecycle, "use of private key after release")
	}
	return k.seed, nil
}

// PublicKey derives the public key for this secret. Fails the same
// way Seed does once released.
func (k *PrivateKey) PublicKey() (PublicKey, error) {
	seed, err := k.Seed()
	if err != nil {
		return PublicKey{}, err
	}
	return DerivePublic(seed), nil
}

// Clone makes an independent, owned copy of the secret. Fails once
// released.
func (k *PrivateKey) Clone() (*PrivateKey, error) {
	seed, err := k.Seed()
	if err != nil {
		return nil, err
	}
	return newPrivateKey(seed[:]), nil
}

// Release zeroes the backing seed and marks the key unusable. Safe to
// call more than once.
func (k *PrivateKey) Release() {
	k.mu.Lock()
	defer k.mu.Unlock()
	for i := range k.seed {
		k.seed[i] = 0
	}
	k.released = true
}

// Released reports whether Release has already been called.
func (k *PrivateKey) Released() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.released
}

// ed25519PrivateKey reconstructs the stdlib's 64-byte representation
// for internal use only; it is never returned to a caller.
func (k *PrivateKey) ed25519PrivateKey() (ed25519.PrivateKey, error) {
	seed, err := k.Seed()
	if err != nil {
		return nil, err
	}
	return ed25519.NewKeyFromSeed(seed[:]), nil
}
