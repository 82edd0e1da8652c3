package vault

import (
	"context"
	"sync"

	"github.com/creatorledger/core/edcrypto"
	"github.com/creatorledger/core/identity"
)

// MemoryVault is an in-process, non-persistent vault. Keys vanish
// when the process exits. NOT SECURE: intended only for tests and
// headless CI, never for a real creator's secret.
type MemoryVault struct {
	mu   sync.RWMutex
	data map[string][edcrypto.SeedSize]byte
}

// NewMemoryVault returns an empty MemoryVault.
func NewMemoryVault() *MemoryVault {
	return &MemoryVault{data: make(map[string][edcrypto.SeedSize]byte)}
}

func (v *MemoryVault) Store(_ context.Context, creatorID string, secret *edcrypto.PrivateKey) error {
	if err := identity.ValidateCreatorID(creatorID); err != nil {
		return err
	}
	seed, err := secret.Seed()
	if err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.data[creatorID] = seed
	return nil
}

func (v *MemoryVault) Retrieve(_ context.Context, creatorID string) (*edcrypto.PrivateKey, error) {
	if err := identity.ValidateCreatorID(creatorID); err != nil {
		return nil, err
	}
	v.mu.RLock()
	seed, ok := v.data[creatorID]
	v.mu.RUnlock()
	if !ok {
		return nil, ErrAbsent
	}
	return edcrypto.NewPrivateKeyFromSeed(seed[:])
}

func (v *MemoryVault) Delete(_ context.Context, creatorID string) (bool, error) {
	if err := identity.ValidateCreatorID(creatorID); err != nil {
		return false, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	_, existed := v.data[creatorID]
	delete(v.data, creatorID)
	return existed, nil
}

func (v *MemoryVault) Exists(_ context.Context, creatorID string) (bool, error) {
	if err := identity.ValidateCreatorID(creatorID); err != nil {
		return false, err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.data[creatorID]
	return ok, nil
}
