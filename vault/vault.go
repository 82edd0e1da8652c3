// Package vault implements the secret-key vault abstraction: four
// backends sharing one capability set, selected by a small factory
// that routes to the current OS.
package vault

import (
	"context"

	"github.com/creatorledger/core/edcrypto"
)

// Vault persists a creator's Ed25519 secret seed under OS-native
// protection. Store is idempotent: storing over an existing slot
// replaces it atomically from the caller's point of view.
type Vault interface {
	Store(ctx context.Context, creatorID string, secret *edcrypto.PrivateKey) error
	Retrieve(ctx context.Context, creatorID string) (*edcrypto.PrivateKey, error)
	Delete(ctx context.Context, creatorID string) (existed bool, err error)
	Exists(ctx context.Context, creatorID string) (bool, error)
}

// ErrAbsent is a sentinel returned by Retrieve when no secret is
// stored for the given creator. Callers compare with errors.Is.
var ErrAbsent = &absentError{}

type absentError struct{}

func (*absentError) Error() string { return "vault: no secret stored for creator" }
