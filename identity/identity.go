// Package identity implements the Creator record (C3): a creator's
// id, display name, public key, and creation time. Public keys are
// never modified after construction; rotation is out of scope.
package identity

import (
	"regexp"
	"time"

	"github.com/creatorledger/core/edcrypto"
	"github.com/creatorledger/core/ledgererr"
)

var (
	creatorIDPattern   = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	displayNamePattern = regexp.MustCompile(`^[A-Za-z0-9 \-_.,!?()@]{1,128}$`)
)

// ValidateCreatorID reports whether id is URL-safe and filename-safe
// per §3: it must match [A-Za-z0-9_-]{1,64}.
func ValidateCreatorID(id string) error {
	if !creatorIDPattern.MatchString(id) {
		return ledgererr.New(ledgererr.InvalidInput, "creator id must match [A-Za-z0-9_-]{1,64}")
	}
	return nil
}

// ValidateDisplayName reports whether name matches the allowed charset
// and length 1..128.
func ValidateDisplayName(name string) error {
	if !displayNamePattern.MatchString(name) {
		return ledgererr.New(ledgererr.InvalidInput, "display name must match ^[A-Za-z0-9 \\-_.,!?()@]+$ and be 1..128 characters")
	}
	return nil
}

// Creator is one row of the creator record: id, display name, public
// key, and creation time. RowVersion is reserved for future mutable
// identity fields and is otherwise unused (§9).
type Creator struct {
	CreatorID   string
	DisplayName string
	PublicKey   edcrypto.PublicKey
	CreatedAt   time.Time
	RowVersion  int64
}

// New validates creatorID and displayName and builds a Creator. The
// caller supplies createdAt so minting is reproducible in tests.
func New(creatorID, displayName string, publicKey edcrypto.PublicKey, createdAt time.Time) (*Creator, error) {
	if err := ValidateCreatorID(creatorID); err != nil {
		return nil, err
	}
	if err := ValidateDisplayName(displayName); err != nil {
		return nil, err
	}
	return &Creator{
		CreatorID:   creatorID,
		DisplayName: displayName,
		PublicKey:   publicKey,
		CreatedAt:   createdAt,
		RowVersion:  1,
	}, nil
}
