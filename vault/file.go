package vault

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/creatorledger/core/edcrypto"
	"github.com/creatorledger/core/identity"
	"github.com/creatorledger/core/ledgererr"
)

// sealer wraps the platform data-protection primitive used to
// encrypt a seed before it touches disk. On GOOS=windows this is real
// DPAPI (file_windows.go); everywhere else it is a documented AES-GCM
// stand-in (file_other.go) so the rest of FileVault's behavior is
// still exercisable and testable off Windows.
type sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(ciphertext []byte) ([]byte, error)
}

// FileVault implements V-File: it encrypts a creator's 32-byte seed
// under a platform data-protection primitive and writes the
// ciphertext to {base}/{creator_id}.key.
type FileVault struct {
	base   string
	sealer sealer
}

// NewFileVault returns a FileVault rooted at base. base is created
// with user-only permissions if it does not already exist.
func NewFileVault(base string) (*FileVault, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return nil, ledgererr.Wrap(ledgererr.Storage, "failed to resolve vault base directory", err)
	}
	if err := os.MkdirAll(absBase, 0o700); err != nil {
		return nil, ledgererr.Wrap(ledgererr.Storage, "failed to create vault base directory", err)
	}
	return &FileVault{base: absBase, sealer: defaultSealer()}, nil
}

// resolvePath computes {base}/{creator_id}.key and enforces the
// path-containment invariant defensively, even though creator_id's
// charset already forbids traversal sequences.
func (v *FileVault) resolvePath(creatorID string) (string, error) {
	if err := identity.ValidateCreatorID(creatorID); err != nil {
		return "", err
	}
	candidate := filepath.Join(v.base, creatorID+".key")
	absCandidate, err := filepath.Abs(candidate)
	if err != nil {
		return "", ledgererr.Wrap(ledgererr.Storage, "failed to resolve key path", err)
	}
	rel, err := filepath.Rel(v.base, absCandidate)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ledgererr.New(ledgererr.PathTraversal, "resolved key path escapes vault base directory")
	}
	return absCandidate, nil
}

func (v *FileVault) Store(_ context.Context, creatorID string, secret *edcrypto.PrivateKey) error {
	path, err := v.resolvePath(creatorID)
	if err != nil {
		return err
	}
	seed, err := secret.Seed()
	if err != nil {
		return err
	}
	ciphertext, err := v.sealer.Seal(seed[:])
	if err != nil {
		return ledgererr.Wrap(ledgererr.VaultIO, "failed to seal secret", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, ciphertext, 0o600); err != nil {
		return ledgererr.Wrap(ledgererr.VaultIO, "failed to write key file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return ledgererr.Wrap(ledgererr.VaultIO, "failed to finalize key file", err)
	}
	return nil
}

func (v *FileVault) Retrieve(_ context.Context, creatorID string) (*edcrypto.PrivateKey, error) {
	path, err := v.resolvePath(creatorID)
	if err != nil {
		return nil, err
	}
	ciphertext, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrAbsent
		}
		return nil, ledgererr.Wrap(ledgererr.VaultIO, "failed to read key file", err)
	}
	plaintext, err := v.sealer.Open(ciphertext)
	if err != nil {
		return nil, ledgererr.Wrap(ledgererr.VaultIO, "failed to unseal secret", err)
	}
	return edcrypto.NewPrivateKeyFromSeed(plaintext)
}

func (v *FileVault) Delete(_ context.Context, creatorID string) (bool, error) {
	path, err := v.resolvePath(creatorID)
	if err != nil {
		return false, err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, ledgererr.Wrap(ledgererr.VaultIO, "failed to delete key file", err)
	}
	return true, nil
}

func (v *FileVault) Exists(_ context.Context, creatorID string) (bool, error) {
	path, err := v.resolvePath(creatorID)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, ledgererr.Wrap(ledgererr.VaultIO, "failed to stat key file", err)
}
