package vault

import (
	"bytes"
	"context"
	"encoding/base64"
	"os/exec"

	"github.com/creatorledger/core/edcrypto"
	"github.com/creatorledger/core/identity"
	"github.com/creatorledger/core/ledgererr"
)

// exitCodeNotFound is the documented "not found" exit code for
// find-generic-password and delete-generic-password (§6).
const exitCodeNotFound = 44

// DarwinVault delegates to the macOS `security` CLI keychain tool.
type DarwinVault struct {
	lookPath func(string) (string, error)
	run      func(ctx context.Context, stdin []byte, args ...string) (stdout []byte, exitCode int, err error)
}

// NewDarwinVault constructs a DarwinVault. `security` ships with
// every macOS install, so construction only fails if PATH has been
// tampered with.
func NewDarwinVault() (*DarwinVault, error) {
	v := &DarwinVault{lookPath: exec.LookPath, run: runCommand}
	if _, err := v.lookPath("security"); err != nil {
		return nil, ledgererr.Wrap(ledgererr.PlatformNotSupported, "security CLI not found on PATH", err)
	}
	return v, nil
}

func (v *DarwinVault) Store(ctx context.Context, creatorID string, secret *edcrypto.PrivateKey) error {
	if err := identity.ValidateCreatorID(creatorID); err != nil {
		return err
	}
	seed, err := secret.Seed()
	if err != nil {
		return err
	}
	encoded := base64.StdEncoding.EncodeToString(seed[:])
	_, exitCode, err := v.run(ctx, nil,
		"security", "add-generic-password",
		"-s", serviceName, "-a", creatorID, "-w", encoded, "-U")
	if err != nil {
		return ledgererr.Wrap(ledgererr.VaultIO, "security add-generic-password failed", err)
	}
	if exitCode != 0 {
		return ledgererr.New(ledgererr.VaultIO, "security add-generic-password exited non-zero")
	}
	return nil
}

func (v *DarwinVault) Retrieve(ctx context.Context, creatorID string) (*edcrypto.PrivateKey, error) {
	if err := identity.ValidateCreatorID(creatorID); err != nil {
		return nil, err
	}
	out, exitCode, err := v.run(ctx, nil,
		"security", "find-generic-password", "-s", serviceName, "-a", creatorID, "-w")
	if err != nil {
		return nil, ledgererr.Wrap(ledgererr.VaultIO, "security find-generic-password failed", err)
	}
	if exitCode == exitCodeNotFound {
		return nil, ErrAbsent
	}
	if exitCode != 0 {
		return nil, ledgererr.New(ledgererr.VaultIO, "security find-generic-password exited non-zero")
	}
	seed, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace(out)))
	if err != nil {
		return nil, ledgererr.Wrap(ledgererr.VaultIO, "security returned invalid base64", err)
	}
	return edcrypto.NewPrivateKeyFromSeed(seed)
}

func (v *DarwinVault) Delete(ctx context.Context, creatorID string) (bool, error) {
	if err := identity.ValidateCreatorID(creatorID); err != nil {
		return false, err
	}
	_, exitCode, err := v.run(ctx, nil,
		"security", "delete-generic-password", "-s", serviceName, "-a", creatorID)
	if err != nil {
		return false, ledgererr.Wrap(ledgererr.VaultIO, "security delete-generic-password failed", err)
	}
	switch exitCode {
	case 0:
		return true, nil
	case exitCodeNotFound:
		return false, nil
	default:
		return false, ledgererr.New(ledgererr.VaultIO, "security delete-generic-password exited non-zero")
	}
}

func (v *DarwinVault) Exists(ctx context.Context, creatorID string) (bool, error) {
	if err := identity.ValidateCreatorID(creatorID); err != nil {
		return false, err
	}
	_, exitCode, err := v.run(ctx, nil,
		"security", "find-generic-password", "-s", serviceName, "-a", creatorID)
	if err != nil {
		return false, ledgererr.Wrap(ledgererr.VaultIO, "security find-generic-password failed", err)
	}
	if exitCode == exitCodeNotFound {
		return false, nil
	}
	return exitCode == 0, nil
}
