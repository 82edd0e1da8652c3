package vault

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"os/exec"

	"github.com/creatorledger/core/edcrypto"
	"github.com/creatorledger/core/identity"
	"github.com/creatorledger/core/ledgererr"
)

const serviceName = "CreatorLedger"

// LinuxVault delegates to the system secret service via the
// secret-tool command, keying on (service=CreatorLedger,
// account=creator_id). The secret is base64-encoded before being
// handed to the tool and decoded on retrieval.
type LinuxVault struct {
	lookPath func(string) (string, error)
	run      func(ctx context.Context, stdin []byte, args ...string) (stdout []byte, exitCode int, err error)
}

// NewLinuxVault constructs a LinuxVault. Construction fails with
// platform-not-supported if secret-tool is not on PATH.
func NewLinuxVault() (*LinuxVault, error) {
	v := &LinuxVault{lookPath: exec.LookPath, run: runCommand}
	if _, err := v.lookPath("secret-tool"); err != nil {
		return nil, ledgererr.Wrap(ledgererr.PlatformNotSupported, "secret-tool not found on PATH", err)
	}
	return v, nil
}

func runCommand(ctx context.Context, stdin []byte, args ...string) ([]byte, int, error) {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var out bytes.Buffer
	cmd.Stdout = &out
	err := cmd.Run()
	exitCode := 0
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	} else if err != nil {
		return nil, -1, err
	}
	return out.Bytes(), exitCode, nil
}

func (v *LinuxVault) Store(ctx context.Context, creatorID string, secret *edcrypto.PrivateKey) error {
	if err := identity.ValidateCreatorID(creatorID); err != nil {
		return err
	}
	seed, err := secret.Seed()
	if err != nil {
		return err
	}
	encoded := []byte(base64.StdEncoding.EncodeToString(seed[:]))
	_, exitCode, err := v.run(ctx, encoded,
		"secret-tool", "store",
		"--label=CreatorLedger secret key",
		"service", serviceName, "account", creatorID)
	if err != nil {
		return ledgererr.Wrap(ledgererr.VaultIO, "secret-tool store failed", err)
	}
	if exitCode != 0 {
		return ledgererr.New(ledgererr.VaultIO, "secret-tool store exited non-zero")
	}
	return nil
}

func (v *LinuxVault) Retrieve(ctx context.Context, creatorID string) (*edcrypto.PrivateKey, error) {
	if err := identity.ValidateCreatorID(creatorID); err != nil {
		return nil, err
	}
	out, exitCode, err := v.run(ctx, nil,
		"secret-tool", "lookup", "service", serviceName, "account", creatorID)
	if err != nil {
		return nil, ledgererr.Wrap(ledgererr.VaultIO, "secret-tool lookup failed", err)
	}
	if exitCode != 0 {
		return nil, ErrAbsent
	}
	seed, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace(out)))
	if err != nil {
		return nil, ledgererr.Wrap(ledgererr.VaultIO, "secret-tool returned invalid base64", err)
	}
	return edcrypto.NewPrivateKeyFromSeed(seed)
}

func (v *LinuxVault) Delete(ctx context.Context, creatorID string) (bool, error) {
	if err := identity.ValidateCreatorID(creatorID); err != nil {
		return false, err
	}
	existed, err := v.Exists(ctx, creatorID)
	if err != nil {
		return false, err
	}
	_, exitCode, err := v.run(ctx, nil,
		"secret-tool", "clear", "service", serviceName, "account", creatorID)
	if err != nil {
		return false, ledgererr.Wrap(ledgererr.VaultIO, "secret-tool clear failed", err)
	}
	if exitCode != 0 && existed {
		return false, ledgererr.New(ledgererr.VaultIO, "secret-tool clear exited non-zero")
	}
	return existed, nil
}

func (v *LinuxVault) Exists(ctx context.Context, creatorID string) (bool, error) {
	if err := identity.ValidateCreatorID(creatorID); err != nil {
		return false, err
	}
	_, exitCode, err := v.run(ctx, nil,
		"secret-tool", "lookup", "service", serviceName, "account", creatorID)
	if err != nil {
		return false, ledgererr.Wrap(ledgererr.VaultIO, "secret-tool lookup failed", err)
	}
	return exitCode == 0, nil
}
