package vault

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/creatorledger/core/ledgererr"
	"go.uber.org/zap"
)

// Variant selects a vault backend.
type Variant string

const (
	VariantAuto   Variant = "auto"
	VariantFile   Variant = "file"
	VariantLinux  Variant = "linux"
	VariantDarwin Variant = "darwin"
	VariantMemory Variant = "memory"
)

// Options configures vault construction.
type Options struct {
	// FileBase is the base directory for VariantFile. Defaults to a
	// per-user local app-data directory when empty.
	FileBase string
	// Logger receives fallback warnings (e.g. "no secret-tool, using
	// memory vault"). A no-op logger is used if nil.
	Logger *zap.Logger
}

// New builds a Vault for the requested variant. VariantAuto routes by
// runtime.GOOS; an unknown OS or missing Linux prerequisites fall
// back to VariantMemory with a logged warning. Requesting an explicit
// variant that does not match the current OS fails with
// platform-not-supported.
func New(variant Variant, opts Options) (Vault, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	switch variant {
	case VariantFile:
		if runtime.GOOS != "windows" {
			return nil, ledgererr.New(ledgererr.PlatformNotSupported, "file vault requested on "+runtime.GOOS)
		}
		return newFileVaultForOS(opts)
	case VariantLinux:
		if runtime.GOOS != "linux" {
			return nil, ledgererr.New(ledgererr.PlatformNotSupported, "linux vault requested on "+runtime.GOOS)
		}
		return NewLinuxVault()
	case VariantDarwin:
		if runtime.GOOS != "darwin" {
			return nil, ledgererr.New(ledgererr.PlatformNotSupported, "darwin vault requested on "+runtime.GOOS)
		}
		return NewDarwinVault()
	case VariantMemory:
		return NewMemoryVault(), nil
	case VariantAuto, "":
		return autoSelect(opts, logger)
	default:
		return nil, ledgererr.New(ledgererr.InvalidInput, "unknown vault variant: "+string(variant))
	}
}

func autoSelect(opts Options, logger *zap.Logger) (Vault, error) {
	switch runtime.GOOS {
	case "windows":
		return newFileVaultForOS(opts)
	case "darwin":
		return NewDarwinVault()
	case "linux":
		v, err := NewLinuxVault()
		if err == nil {
			return v, nil
		}
		logger.Warn("secret-tool unavailable, falling back to in-memory vault",
			zap.Error(err))
		return NewMemoryVault(), nil
	default:
		logger.Warn("unrecognized OS, falling back to in-memory vault",
			zap.String("goos", runtime.GOOS))
		return NewMemoryVault(), nil
	}
}

func newFileVaultForOS(opts Options) (Vault, error) {
	base := opts.FileBase
	if base == "" {
		base = defaultFileBase()
	}
	return NewFileVault(base)
}

// defaultFileBase returns a per-user local app-data directory for the
// vault's key files when the caller does not inject one explicitly.
func defaultFileBase() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "creatorledger", "vault")
}
