//go:build !windows

package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"io"
	"os"

	"github.com/creatorledger/core/ledgererr"
)

// localSealer stands in for a platform data-protection primitive on
// non-Windows targets, where no single OS-blessed API plays the role
// DPAPI plays on Windows. It seals with AES-256-GCM under a key
// derived from the host name and the USER/USERNAME environment
// variables, so the
// ciphertext is at least bound to this machine+user the same way
// DPAPI binds to the logged-in user. This is explicitly NOT a claim
// of OS-level protection: it exists so FileVault's path-containment
// and file-layout behavior (§6, §8 P6) is exercisable on every
// platform the test suite runs on.
type localSealer struct {
	key [32]byte
}

func defaultSealer() sealer {
	return &localSealer{key: deriveLocalKey()}
}

func deriveLocalKey() [32]byte {
	host, _ := os.Hostname()
	material := host + ":" + os.Getenv("USER") + os.Getenv("USERNAME") + ":creatorledger-vault"
	return sha256.Sum256([]byte(material))
}

func (s *localSealer) Seal(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(s.key[:])
	if err != nil {
		return nil, ledgererr.Wrap(ledgererr.VaultIO, "failed to build cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ledgererr.Wrap(ledgererr.VaultIO, "failed to build GCM", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, ledgererr.Wrap(ledgererr.VaultIO, "failed to generate nonce", err)
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *localSealer) Open(ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(s.key[:])
	if err != nil {
		return nil, ledgererr.Wrap(ledgererr.VaultIO, "failed to build cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ledgererr.Wrap(ledgererr.VaultIO, "failed to build GCM", err)
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, ledgererr.New(ledgererr.VaultIO, "ciphertext shorter than nonce")
	}
	nonce, sealed := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ledgererr.Wrap(ledgererr.VaultIO, "failed to decrypt secret", err)
	}
	return plaintext, nil
}
