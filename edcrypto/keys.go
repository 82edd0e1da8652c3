// Package edcrypto implements the Ed25519 primitive layer: key
// generation, deterministic signing and verification, and the
// canonical textual encodings used across CreatorLedger.
package edcrypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/creatorledger/core/ledgererr"
)

const (
	// PublicKeySize is the length in bytes of an Ed25519 public key.
	PublicKeySize = ed25519.PublicKeySize
	// SeedSize is the length in bytes of an Ed25519 secret seed.
	SeedSize = ed25519.SeedSize
	// SignatureSize is the length in bytes of an Ed25519 signature.
	SignatureSize = ed25519.SignatureSize

	publicKeyPrefix = "ed25519:"
)

// PublicKey is a 32-byte Ed25519 public key. Structural equality is
// byte equality, and the zero value is a valid (if meaningless) key —
// callers wanting the "no key" sentinel use Signature's zero value
// convention instead, since public keys are never optional in the
// data model.
type PublicKey [PublicKeySize]byte

// Signature is a 64-byte Ed25519 signature. The zero value represents
// "no signature" per §3 and is distinguished by both String and Bytes
// returning empty.
type Signature [SignatureSize]byte

// String renders the canonical form "ed25519:<base64>".
func (p PublicKey) String() string {
	return publicKeyPrefix + base64.StdEncoding.EncodeToString(p[:])
}

// Bytes returns the raw 32 bytes.
func (p PublicKey) Bytes() []byte { return p[:] }

// ParsePublicKey parses the canonical "ed25519:<base64>" form.
func ParsePublicKey(s string) (PublicKey, error) {
	var pk PublicKey
	rest, ok := strings.CutPrefix(s, publicKeyPrefix)
	if !ok {
		return pk, ledgererr.New(ledgererr.InvalidInput, "public key missing ed25519: prefix")
	}
	raw, err := base64.StdEncoding.DecodeString(rest)
	if err != nil {
		return pk, ledgererr.Wrap(ledgererr.InvalidInput, "public key is not valid base64", err)
	}
	if len(raw) != PublicKeySize {
		return pk, ledgererr.New(ledgererr.InvalidInput, fmt.Sprintf("public key must be %d bytes, got %d", PublicKeySize, len(raw)))
	}
	copy(pk[:], raw)
	return pk, nil
}

// TryParsePublicKey is ParsePublicKey without the error channel, for
// call sites that only want a boolean.
func TryParsePublicKey(s string) (PublicKey, bool) {
	pk, err := ParsePublicKey(s)
	return pk, err == nil
}

// IsZero reports whether s is the distinguished "no signature" value.
func (s Signature) IsZero() bool { return s == Signature{} }

// String renders the canonical base64 form, or "" for the zero value.
func (s Signature) String() string {
	if s.IsZero() {
		return ""
	}
	return base64.StdEncoding.EncodeToString(s[:])
}

// Bytes returns the raw 64 bytes.
func (s Signature) Bytes() []byte { return s[:] }

// ParseSignature parses the canonical base64 form. An empty string
// parses to the zero Signature.
func ParseSignature(s string) (Signature, error) {
	var sig Signature
	if s == "" {
		return sig, nil
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return sig, ledgererr.Wrap(ledgererr.InvalidInput, "signature is not valid base64", err)
	}
	if len(raw) != SignatureSize {
		return sig, ledgererr.New(ledgererr.InvalidInput, fmt.Sprintf("signature must be %d bytes, got %d", SignatureSize, len(raw)))
	}
	copy(sig[:], raw)
	return sig, nil
}

// TryParseSignature is ParseSignature without the error channel.
func TryParseSignature(s string) (Signature, bool) {
	sig, err := ParseSignature(s)
	return sig, err == nil
}

// SignatureFromBytes wraps a raw 64-byte signature, as read back from
// a BLOB column rather than its canonical textual encoding. An empty
// slice yields the zero Signature.
func SignatureFromBytes(raw []byte) (Signature, error) {
	var sig Signature
	if len(raw) == 0 {
		return sig, nil
	}
	if len(raw) != SignatureSize {
		return sig, ledgererr.New(ledgererr.InvalidInput, fmt.Sprintf("signature must be %d bytes, got %d", SignatureSize, len(raw)))
	}
	copy(sig[:], raw)
	return sig, nil
}

// PublicKeyFromBytes wraps a raw 32-byte public key.
func PublicKeyFromBytes(raw []byte) (PublicKey, error) {
	var pk PublicKey
	if len(raw) != PublicKeySize {
		return pk, ledgererr.New(ledgererr.InvalidInput, fmt.Sprintf("public key must be %d bytes, got %d", PublicKeySize, len(raw)))
	}
	copy(pk[:], raw)
	return pk, nil
}

// GenerateKeyPair generates a new Ed25519 key pair from the OS's
// cryptographically strong RNG.
func GenerateKeyPair() (PublicKey, *PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return PublicKey{}, nil, ledgererr.Wrap(ledgererr.Storage, "failed to generate Ed25519 key pair", err)
	}
	var pk PublicKey
	copy(pk[:], pub)
	sk := newPrivateKey(priv.Seed())
	return pk, sk, nil
}

// DerivePublic recovers the public key from a 32-byte seed.
func DerivePublic(seed [SeedSize]byte) PublicKey {
	priv := ed25519.NewKeyFromSeed(seed[:])
	var pk PublicKey
	copy(pk[:], priv.Public().(ed25519.PublicKey))
	return pk
}

// Sign signs msg with secret and returns the 64-byte signature.
// Ed25519 signing is deterministic per RFC 8032: the same (secret, msg)
// always yields the same signature, with no hidden RNG involvement.
func Sign(secret *PrivateKey, msg []byte) (Signature, error) {
	priv, err := secret.ed25519PrivateKey()
	if err != nil {
		return Signature{}, err
	}
	raw := ed25519.Sign(priv, msg)
	var sig Signature
	copy(sig[:], raw)
	return sig, nil
}

// Verify checks an Ed25519 signature. It never returns an error:
// malformed input simply fails to verify.
func Verify(pub PublicKey, msg []byte, sig Signature) bool {
	return ed25519.Verify(pub[:], msg, sig[:])
}
