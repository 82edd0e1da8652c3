package edcrypto

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex fixture: %v", err)
	}
	return b
}

// TestRFC8032Vector1 reproduces RFC 8032 §7.1 test vector 1 bit-for-bit.
func TestRFC8032Vector1(t *testing.T) {
	seed := mustHex(t, "9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60")
	wantPub := mustHex(t, "d75a980182b10ab7d54bfed3c964073a0ee172f3daa62325af021a68f707511a")
	wantSig := mustHex(t, "e5564300c360ac729086e2cc806e828a84877f1eb8e5d974d873e065224901555fb8821590a33bacc61e39701cf9b46bd25bf5f0595bbe24655141438e7a100b")

	secret, err := NewPrivateKeyFromSeed(seed)
	if err != nil {
		t.Fatalf("NewPrivateKeyFromSeed: %v", err)
	}
	pub, err := secret.PublicKey()
	if err != nil {
		t.Fatalf("PublicKey: %v", err)
	}
	if !bytes.Equal(pub.Bytes(), wantPub) {
		t.Errorf("public key = %x, want %x", pub.Bytes(), wantPub)
	}

	sig, err := Sign(secret, []byte{})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !bytes.Equal(sig.Bytes(), wantSig) {
		t.Errorf("signature = %x, want %x", sig.Bytes(), wantSig)
	}
	if !Verify(pub, []byte{}, sig) {
		t.Error("Verify() = false, want true")
	}
}

// TestRFC8032Vector2 reproduces RFC 8032 §7.1 test vector 2.
func TestRFC8032Vector2(t *testing.T) {
	seed := mustHex(t, "4ccd089b28ff96da9db6c346ec114e0f5b8a319b35ab6c34688ee6de3dc0940a")
	wantSig := mustHex(t, "92a009a9f0d4cab8720e820b5f642540a2b27b5416503f8fb3762223ebdb69da085ac1e43e15996e458f3613d0f11d8c387b2eaeb4302aeeb00d291612bb0c00")

	secret, err := NewPrivateKeyFromSeed(seed)
	if err != nil {
		t.Fatalf("NewPrivateKeyFromSeed: %v", err)
	}
	pub, err := secret.PublicKey()
	if err != nil {
		t.Fatalf("PublicKey: %v", err)
	}

	msg := []byte{0x72}
	sig, err := Sign(secret, msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !bytes.Equal(sig.Bytes(), wantSig) {
		t.Errorf("signature = %x, want %x", sig.Bytes(), wantSig)
	}
	if !Verify(pub, msg, sig) {
		t.Error("Verify() = false, want true")
	}
}

// TestSignVerifyRoundTrip is property P1.
func TestSignVerifyRoundTrip(t *testing.T) {
	messages := [][]byte{
		{},
		[]byte("hello creatorledger"),
		bytes.Repeat([]byte{0xAB}, 4096),
	}
	for _, m := range messages {
		pub, secret, err := GenerateKeyPair()
		if err != nil {
			t.Fatalf("GenerateKeyPair: %v", err)
		}
		sig, err := Sign(secret, m)
		if err != nil {
			t.Fatalf("Sign: %v", err)
		}
		if !Verify(pub, m, sig) {
			t.Errorf("Verify(%q) = false, want true", m)
		}
	}
}

// TestTamperDetection is property P2.
func TestTamperDetection(t *testing.T) {
	pub, secret, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	msg := []byte("original message")
	sig, err := Sign(secret, msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	tamperedMsg := append([]byte{}, msg...)
	tamperedMsg[0] ^= 0x01
	if Verify(pub, tamperedMsg, sig) {
		t.Error("Verify() with tampered message = true, want false")
	}

	tamperedSig := sig
	tamperedSig[0] ^= 0x01
	if Verify(pub, msg, tamperedSig) {
		t.Error("Verify() with tampered signature = true, want false")
	}

	tamperedPub := pub
	tamperedPub[0] ^= 0x01
	if Verify(tamperedPub, msg, sig) {
		t.Error("Verify() with tampered public key = true, want false")
	}
}

// TestCanonicalEncodingRoundTrip is property P3.
func TestCanonicalEncodingRoundTrip(t *testing.T) {
	pub, secret, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	sig, err := Sign(secret, []byte("round trip"))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	parsedPub, err := ParsePublicKey(pub.String())
	if err != nil {
		t.Fatalf("ParsePublicKey: %v", err)
	}
	if parsedPub != pub {
		t.Error("ParsePublicKey(pub.String()) != pub")
	}

	parsedSig, err := ParseSignature(sig.String())
	if err != nil {
		t.Fatalf("ParseSignature: %v", err)
	}
	if parsedSig != sig {
		t.Error("ParseSignature(sig.String()) != sig")
	}
}

func TestParsePublicKeyRejectsBadInput(t *testing.T) {
	cases := []string{
		"",
		"notaprefix:AAAA",
		"ed25519:not-base64!!",
		"ed25519:" + "QQ==", // valid base64, wrong length
	}
	for _, c := range cases {
		if _, err := ParsePublicKey(c); err == nil {
			t.Errorf("ParsePublicKey(%q) succeeded, want error", c)
		}
		if _, ok := TryParsePublicKey(c); ok {
			t.Errorf("TryParsePublicKey(%q) = true, want false", c)
		}
	}
}

func TestZeroSignatureIsDistinguished(t *testing.T) {
	var zero Signature
	if !zero.IsZero() {
		t.Error("zero Signature.IsZero() = false")
	}
	if zero.String() != "" {
		t.Errorf("zero Signature.String() = %q, want empty", zero.String())
	}
	parsed, err := ParseSignature("")
	if err != nil {
		t.Fatalf("ParseSignature(\"\"): %v", err)
	}
	if !parsed.IsZero() {
		t.Error("ParseSignature(\"\") did not round-trip to zero value")
	}
}

func TestPrivateKeyLifecycle(t *testing.T) {
	_, secret, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	if secret.Released() {
		t.Fatal("fresh key reports released")
	}
	secret.Release()
	if !secret.Released() {
		t.Error("Released() = false after Release()")
	}
	if _, err := secret.Seed(); err == nil {
		t.Error("Seed() after Release() succeeded, want lifecycle error")
	}
	if _, err := Sign(secret, []byte("x")); err == nil {
		t.Error("Sign() after Release() succeeded, want lifecycle error")
	}
	// Release is idempotent.
	secret.Release()
}
