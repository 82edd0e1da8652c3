package bundle

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	"github.com/creatorledger/core/edcrypto"
	"github.com/creatorledger/core/ledger"
	"github.com/creatorledger/core/ledgererr"
)

// Outcome is one of the five verification results named in §4.5. Seq
// is only meaningful for BadSignature and BrokenChain.
type Outcome struct {
	Kind   ledgererr.Kind
	Seq    uint64
	Reason string
}

// OK reports whether the bundle verified cleanly.
func (o Outcome) OK() bool { return o.Kind == "" }

func ok() Outcome { return Outcome{} }

func badSignature(seq uint64) Outcome {
	return Outcome{Kind: ledgererr.BadSignature, Seq: seq}
}

func brokenChain(seq uint64) Outcome {
	return Outcome{Kind: ledgererr.BrokenChain, Seq: seq}
}

func malformed(reason string) Outcome {
	return Outcome{Kind: ledgererr.MalformedBundle, Reason: reason}
}

func invalidInput(reason string) Outcome {
	return Outcome{Kind: ledgererr.InvalidInput, Reason: reason}
}

// Verify checks bundle bytes against the four-step algorithm of §4.5:
// parse, normalise the public key, walk the chain checking linkage and
// signatures in order, and report the first offending seq. It depends
// on nothing but the bytes handed to it — no ledger engine, no
// storage, no vault.
func Verify(data []byte) Outcome {
	if len(data) == 0 {
		return invalidInput("empty bundle")
	}

	b, err := Unmarshal(data)
	if err != nil {
		return malformed(err.Error())
	}

	pub, err := edcrypto.ParsePublicKey(b.PublicKey)
	if err != nil {
		return malformed("invalid public_key: " + err.Error())
	}

	expectedPrev := ledger.ZeroHash
	for i, evt := range b.Events {
		seq := uint64(i + 1)

		payload, err := base64.StdEncoding.DecodeString(evt.Payload)
		if err != nil {
			return malformed("event payload is not valid base64")
		}
		prevHash, err := decodeHash(evt.PrevHash)
		if err != nil {
			return malformed("event prev_hash is not valid hex")
		}
		thisHash, err := decodeHash(evt.ThisHash)
		if err != nil {
			return malformed("event this_hash is not valid hex")
		}
		sig, err := edcrypto.ParseSignature(evt.Signature)
		if err != nil {
			return malformed("event signature is not valid base64")
		}

		if prevHash != expectedPrev {
			return brokenChain(seq)
		}

		canon := ledger.CanonicalBytes(b.CreatorID, evt.Seq, evt.Kind, evt.Timestamp, prevHash, payload)
		if !edcrypto.Verify(pub, canon, sig) {
			return badSignature(seq)
		}

		recomputed := sha256.Sum256(canon)
		if recomputed != thisHash {
			return brokenChain(seq)
		}

		expectedPrev = recomputed
	}

	return ok()
}

func decodeHash(s string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 32 {
		return out, ledgererr.New(ledgererr.MalformedBundle, "hash must be 32 bytes hex-encoded")
	}
	copy(out[:], raw)
	return out, nil
}
