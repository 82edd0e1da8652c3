// Package bundle implements the proof bundle (C5): a self-contained,
// JSON-serialised prefix of a creator's ledger that a third party can
// verify offline with no server, no storage, and no vault — only the
// bytes and the embedded public key.
package bundle

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"

	"github.com/creatorledger/core/edcrypto"
	"github.com/creatorledger/core/ledger"
	"github.com/creatorledger/core/ledgererr"
)

// FormatVersion is the bundle schema version this package reads and
// writes. A mismatch is reported as MalformedBundle rather than
// silently misinterpreted.
const FormatVersion = 1

// Event is one chain entry as it appears inside a bundle: every field
// in its wire encoding rather than the raw types ledger.Event carries,
// per §6's required-field list.
type Event struct {
	Seq       uint64 `json:"seq"`
	Kind      string `json:"kind"`
	Payload   string `json:"payload"`   // base64
	Timestamp int64  `json:"timestamp"`
	PrevHash  string `json:"prev_hash"` // hex
	ThisHash  string `json:"this_hash"` // hex
	Signature string `json:"signature"` // base64
}

// Bundle is an offline-verifiable attestation: a creator's public
// identity plus an ordered run of its ledger events from seq=1 through
// some seq N (§4.5).
type Bundle struct {
	BundleVersion int     `json:"bundle_version"`
	CreatorID     string  `json:"creator_id"`
	DisplayName   string  `json:"display_name"`
	PublicKey     string  `json:"public_key"` // canonical "ed25519:<base64>" form
	Events        []Event `json:"events"`
}

// FromLedgerEvents builds a Bundle from the engine's native Event
// type, the creator's display name, and public key.
func FromLedgerEvents(creatorID, displayName string, publicKey edcrypto.PublicKey, events []ledger.Event) Bundle {
	out := make([]Event, len(events))
	for i, e := range events {
		out[i] = Event{
			Seq:       e.Seq,
			Kind:      e.Kind,
			Payload:   base64.StdEncoding.EncodeToString(e.Payload),
			Timestamp: e.Timestamp,
			PrevHash:  hex.EncodeToString(e.PrevHash[:]),
			ThisHash:  hex.EncodeToString(e.ThisHash[:]),
			Signature: e.Signature.String(),
		}
	}
	return Bundle{
		BundleVersion: FormatVersion,
		CreatorID:     creatorID,
		DisplayName:   displayName,
		PublicKey:     publicKey.String(),
		Events:        out,
	}
}

// Marshal serialises b to its canonical wire form: JSON with object
// keys in the order the Bundle and Event structs declare their fields
// (not sorted). encoding/json always emits struct fields in that
// order, so the Go encoder's natural output is already the bundle's
// fixed, documented byte format (§4.5).
func Marshal(b Bundle) ([]byte, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, ledgererr.Wrap(ledgererr.MalformedBundle, "failed to serialise bundle", err)
	}
	return data, nil
}

// Unmarshal parses raw bundle bytes. Malformed JSON, an unsupported
// bundle_version, or a missing creator_id or public_key is reported as
// MalformedBundle; other fields are not checked here. Callers reading from
// a file system should distinguish a missing path as InvalidInput
// themselves before calling Unmarshal (§4.5 step 1).
func Unmarshal(data []byte) (Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return Bundle{}, ledgererr.Wrap(ledgererr.MalformedBundle, "bundle is not valid JSON", err)
	}
	if b.BundleVersion != FormatVersion {
		return Bundle{}, ledgererr.New(ledgererr.MalformedBundle, "unsupported bundle_version")
	}
	if b.CreatorID == "" || b.PublicKey == "" {
		return Bundle{}, ledgererr.New(ledgererr.MalformedBundle, "missing creator_id or public_key")
	}
	return b, nil
}
