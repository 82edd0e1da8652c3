// Package ledger implements the append-only ledger engine (C4): a
// per-creator hash chain of signed events with optimistic concurrency
// control on concurrent appends.
package ledger

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"

	"github.com/creatorledger/core/edcrypto"
)

// ZeroHash is the distinguished prev_hash value for the first event
// in a creator's chain.
var ZeroHash [sha256.Size]byte

// Event is one signed, chained record in a creator's ledger (§3).
type Event struct {
	CreatorID  string
	Seq        uint64
	Kind       string
	Payload    []byte
	Timestamp  int64 // UTC seconds since the Unix epoch
	PrevHash   [sha256.Size]byte
	ThisHash   [sha256.Size]byte
	Signature  edcrypto.Signature
	RowVersion int64
}

// canonicalBytes builds the exact byte string hashed and signed for
// this event, per §4.4:
//
//  1. creator_id UTF-8, terminated by 0x1F
//  2. seq, 8-byte big-endian unsigned
//  3. kind UTF-8, terminated by 0x1F
//  4. timestamp, 8-byte big-endian signed
//  5. prev_hash, 32 raw bytes
//  6. payload length (8-byte big-endian unsigned) then payload bytes
//
// Producer and verifier MUST build this identically; any deviation
// invalidates the entire chain.
func canonicalBytes(creatorID string, seq uint64, kind string, timestamp int64, prevHash [sha256.Size]byte, payload []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(creatorID)
	buf.WriteByte(0x1F)

	var seqBuf [8]byte
	binary.BigEndian.PutUint64(seqBuf[:], seq)
	buf.Write(seqBuf[:])

	buf.WriteString(kind)
	buf.WriteByte(0x1F)

	var tsBuf [8]byte
	binary.BigEndian.PutUint64(tsBuf[:], uint64(timestamp))
	buf.Write(tsBuf[:])

	buf.Write(prevHash[:])

	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(payload)))
	buf.Write(lenBuf[:])
	buf.Write(payload)

	return buf.Bytes()
}

// CanonicalBytes exposes canonicalBytes for the proof-bundle verifier,
// which must reconstruct identical bytes from a standalone bundle with
// no dependency on this package's storage machinery.
func CanonicalBytes(creatorID string, seq uint64, kind string, timestamp int64, prevHash [sha256.Size]byte, payload []byte) []byte {
	return canonicalBytes(creatorID, seq, kind, timestamp, prevHash, payload)
}

// hashOf computes this_hash = SHA-256(canonical bytes).
func hashOf(canon []byte) [sha256.Size]byte {
	return sha256.Sum256(canon)
}
