// Package ledgererr defines the error kinds shared by every CreatorLedger
// component. Callers type-switch on Kind rather than on concrete error
// types so that vault, ledger, and bundle failures compose the same way.
package ledgererr

import "fmt"

// Kind classifies a failure the way §7 of the design groups them.
type Kind string

const (
	InvalidInput         Kind = "invalid-input"
	PathTraversal        Kind = "path-traversal"
	PlatformNotSupported Kind = "platform-not-supported"
	VaultIO              Kind = "vault-io"
	UnknownCreator       Kind = "unknown-creator"
	Storage              Kind = "storage"
	ConcurrencyConflict  Kind = "concurrency-conflict"
	BadSignature         Kind = "bad-signature"
	BrokenChain          Kind = "broken-chain"
	MalformedBundle      Kind = "malformed-bundle"
	Lifecycle            Kind = "lifecycle"
)

// Error is the concrete error type returned by the public CreatorLedger
// operations, except vault.ErrAbsent and the plain wrapped errors of
// ledger/schema. Seq is only meaningful for BadSignature/BrokenChain.
type Error struct {
	Kind Kind
	Msg  string
	Seq  uint64
	Err  error
}

func (e *Error) Error() string {
	if e.Kind == BadSignature || e.Kind == BrokenChain {
		if e.Msg != "" {
			return fmt.Sprintf("%s(seq=%d): %s", e.Kind, e.Seq, e.Msg)
		}
		return fmt.Sprintf("%s(seq=%d)", e.Kind, e.Seq)
	}
	if e.Msg == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind with a message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds an Error of the given kind that wraps an underlying cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// WithSeq builds a BadSignature or BrokenChain error for the given seq.
func WithSeq(kind Kind, seq uint64, msg string) *Error {
	return &Error{Kind: kind, Seq: seq, Msg: msg}
}

// Is reports whether err carries the given Kind, unwrapping as needed.
func Is(err error, kind Kind) bool {
	for err != nil {
		if le, ok := err.(*Error); ok {
			if le.Kind == kind {
				return true
			}
			err = le.Err
			continue
		}
		type unwrapper interface{ Unwrap() error }
		u, ok := err.(unwrapper)
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
