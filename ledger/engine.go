package ledger

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/creatorledger/core/edcrypto"
	"github.com/creatorledger/core/identity"
	"github.com/creatorledger/core/ledger/schema"
	"github.com/creatorledger/core/ledgererr"
	"github.com/creatorledger/core/vault"
)

// Engine owns the backing-store connection pool and is the only
// writer/reader of the ledger tables. It performs no background work
// of its own; every method is synchronous from the caller's point of
// view (§5).
type Engine struct {
	db     *sql.DB
	vault  vault.Vault
	logger *zap.Logger
}

// Open connects to dsn (a modernc.org/sqlite data source name),
// applies any pending migrations (C6), and returns a ready Engine.
// The returned Engine owns db and should be closed with Close.
func Open(ctx context.Context, dsn string, v vault.Vault, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	// No connection cap: concurrent Append calls each get their own
	// connection and race at the SQL level, which is what lets SQLite's
	// UNIQUE(creator_id, seq) constraint do the concurrency policing
	// instead of an application-level mutex (§4.4/§5). busy_timeout is
	// set per-connection via the DSN (a runtime PRAGMA only reaches
	// whichever single pooled connection happens to run it) so a writer
	// that loses the race for SQLite's single write lock waits instead
	// of failing immediately with "database is locked"; by the time it
	// retries, the other writer has committed and the loser's insert
	// fails cleanly on the UNIQUE constraint instead.
	db, err := sql.Open("sqlite", withBusyTimeout(dsn))
	if err != nil {
		return nil, ledgererr.Wrap(ledgererr.Storage, "failed to open backing store", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, ledgererr.Wrap(ledgererr.Storage, "failed to reach backing store", err)
	}
	if err := schema.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("ledger engine opened", zap.String("dsn", dsn))
	return &Engine{db: db, vault: v, logger: logger}, nil
}

// Close releases the backing-store connection pool.
func (e *Engine) Close() error {
	return e.db.Close()
}

// MintCreator generates a fresh Ed25519 key pair, stores the secret in
// the vault, and inserts the creator's public row. A creator is
// minted exactly once; minting the same id twice fails.
func (e *Engine) MintCreator(ctx context.Context, creatorID, displayName string) (*identity.Creator, error) {
	pub, secret, err := edcrypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	defer secret.Release()

	creator, err := identity.New(creatorID, displayName, pub, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := e.vault.Store(ctx, creatorID, secret); err != nil {
		return nil, err
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, ledgererr.Wrap(ledgererr.Storage, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := insertCreatorRow(ctx, tx, creator); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, ledgererr.Wrap(ledgererr.Storage, "failed to commit creator", err)
	}
	return creator, nil
}

// GetCreator loads a creator's public record.
func (e *Engine) GetCreator(ctx context.Context, creatorID string) (*identity.Creator, error) {
	return getCreator(ctx, e.db, creatorID)
}

// Tip is the highest-seq event for a creator, or the zero sentinel
// (Found == false) when the creator has no events yet.
type Tip struct {
	Seq      uint64
	ThisHash [32]byte
	Found    bool
}

// GetTip returns the creator's current tip.
func (e *Engine) GetTip(ctx context.Context, creatorID string) (Tip, error) {
	t, err := getTipRow(ctx, e.db, creatorID)
	if err != nil {
		return Tip{}, err
	}
	return Tip{Seq: t.Seq, ThisHash: t.ThisHash, Found: t.found}, nil
}

// Append executes the six-step append protocol of §4.4: read tip,
// compose the next event, sign it, insert conditional on the tip
// being unchanged, and return the stored event. On a lost race it
// returns a concurrency-conflict error that the caller may retry; the
// engine never retries internally, avoiding livelock under adversarial
// load (§4.4).
func (e *Engine) Append(ctx context.Context, creatorID, kind string, payload []byte, timestamp int64) (Event, error) {
	if _, err := e.GetCreator(ctx, creatorID); err != nil {
		return Event{}, err
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return Event{}, ledgererr.Wrap(ledgererr.Storage, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	tip, err := getTipRow(ctx, tx, creatorID)
	if err != nil {
		return Event{}, err
	}

	var prevSeq uint64
	prevHash := ZeroHash
	if tip.found {
		prevSeq = tip.Seq
		prevHash = tip.ThisHash
	}
	seq := prevSeq + 1

	canon := canonicalBytes(creatorID, seq, kind, timestamp, prevHash, payload)
	thisHash := hashOf(canon)

	secret, err := e.vault.Retrieve(ctx, creatorID)
	if err != nil {
		return Event{}, err
	}
	defer secret.Release()

	sig, err := edcrypto.Sign(secret, canon)
	if err != nil {
		return Event{}, err
	}

	evt := Event{
		CreatorID:  creatorID,
		Seq:        seq,
		Kind:       kind,
		Payload:    payload,
		Timestamp:  timestamp,
		PrevHash:   prevHash,
		ThisHash:   thisHash,
		Signature:  sig,
		RowVersion: 1,
	}

	if err := insertEventRow(ctx, tx, evt); err != nil {
		return Event{}, err
	}
	if err := tx.Commit(); err != nil {
		return Event{}, ledgererr.Wrap(ledgererr.Storage, "failed to commit ledger event", err)
	}
	return evt, nil
}

// GetEvent returns a single event, or ok == false if it does not
// exist.
func (e *Engine) GetEvent(ctx context.Context, creatorID string, seq uint64) (Event, bool, error) {
	return getEventRow(ctx, e.db, creatorID, seq)
}

// ListEvents returns events in [fromSeq, toSeq] ordered ascending. A
// toSeq of 0 means "through the current tip."
func (e *Engine) ListEvents(ctx context.Context, creatorID string, fromSeq, toSeq uint64) ([]Event, error) {
	if toSeq == 0 {
		tip, err := e.GetTip(ctx, creatorID)
		if err != nil {
			return nil, err
		}
		toSeq = tip.Seq
	}
	return listEventRows(ctx, e.db, creatorID, fromSeq, toSeq)
}

// VerifyChain checks I1/I2/I3 across a creator's entire ledger. It
// returns the first offending seq, or ok == true if the whole chain
// is intact.
func (e *Engine) VerifyChain(ctx context.Context, creatorID string) (ok bool, badSeq uint64, err error) {
	creator, err := e.GetCreator(ctx, creatorID)
	if err != nil {
		return false, 0, err
	}
	events, err := e.ListEvents(ctx, creatorID, 1, 0)
	if err != nil {
		return false, 0, err
	}

	prevHash := ZeroHash
	var expectedSeq uint64 = 1
	for _, evt := range events {
		if evt.Seq != expectedSeq {
			return false, evt.Seq, nil
		}
		if evt.PrevHash != prevHash {
			return false, evt.Seq, nil
		}
		canon := canonicalBytes(evt.CreatorID, evt.Seq, evt.Kind, evt.Timestamp, evt.PrevHash, evt.Payload)
		if hashOf(canon) != evt.ThisHash {
			return false, evt.Seq, nil
		}
		if !edcrypto.Verify(creator.PublicKey, canon, evt.Signature) {
			return false, evt.Seq, nil
		}
		prevHash = evt.ThisHash
		expectedSeq++
	}
	return true, 0, nil
}

func unixToTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// withBusyTimeout appends modernc.org/sqlite's DSN-level pragma syntax
// so every new pooled connection gets the same busy_timeout, rather
// than only whichever connection a one-shot PRAGMA statement happens
// to land on.
func withBusyTimeout(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)"
}
