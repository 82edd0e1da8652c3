package ledger

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/creatorledger/core/edcrypto"
	"github.com/creatorledger/core/identity"
	"github.com/creatorledger/core/ledgererr"
)

// isUniqueViolation reports whether err is a SQLite UNIQUE/PRIMARY KEY
// constraint failure, the signal this engine treats as a lost
// optimistic-concurrency race on the tip (§4.4 step 5).
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || code == sqlite3.SQLITE_CONSTRAINT
}

func insertCreatorRow(ctx context.Context, tx *sql.Tx, c *identity.Creator) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO creators (creator_id, display_name, public_key, created_at, row_version)
		 VALUES (?, ?, ?, ?, ?)`,
		c.CreatorID, c.DisplayName, c.PublicKey.Bytes(), c.CreatedAt.Unix(), c.RowVersion)
	if err != nil {
		if isUniqueViolation(err) {
			return ledgererr.New(ledgererr.InvalidInput, "creator already exists")
		}
		return ledgererr.Wrap(ledgererr.Storage, "failed to insert creator", err)
	}
	return nil
}

func getCreator(ctx context.Context, q queryer, creatorID string) (*identity.Creator, error) {
	row := q.QueryRowContext(ctx,
		`SELECT creator_id, display_name, public_key, created_at, row_version
		 FROM creators WHERE creator_id = ?`, creatorID)

	var c identity.Creator
	var pub []byte
	var createdAt int64
	if err := row.Scan(&c.CreatorID, &c.DisplayName, &pub, &createdAt, &c.RowVersion); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledgererr.New(ledgererr.UnknownCreator, creatorID)
		}
		return nil, ledgererr.Wrap(ledgererr.Storage, "failed to load creator", err)
	}
	if len(pub) != edcrypto.PublicKeySize {
		return nil, ledgererr.New(ledgererr.Storage, "stored public key has unexpected length")
	}
	copy(c.PublicKey[:], pub)
	c.CreatedAt = unixToTime(createdAt)
	return &c, nil
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// tipRow is the highest-seq event for a creator, or the zero sentinel
// when the creator has no events yet.
type tipRow struct {
	Seq      uint64
	ThisHash [sha256.Size]byte
	found    bool
}

func getTipRow(ctx context.Context, q queryer, creatorID string) (tipRow, error) {
	row := q.QueryRowContext(ctx,
		`SELECT seq, this_hash FROM ledger_events
		 WHERE creator_id = ? ORDER BY seq DESC LIMIT 1`, creatorID)

	var seq uint64
	var hash []byte
	if err := row.Scan(&seq, &hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return tipRow{}, nil
		}
		return tipRow{}, ledgererr.Wrap(ledgererr.Storage, "failed to read ledger tip", err)
	}
	var t tipRow
	t.Seq = seq
	copy(t.ThisHash[:], hash)
	t.found = true
	return t, nil
}

func insertEventRow(ctx context.Context, tx *sql.Tx, evt Event) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_events
		   (creator_id, seq, kind, payload, timestamp, prev_hash, this_hash, signature, row_version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		evt.CreatorID, evt.Seq, evt.Kind, evt.Payload, evt.Timestamp,
		evt.PrevHash[:], evt.ThisHash[:], evt.Signature.Bytes(), evt.RowVersion)
	if err != nil {
		if isUniqueViolation(err) {
			return ledgererr.New(ledgererr.ConcurrencyConflict, "another append won the race for this seq; retry against the new tip")
		}
		return ledgererr.Wrap(ledgererr.Storage, "failed to insert ledger event", err)
	}
	return nil
}

func scanEvent(row scanner) (Event, error) {
	var evt Event
	var payload, prevHash, thisHash, signature []byte
	if err := row.Scan(&evt.CreatorID, &evt.Seq, &evt.Kind, &payload, &evt.Timestamp,
		&prevHash, &thisHash, &signature, &evt.RowVersion); err != nil {
		return Event{}, err
	}
	evt.Payload = payload
	copy(evt.PrevHash[:], prevHash)
	copy(evt.ThisHash[:], thisHash)
	sig, err := edcrypto.SignatureFromBytes(signature)
	if err != nil {
		return Event{}, err
	}
	evt.Signature = sig
	return evt, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func getEventRow(ctx context.Context, q queryer, creatorID string, seq uint64) (Event, bool, error) {
	row := q.QueryRowContext(ctx,
		`SELECT creator_id, seq, kind, payload, timestamp, prev_hash, this_hash, signature, row_version
		 FROM ledger_events WHERE creator_id = ? AND seq = ?`, creatorID, seq)
	evt, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Event{}, false, nil
		}
		return Event{}, false, ledgererr.Wrap(ledgererr.Storage, "failed to load ledger event", err)
	}
	return evt, true, nil
}

func listEventRows(ctx context.Context, q queryer, creatorID string, fromSeq, toSeq uint64) ([]Event, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT creator_id, seq, kind, payload, timestamp, prev_hash, this_hash, signature, row_version
		 FROM ledger_events WHERE creator_id = ? AND seq >= ? AND seq <= ?
		 ORDER BY seq ASC`, creatorID, fromSeq, toSeq)
	if err != nil {
		return nil, ledgererr.Wrap(ledgererr.Storage, "failed to list ledger events", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, ledgererr.Wrap(ledgererr.Storage, "failed to scan ledger event", err)
		}
		out = append(out, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, ledgererr.Wrap(ledgererr.Storage, "failed while listing ledger events", err)
	}
	return out, nil
}
