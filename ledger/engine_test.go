package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/creatorledger/core/ledgererr"
	"github.com/creatorledger/core/vault"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	ctx := context.Background()
	e, err := Open(ctx, "file:"+t.Name()+"?mode=memory&cache=shared", vault.NewMemoryVault(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func mintTestCreator(t *testing.T, e *Engine, creatorID string) {
	t.Helper()
	_, err := e.MintCreator(context.Background(), creatorID, "Test Creator")
	require.NoError(t, err)
}

// TestAppendSeqAndChain covers S3: the first append has seq 1 and a
// zero prev_hash; the second has seq 2 and prev_hash equal to the
// first's this_hash.
func TestAppendSeqAndChain(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	mintTestCreator(t, e, "alice")

	first, err := e.Append(ctx, "alice", "upload", []byte("payload-1"), time.Now().Unix())
	require.NoError(t, err)
	require.Equal(t, uint64(1), first.Seq)
	require.Equal(t, ZeroHash, first.PrevHash)

	second, err := e.Append(ctx, "alice", "upload", []byte("payload-2"), time.Now().Unix())
	require.NoError(t, err)
	require.Equal(t, uint64(2), second.Seq)
	require.Equal(t, first.ThisHash, second.PrevHash)
}

// TestVerifyChainDetectsIntactChain covers P4: a freshly appended
// chain verifies clean.
func TestVerifyChainDetectsIntactChain(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	mintTestCreator(t, e, "alice")

	for i := 0; i < 5; i++ {
		_, err := e.Append(ctx, "alice", "upload", []byte("p"), time.Now().Unix())
		require.NoError(t, err)
	}

	ok, badSeq, err := e.VerifyChain(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	require.Zero(t, badSeq)
}

// TestVerifyChainDetectsTamperedHash covers I2: corrupting a stored
// this_hash is caught by VerifyChain at the offending seq.
func TestVerifyChainDetectsTamperedHash(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	mintTestCreator(t, e, "alice")

	_, err := e.Append(ctx, "alice", "upload", []byte("p1"), time.Now().Unix())
	require.NoError(t, err)
	evt2, err := e.Append(ctx, "alice", "upload", []byte("p2"), time.Now().Unix())
	require.NoError(t, err)

	_, err = e.db.ExecContext(ctx,
		`UPDATE ledger_events SET this_hash = ? WHERE creator_id = ? AND seq = ?`,
		make([]byte, 32), "alice", evt2.Seq)
	require.NoError(t, err)

	ok, badSeq, err := e.VerifyChain(ctx, "alice")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, evt2.Seq, badSeq)
}

// TestAppendConcurrencyConflict covers P5/S4: two callers race to
// append against the same tip; exactly one wins, and the loser gets a
// concurrency-conflict error it can retry.
func TestAppendConcurrencyConflict(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	mintTestCreator(t, e, "alice")

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.Append(ctx, "alice", "upload", []byte("race"), time.Now().Unix())
		}(i)
	}
	wg.Wait()

	succeeded, conflicted := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case ledgererr.Is(err, ledgererr.ConcurrencyConflict):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, n-1, conflicted)

	tip, err := e.GetTip(ctx, "alice")
	require.NoError(t, err)
	require.True(t, tip.Found)
	require.Equal(t, uint64(1), tip.Seq)
}

// TestAppendAfterRefreshedTip confirms an append issued after an
// earlier append has committed reads the refreshed tip and takes the
// next seq; no concurrency conflict is produced here.
func TestAppendAfterRefreshedTip(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	mintTestCreator(t, e, "alice")

	_, err := e.Append(ctx, "alice", "upload", []byte("p1"), time.Now().Unix())
	require.NoError(t, err)

	evt, err := e.Append(ctx, "alice", "upload", []byte("p2"), time.Now().Unix())
	require.NoError(t, err)
	require.Equal(t, uint64(2), evt.Seq)
}

// TestAppendUnknownCreatorFails confirms appends against a creator id
// that was never minted fail without touching the store.
func TestAppendUnknownCreatorFails(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Append(ctx, "nobody", "upload", []byte("p"), time.Now().Unix())
	require.Error(t, err)
	require.True(t, ledgererr.Is(err, ledgererr.UnknownCreator))
}

// TestGetEventMissingReturnsFalse confirms GetEvent distinguishes
// "not found" from an error.
func TestGetEventMissingReturnsFalse(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	mintTestCreator(t, e, "alice")

	_, ok, err := e.GetEvent(ctx, "alice", 1)
	require.NoError(t, err)
	require.False(t, ok)
}

// TestMintCreatorTwiceFails confirms a creator id can only be minted
// once.
func TestMintCreatorTwiceFails(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	mintTestCreator(t, e, "alice")

	_, err := e.MintCreator(ctx, "alice", "Alice Again")
	require.Error(t, err)
	require.True(t, ledgererr.Is(err, ledgererr.InvalidInput))
}
