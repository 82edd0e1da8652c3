package bundle

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/creatorledger/core/ledger"
	"github.com/creatorledger/core/vault"
)

// buildTestBundle mints a creator, appends three events, and returns
// the resulting bundle bytes.
func buildTestBundle(t *testing.T) []byte {
	t.Helper()
	ctx := context.Background()
	e, err := ledger.Open(ctx, "file:"+t.Name()+"?mode=memory&cache=shared", vault.NewMemoryVault(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })

	creator, err := e.MintCreator(ctx, "alice", "Alice")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := e.Append(ctx, "alice", "upload", []byte{byte(i)}, time.Now().Unix())
		require.NoError(t, err)
	}

	events, err := e.ListEvents(ctx, "alice", 1, 0)
	require.NoError(t, err)

	b := FromLedgerEvents(creator.CreatorID, creator.DisplayName, creator.PublicKey, events)
	data, err := Marshal(b)
	require.NoError(t, err)
	return data
}

// TestVerifyCleanBundleIsOK covers the ok() branch of S5.
func TestVerifyCleanBundleIsOK(t *testing.T) {
	data := buildTestBundle(t)
	out := Verify(data)
	require.True(t, out.OK(), "expected ok, got %+v", out)
}

// TestVerifyDetectsPayloadTamper covers S5: mutating events[1].payload
// by one byte yields BadSignature(seq=2).
func TestVerifyDetectsPayloadTamper(t *testing.T) {
	data := buildTestBundle(t)
	b, err := Unmarshal(data)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(b.Events[1].Payload)
	require.NoError(t, err)
	raw = append(raw, 0xFF) // alters the decoded payload bytes
	b.Events[1].Payload = base64.StdEncoding.EncodeToString(raw)

	tampered, err := Marshal(b)
	require.NoError(t, err)

	out := Verify(tampered)
	require.False(t, out.OK())
	require.Equal(t, 2, int(out.Seq))
}

// TestVerifyDetectsEventSwap covers S5: swapping events 2 and 3 yields
// BrokenChain(seq=2).
func TestVerifyDetectsEventSwap(t *testing.T) {
	data := buildTestBundle(t)
	b, err := Unmarshal(data)
	require.NoError(t, err)
	require.Len(t, b.Events, 3)

	b.Events[1], b.Events[2] = b.Events[2], b.Events[1]

	tampered, err := Marshal(b)
	require.NoError(t, err)

	out := Verify(tampered)
	require.False(t, out.OK())
	require.Equal(t, 2, int(out.Seq))
}

func TestVerifyRejectsEmptyInput(t *testing.T) {
	out := Verify(nil)
	require.False(t, out.OK())
	require.Equal(t, "invalid-input", string(out.Kind))
}

func TestVerifyRejectsMalformedJSON(t *testing.T) {
	out := Verify([]byte("not json"))
	require.False(t, out.OK())
	require.Equal(t, "malformed-bundle", string(out.Kind))
}

func TestVerifyRejectsBadPublicKey(t *testing.T) {
	data := buildTestBundle(t)
	b, err := Unmarshal(data)
	require.NoError(t, err)

	b.PublicKey = "not-a-key"
	tampered, err := Marshal(b)
	require.NoError(t, err)

	out := Verify(tampered)
	require.False(t, out.OK())
	require.Equal(t, "malformed-bundle", string(out.Kind))
}
