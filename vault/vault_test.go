package vault

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/creatorledger/core/edcrypto"
	"github.com/stretchr/testify/require"
)

func genSecret(t *testing.T) *edcrypto.PrivateKey {
	t.Helper()
	_, secret, err := edcrypto.GenerateKeyPair()
	require.NoError(t, err)
	return secret
}

func TestMemoryVaultStoreRetrieveDelete(t *testing.T) {
	ctx := context.Background()
	v := NewMemoryVault()
	secret := genSecret(t)
	wantSeed, err := secret.Seed()
	require.NoError(t, err)

	require.NoError(t, v.Store(ctx, "alice", secret))

	ok, err := v.Exists(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)

	got, err := v.Retrieve(ctx, "alice")
	require.NoError(t, err)
	gotSeed, err := got.Seed()
	require.NoError(t, err)
	require.Equal(t, wantSeed, gotSeed)

	existed, err := v.Delete(ctx, "alice")
	require.NoError(t, err)
	require.True(t, existed)

	_, err = v.Retrieve(ctx, "alice")
	require.ErrorIs(t, err, ErrAbsent)

	existedAgain, err := v.Delete(ctx, "alice")
	require.NoError(t, err)
	require.False(t, existedAgain)
}

func TestMemoryVaultStoreIsIdempotent(t *testing.T) {
	ctx := context.Background()
	v := NewMemoryVault()

	first := genSecret(t)
	require.NoError(t, v.Store(ctx, "bob", first))

	second := genSecret(t)
	wantSeed, err := second.Seed()
	require.NoError(t, err)
	require.NoError(t, v.Store(ctx, "bob", second))

	got, err := v.Retrieve(ctx, "bob")
	require.NoError(t, err)
	gotSeed, err := got.Seed()
	require.NoError(t, err)
	require.Equal(t, wantSeed, gotSeed)
}

func TestFileVaultRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	v, err := NewFileVault(dir)
	require.NoError(t, err)

	secret := genSecret(t)
	wantSeed, err := secret.Seed()
	require.NoError(t, err)

	require.NoError(t, v.Store(ctx, "creator-1", secret))

	got, err := v.Retrieve(ctx, "creator-1")
	require.NoError(t, err)
	gotSeed, err := got.Seed()
	require.NoError(t, err)
	require.Equal(t, wantSeed, gotSeed)

	existed, err := v.Delete(ctx, "creator-1")
	require.NoError(t, err)
	require.True(t, existed)

	_, err = v.Retrieve(ctx, "creator-1")
	require.ErrorIs(t, err, ErrAbsent)
}

// TestFileVaultPathContainment is property P6 and scenario S6.
func TestFileVaultPathContainment(t *testing.T) {
	dir := t.TempDir()
	v, err := NewFileVault(dir)
	require.NoError(t, err)

	// An id violating the charset is rejected before any I/O.
	_, err = v.resolvePath("../evil")
	require.Error(t, err)

	// A legal id resolves strictly inside base.
	path, err := v.resolvePath("legal-id_123")
	require.NoError(t, err)
	rel, err := filepath.Rel(dir, path)
	require.NoError(t, err)
	require.False(t, rel == ".." || len(rel) >= 2 && rel[:3] == "../")
}

func TestFileVaultStoreRejectsInvalidCreatorID(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	v, err := NewFileVault(dir)
	require.NoError(t, err)

	secret := genSecret(t)
	err = v.Store(ctx, "../evil", secret)
	require.Error(t, err)

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	require.Empty(t, entries, "no file should have been written for a rejected creator id")
}

func TestErrAbsentIsDistinctSentinel(t *testing.T) {
	var err error = ErrAbsent
	require.True(t, errors.Is(err, ErrAbsent))
}
