package badger

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vaultconfig "github.com/weisyn/keyring/internal/config/vault"
	"github.com/weisyn/keyring/pkg/types"
)

func newMemoryStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(&vaultconfig.VaultOptions{InMemory: true}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testEnvelope(data string) *types.EncryptedEnvelope {
	return &types.EncryptedEnvelope{
		Version:    2,
		KDF:        "pbkdf2-sha256",
		Iterations: 600000,
		Salt:       "c2FsdHNhbHRzYWx0c2FsdA==",
		IV:         "aXZpdml2aXZpdml2aXZpdg==",
		Data:       data,
		MAC:        "bWFj",
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	env := testEnvelope("Y2lwaGVydGV4dA==")
	require.NoError(t, store.Save(ctx, "main", env))

	loaded, err := store.Load(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, env, loaded)
}

func TestStore_SaveOverwrites(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "main", testEnvelope("b2xk")))
	require.NoError(t, store.Save(ctx, "main", testEnvelope("bmV3")))

	loaded, err := store.Load(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, "bmV3", loaded.Data)
}

func TestStore_ListSorted(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	for _, name := range []string{"solana", "evm", "filecoin"} {
		require.NoError(t, store.Save(ctx, name, testEnvelope(name)))
	}
	names, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"evm", "filecoin", "solana"}, names)
}

func TestStore_DeleteAndMissing(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "main", testEnvelope("ZGF0YQ==")))
	require.NoError(t, store.Delete(ctx, "main"))

	_, err := store.Load(ctx, "main")
	assert.ErrorIs(t, err, ErrEntryNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "main"), ErrEntryNotFound)
}

func TestStore_InvalidNames(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	for _, name := range []string{"", "   ", "a/b", "nul\x00"} {
		err := store.Save(ctx, name, testEnvelope("eA=="))
		assert.ErrorIs(t, err, types.ErrValidation, "name %q", name)
	}
	assert.ErrorIs(t, store.Save(ctx, "main", nil), types.ErrValidation)
}

func TestStore_CancelledContext(t *testing.T) {
	store := newMemoryStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Save(ctx, "main", testEnvelope("eA==")), context.Canceled)
	_, err := store.Load(ctx, "main")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_CloseRejectsWrites(t *testing.T) {
	store, err := New(&vaultconfig.VaultOptions{InMemory: true}, nil)
	require.NoError(t, err)

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
	assert.ErrorIs(t, store.Save(context.Background(), "main", testEnvelope("eA==")), ErrStoreClosing)
}

func TestStore_OnDiskPersists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vault")
	ctx := context.Background()

	store, err := New(&vaultconfig.VaultOptions{Path: dir}, nil)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "main", testEnvelope("cGVyc2lzdA==")))
	require.NoError(t, store.Close())

	reopened, err := New(&vaultconfig.VaultOptions{Path: dir}, nil)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, "cGVyc2lzdA==", loaded.Data)
}

func TestStore_NewRequiresPath(t *testing.T) {
	_, err := New(&vaultconfig.VaultOptions{}, nil)
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = New(nil, nil)
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestStore_BackupRestore(t *testing.T) {
	ctx := context.Background()
	src := newMemoryStore(t)
	require.NoError(t, src.Save(ctx, "evm", testEnvelope("ZXZt")))
	require.NoError(t, src.Save(ctx, "solana", testEnvelope("c29s")))

	var buf bytes.Buffer
	meta, err := src.Backup(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"evm", "solana"}, meta.Entries)

	dst := newMemoryStore(t)
	restored, err := dst.Restore(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, meta.Entries, restored.Entries)

	names, err := dst.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"evm", "solana"}, names)

	loaded, err := dst.Load(ctx, "solana")
	require.NoError(t, err)
	assert.Equal(t, "c29s", loaded.Data)
}

func TestStore_RestoreAfterDelete(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	require.NoError(t, store.Save(ctx, "main", testEnvelope("djE=")))
	require.NoError(t, store.Save(ctx, "spare", testEnvelope("c3BhcmU=")))

	var buf bytes.Buffer
	_, err := store.Backup(ctx, &buf)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "main"))
	require.NoError(t, store.Save(ctx, "spare", testEnvelope("djI=")))

	meta, err := store.Restore(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "spare"}, meta.Entries)

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "spare"}, names)

	loaded, err := store.Load(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, "djE=", loaded.Data)

	loaded, err = store.Load(ctx, "spare")
	require.NoError(t, err)
	assert.Equal(t, "c3BhcmU=", loaded.Data, "restored entries replace newer ones")
}

func TestStore_BackupToFile(t *testing.T) {
	ctx := context.Background()
	src := newMemoryStore(t)
	require.NoError(t, src.Save(ctx, "main", testEnvelope("bWFpbg==")))

	path := filepath.Join(t.TempDir(), "backups", "vault.bak")
	_, err := src.BackupToFile(ctx, path)
	require.NoError(t, err)

	dst := newMemoryStore(t)
	_, err = dst.RestoreFromFile(ctx, path)
	require.NoError(t, err)
	loaded, err := dst.Load(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, "bWFpbg==", loaded.Data)

	_, err = dst.RestoreFromFile(ctx, filepath.Join(t.TempDir(), "missing.bak"))
	assert.Error(t, err)
}

func TestStore_RestoreRejectsBadHeader(t *testing.T) {
	store := newMemoryStore(t)
	_, err := store.Restore(context.Background(), bytes.NewBufferString("{\"format_version\":9}\n"))
	assert.Error(t, err)
	_, err = store.Restore(context.Background(), bytes.NewBufferString("not json\n"))
	assert.Error(t, err)
}

func TestStore_ValueLogGCOnDisk(t *testing.T) {
	store, err := New(&vaultconfig.VaultOptions{Path: t.TempDir()}, nil)
	require.NoError(t, err)
	defer store.Close()
	assert.NoError(t, store.RunValueLogGC(context.Background(), 0.5))
}
