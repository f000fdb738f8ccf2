// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	dir := t.TempDir()
	sealer, err := NewSealer(KeyOptions{KeyPath: filepath.Join(dir, "storage.key")})
	require.NoError(t, err)
	st, err := OpenSQLite(filepath.Join(dir, "state.db"), sealer)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st, dir
}

// exerciseStore runs the common Store contract against any implementation.
func exerciseStore(t *testing.T, st Store) {
	ctx := context.Background()

	_, ok, err := st.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.Set(ctx, KeyToken, "access-1"))
	require.NoError(t, st.Set(ctx, KeyRefreshToken, "refresh-1"))
	require.NoError(t, st.Set(ctx, KeyToken, "access-2"))

	v, ok, err := st.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "access-2", v, "last writer wins")

	require.NoError(t, st.Remove(ctx, KeyToken, KeyRefreshToken, "missing"))
	_, ok, err = st.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = st.Get(ctx, KeyRefreshToken)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewMemoryStore().Set(ctx, KeyToken, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSQLiteStore(t *testing.T) {
	st, _ := newTestSQLite(t)
	exerciseStore(t, st)
}

func TestSQLiteStoreSealsValues(t *testing.T) {
	st, _ := newTestSQLite(t)
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, KeyToken, "plain-secret"))

	var raw string
	require.NoError(t, st.db.QueryRow("SELECT value FROM kv WHERE key = ?", KeyToken).Scan(&raw))
	assert.True(t, strings.HasPrefix(raw, SealedPrefix))
	assert.NotContains(t, raw, "plain-secret")
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "storage.key")
	dbPath := filepath.Join(dir, "state.db")
	ctx := context.Background()

	sealer, err := NewSealer(KeyOptions{KeyPath: keyPath})
	require.NoError(t, err)
	st, err := OpenSQLite(dbPath, sealer)
	require.NoError(t, err)
	require.NoError(t, st.Set(ctx, KeyToken, "persisted"))
	require.NoError(t, st.Close())

	info, err := os.Stat(keyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	sealer2, err := NewSealer(KeyOptions{KeyPath: keyPath})
	require.NoError(t, err)
	st2, err := OpenSQLite(dbPath, sealer2)
	require.NoError(t, err)
	defer st2.Close()

	v, ok, err := st2.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "persisted", v)

	keys, err := st2.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{KeyToken}, keys)
}

func TestSQLiteStoreWrongKey(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "state.db")
	ctx := context.Background()

	s1, err := NewSealer(KeyOptions{KeyPath: filepath.Join(dir, "a.key")})
	require.NoError(t, err)
	st, err := OpenSQLite(dbPath, s1)
	require.NoError(t, err)
	require.NoError(t, st.Set(ctx, KeyToken, "secret"))
	require.NoError(t, st.Close())

	s2, err := NewSealer(KeyOptions{KeyPath: filepath.Join(dir, "b.key")})
	require.NoError(t, err)
	st2, err := OpenSQLite(dbPath, s2)
	require.NoError(t, err)
	defer st2.Close()

	_, _, err = st2.Get(ctx, KeyToken)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestSQLiteStoreClosed(t *testing.T) {
	st, _ := newTestSQLite(t)
	require.NoError(t, st.Close())
	require.NoError(t, st.Close())

	_, _, err := st.Get(context.Background(), KeyToken)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, st.Set(context.Background(), KeyToken, "x"), ErrClosed)
}

func TestSealerRoundTripAndTamper(t *testing.T) {
	key := make([]byte, KeySize)
	s, err := NewSealerFromKey(key)
	require.NoError(t, err)

	a, err := s.Seal("hello")
	require.NoError(t, err)
	b, err := s.Seal("hello")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "fresh nonce per seal")

	plain, err := s.Open(a)
	require.NoError(t, err)
	assert.Equal(t, "hello", plain)

	_, err = s.Open("hello")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	tampered := a[:len(a)-4] + "AAA="
	_, err = s.Open(tampered)
	assert.Error(t, err)

	_, err = NewSealerFromKey([]byte("short"))
	assert.Error(t, err)
}

func TestPassphraseSealerIsStable(t *testing.T) {
	dir := t.TempDir()
	opts := KeyOptions{KeyPath: filepath.Join(dir, "storage.key"), Passphrase: "correct horse", Iterations: 1000}

	s1, err := NewSealer(opts)
	require.NoError(t, err)
	sealed, err := s1.Seal("token")
	require.NoError(t, err)

	_, err = os.Stat(opts.KeyPath + ".salt")
	require.NoError(t, err)
	_, err = os.Stat(opts.KeyPath)
	assert.True(t, os.IsNotExist(err), "passphrase mode writes no key file")

	s2, err := NewSealer(opts)
	require.NoError(t, err)
	plain, err := s2.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "token", plain)

	opts.Passphrase = "wrong"
	s3, err := NewSealer(opts)
	require.NoError(t, err)
	_, err = s3.Open(sealed)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestOpenEphemeral(t *testing.T) {
	st, closer, err := Open(Options{Ephemeral: true})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, st)
	assert.NoError(t, closer.Close())
}

func TestOpenSQLiteOptions(t *testing.T) {
	dir := t.TempDir()
	st, closer, err := Open(Options{Path: filepath.Join(dir, "state.db"), KeyPath: filepath.Join(dir, "k")})
	require.NoError(t, err)
	defer closer.Close()
	exerciseStore(t, st)
}
