package storage

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	t.Setenv("ASSET_STORAGE_DIR", t.TempDir())
	store, err := NewLocalStoreFromEnv()
	require.NoError(t, err)
	return store
}

func TestLocalStoreRoundTrip(t *testing.T) {
	store := newTestLocalStore(t)

	key, err := store.Save("Assets/Brand/West/CA/Brand/2026/08/Static/a.png", strings.NewReader("payload"))
	require.NoError(t, err)

	rc, err := store.Open(key)
	require.NoError(t, err)
	defer rc.Close()

	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(content))

	require.NoError(t, store.Remove(key))
	_, err = store.Open(key)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	store := newTestLocalStore(t)

	_, err := store.Save("../outside.txt", strings.NewReader("nope"))
	require.Error(t, err)

	_, err = store.Path("a/../../b")
	require.Error(t, err)

	_, err = store.Save("", strings.NewReader("nope"))
	require.Error(t, err)
}

func TestLocalStoreRemoveMissingIsNoError(t *testing.T) {
	store := newTestLocalStore(t)
	assert.NoError(t, store.Remove("never/saved.bin"))
}
