package keyring

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *fileStore {
	t.Helper()
	return newFileStore(filepath.Join(t.TempDir(), "keyring.json"), "test-master")
}

func TestFileStoreRoundTrip(t *testing.T) {
	fs := newTestStore(t)

	require.NoError(t, fs.set("oerp", "staging:admin", "secret"))
	got, err := fs.get("oerp", "staging:admin")
	require.NoError(t, err)
	assert.Equal(t, "secret", got)
}

func TestFileStoreOverwrite(t *testing.T) {
	fs := newTestStore(t)

	require.NoError(t, fs.set("oerp", "staging:admin", "old"))
	require.NoError(t, fs.set("oerp", "staging:admin", "new"))
	got, err := fs.get("oerp", "staging:admin")
	require.NoError(t, err)
	assert.Equal(t, "new", got)
}

func TestFileStoreDelete(t *testing.T) {
	fs := newTestStore(t)

	require.NoError(t, fs.set("oerp", "staging:admin", "secret"))
	require.NoError(t, fs.delete("oerp", "staging:admin"))
	_, err := fs.get("oerp", "staging:admin")
	assert.Error(t, err)

	// Deleting with no keyring file is not an error
	require.NoError(t, newTestStore(t).delete("oerp", "missing:user"))
}

func TestFileStoreWrongMasterPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keyring.json")
	fs := newFileStore(path, "right")
	require.NoError(t, fs.set("oerp", "staging:admin", "secret"))

	other := newFileStore(path, "wrong")
	_, err := other.get("oerp", "staging:admin")
	assert.Error(t, err)
}
