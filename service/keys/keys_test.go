package keys

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wallet.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("generated key round trips", func(t *testing.T) {
		key, err := Generate()
		require.NoError(t, err)

		loaded, err := Load(writeFile(t, Marshal(key)))
		require.NoError(t, err)
		assert.Equal(t, key, loaded)
		assert.Equal(t, key.PublicKey(), loaded.PublicKey())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrKeyFileNotFound)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := Load(writeFile(t, "hello"))
		assert.ErrorIs(t, err, ErrMalformedKey)
	})

	t.Run("wrong length", func(t *testing.T) {
		_, err := Load(writeFile(t, "[1,2,3]"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedKey)
		assert.Contains(t, err.Error(), "expected 64 bytes")
	})

	t.Run("public half does not match seed", func(t *testing.T) {
		key, err := Generate()
		require.NoError(t, err)
		key[63] ^= 0xff

		_, err = Load(writeFile(t, Marshal(key)))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedKey)
	})
}

func TestFromBytes_Copies(t *testing.T) {
	key, err := Generate()
	require.NoError(t, err)

	raw := []byte(key)
	out, err := FromBytes(raw)
	require.NoError(t, err)

	raw[0] ^= 0xff
	assert.NotEqual(t, raw[0], out[0])
}
