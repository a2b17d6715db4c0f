package credentials

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inkasso", "credentials.json")
	s := NewFileStore(path)

	token, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, s.Save("  abc-secret-token  "))
	token, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc-secret-token", token)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	require.NoError(t, s.Save("second"))
	token, _ = s.Load()
	assert.Equal(t, "second", token, "only one token is kept")

	require.NoError(t, s.Delete())
	require.NoError(t, s.Delete())
	token, err = s.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestFileStoreRejectsEmptyToken(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "c.json"))
	assert.Error(t, s.Save("   "))
}

func TestFileStoreIgnoresForeignKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"service":"other","account":"x","token":"t"}`), 0o600))
	token, err := NewFileStore(path).Load()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestEnvStore(t *testing.T) {
	t.Setenv(EnvToken, " env-token ")
	token, err := EnvStore{}.Load()
	require.NoError(t, err)
	assert.Equal(t, "env-token", token)
	assert.ErrorIs(t, EnvStore{}.Save("x"), ErrReadOnly)
	assert.ErrorIs(t, EnvStore{}.Delete(), ErrReadOnly)
}

func TestChainPrefersEnvAndWritesFile(t *testing.T) {
	file := NewFileStore(filepath.Join(t.TempDir(), "c.json"))
	chain := Chain{EnvStore{}, file}

	t.Setenv(EnvToken, "")
	require.NoError(t, chain.Save("file-token"))
	token, err := chain.Load()
	require.NoError(t, err)
	assert.Equal(t, "file-token", token)

	t.Setenv(EnvToken, "env-token")
	token, _ = chain.Load()
	assert.Equal(t, "env-token", token)

	tok, err := Token{Store: chain}.Token()
	require.NoError(t, err)
	assert.Equal(t, "env-token", tok)

	require.NoError(t, chain.Delete())
	stored, _ := file.Load()
	assert.Empty(t, stored)

	assert.ErrorIs(t, Chain{EnvStore{}}.Save("x"), ErrReadOnly)
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()
	s := KeyringStore{}

	token, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, s.Save(" kr-token-0123456789 "))
	raw, err := keyring.Get(Service, Account)
	require.NoError(t, err)
	assert.Equal(t, "kr-token-0123456789", raw, "stored under the fixed service and account")

	token, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, "kr-token-0123456789", token)

	require.NoError(t, s.Delete())
	require.NoError(t, s.Delete())
	token, _ = s.Load()
	assert.Empty(t, token)
	assert.Error(t, s.Save(" "))
}

func TestChainUsesKeyringBeforeFile(t *testing.T) {
	keyring.MockInit()
	t.Setenv(EnvToken, "")
	file := NewFileStore(filepath.Join(t.TempDir(), "c.json"))
	chain := Chain{EnvStore{}, KeyringStore{}, file}

	where, err := chain.SaveTo("kr-token")
	require.NoError(t, err)
	assert.Equal(t, KeyringStore{}, where)
	assert.Equal(t, "system keyring", Describe(where))
	stored, _ := file.Load()
	assert.Empty(t, stored, "file is only the fallback")

	require.NoError(t, file.Save("stale-file-token"))
	token, from, err := chain.Find()
	require.NoError(t, err)
	assert.Equal(t, "kr-token", token)
	assert.Equal(t, KeyringStore{}, from)

	require.NoError(t, chain.Delete())
	token, err = chain.Load()
	require.NoError(t, err)
	assert.Empty(t, token, "delete clears keyring and file")
}

func TestChainFallsBackToFileWithoutKeyring(t *testing.T) {
	keyring.MockInitWithError(errors.New("no secret service"))
	t.Cleanup(keyring.MockInit)
	t.Setenv(EnvToken, "")
	file := NewFileStore(filepath.Join(t.TempDir(), "c.json"))
	chain := Chain{EnvStore{}, KeyringStore{}, file}

	_, err := KeyringStore{}.Load()
	assert.ErrorIs(t, err, ErrUnavailable)

	where, err := chain.SaveTo("file-token")
	require.NoError(t, err)
	assert.Equal(t, file.Path(), Describe(where))

	token, err := chain.Load()
	require.NoError(t, err)
	assert.Equal(t, "file-token", token)

	require.NoError(t, chain.Delete())
	stored, _ := file.Load()
	assert.Empty(t, stored)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "abcd****mnop", Mask("abcdefghmnop"))
	assert.Equal(t, "****", Mask("abcd"))
	assert.Equal(t, "", Mask(""))
}
