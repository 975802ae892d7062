package credentials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"flarewatch/pkg/errors"
)

func TestFileStore(t *testing.T) {
	dir := t.TempDir()

	t.Run("create store", func(t *testing.T) {
		s, err := NewManager(WithDir(dir), WithKeyring(false))
		require.NoError(t, err)
		assert.Equal(t, "encrypted file", s.Backend())
		assert.Len(t, s.masterKey, keySize)
	})

	t.Run("missing login", func(t *testing.T) {
		s, err := NewManager(WithDir(dir), WithKeyring(false))
		require.NoError(t, err)

		_, err = s.Load()
		assert.Equal(t, errors.ErrCodeCredentialMissing, errors.GetErrorCode(err))
	})

	t.Run("save and load", func(t *testing.T) {
		s, err := NewManager(WithDir(dir), WithKeyring(false))
		require.NoError(t, err)

		require.NoError(t, s.Save(Credentials{Username: "operator", Password: "secret123"}))

		raw, err := os.ReadFile(filepath.Join(dir, "publisher.cred"))
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "secret123")

		// A second store reuses the persisted master key.
		again, err := NewManager(WithDir(dir), WithKeyring(false))
		require.NoError(t, err)
		c, err := again.Load()
		require.NoError(t, err)
		assert.Equal(t, "operator", c.Username)
		assert.Equal(t, "secret123", c.Password)
	})

	t.Run("delete", func(t *testing.T) {
		s, err := NewManager(WithDir(dir), WithKeyring(false))
		require.NoError(t, err)

		require.NoError(t, s.Delete())
		require.NoError(t, s.Delete())
		_, err = s.Load()
		assert.Equal(t, errors.ErrCodeCredentialMissing, errors.GetErrorCode(err))
	})

	t.Run("corrupted file", func(t *testing.T) {
		s, err := NewManager(WithDir(dir), WithKeyring(false))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "publisher.cred"), []byte("garbage"), 0600))

		_, err = s.Load()
		assert.Equal(t, errors.ErrCodeEncryptionFailed, errors.GetErrorCode(err))
	})
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	s, err := NewManager(WithKeyring(true))
	require.NoError(t, err)
	assert.Equal(t, "keyring", s.Backend())

	_, err = s.Load()
	assert.Equal(t, errors.ErrCodeCredentialMissing, errors.GetErrorCode(err))

	require.NoError(t, s.Save(Credentials{Username: "operator", Password: "pw"}))
	c, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, Credentials{Username: "operator", Password: "pw"}, c)

	require.NoError(t, s.Delete())
	require.NoError(t, s.Delete())
}

func TestKeyringDisabledByEnv(t *testing.T) {
	t.Setenv(UseKeyringEnv, "false")
	assert.False(t, keyringAvailable())
}

func TestMasked(t *testing.T) {
	assert.Equal(t, "*******23", Credentials{Password: "secret123"}.Masked())
	assert.Equal(t, "**", Credentials{Password: "ab"}.Masked())
}

type stubLoader struct {
	creds Credentials
	err   error
}

func (s stubLoader) Load() (Credentials, error) { return s.creds, s.err }

type stubPrompter struct {
	creds  Credentials
	called bool
}

func (s *stubPrompter) Prompt() (Credentials, error) {
	s.called = true
	return s.creds, nil
}

func TestResolve(t *testing.T) {
	stored := stubLoader{creds: Credentials{Username: "stored", Password: "pw"}}
	absent := stubLoader{err: missing()}

	t.Run("environment wins", func(t *testing.T) {
		t.Setenv(UsernameEnv, "env")
		t.Setenv(PasswordEnv, "envpw")

		c, from, err := Resolve(stored, nil)
		require.NoError(t, err)
		assert.Equal(t, "env", c.Username)
		assert.Equal(t, "environment", from)
	})

	t.Run("store before prompt", func(t *testing.T) {
		t.Setenv(UsernameEnv, "")
		p := &stubPrompter{}

		c, from, err := Resolve(stored, p)
		require.NoError(t, err)
		assert.Equal(t, "stored", c.Username)
		assert.Equal(t, "store", from)
		assert.False(t, p.called)
	})

	t.Run("prompt as last resort", func(t *testing.T) {
		t.Setenv(UsernameEnv, "")
		p := &stubPrompter{creds: Credentials{Username: "typed", Password: "pw"}}

		c, from, err := Resolve(absent, p)
		require.NoError(t, err)
		assert.Equal(t, "typed", c.Username)
		assert.Equal(t, "prompt", from)
	})

	t.Run("nothing available", func(t *testing.T) {
		t.Setenv(UsernameEnv, "")
		_, _, err := Resolve(absent, nil)
		assert.Equal(t, errors.ErrCodeCredentialMissing, errors.GetErrorCode(err))
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		t.Setenv(UsernameEnv, "")
		broken := stubLoader{err: errors.New(errors.ErrCodeEncryptionFailed, "bad")}
		_, _, err := Resolve(broken, &stubPrompter{})
		assert.Equal(t, errors.ErrCodeEncryptionFailed, errors.GetErrorCode(err))
	})
}
