package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/pbkdf2"

	"flarewatch/internal/common"
	"flarewatch/pkg/errors"
)

const (
	keyringService = "flarewatch"
	keyringAccount = "publisher"

	// UseKeyringEnv set to "false" forces the encrypted file backend.
	UseKeyringEnv = "FLAREWATCH_USE_KEYRING"

	saltSize         = 32
	pbkdf2Iterations = 100000
	keySize          = 32
)

// Credentials is a subscription login for the publisher.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Complete reports whether both fields are set.
func (c Credentials) Complete() bool {
	return c.Username != "" && c.Password != ""
}

// Masked returns the password with all but its last two characters hidden.
func (c Credentials) Masked() string {
	if len(c.Password) <= 2 {
		return "**"
	}
	return fmt.Sprintf("%s%s", repeat('*', len(c.Password)-2), c.Password[len(c.Password)-2:])
}

func repeat(r rune, n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = r
	}
	return string(b)
}

// Manager keeps the publisher login in the system keyring, or in an
// encrypted file when no keyring is available.
type Manager struct {
	dir        string
	useKeyring bool
	masterKey  []byte
}

// Option configures a Manager.
type Option func(*Manager)

// WithDir sets the directory for the encrypted file backend.
func WithDir(dir string) Option {
	return func(m *Manager) { m.dir = dir }
}

// WithKeyring forces the keyring backend on or off.
func WithKeyring(enabled bool) Option {
	return func(m *Manager) { m.useKeyring = enabled }
}

// NewManager creates a credential manager. Without options it stores files
// under ~/.flarewatch/credentials and picks the keyring when the platform
// has one.
func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{useKeyring: keyringAvailable()}
	if home, err := os.UserHomeDir(); err == nil {
		m.dir = filepath.Join(home, ".flarewatch", "credentials")
	}
	for _, opt := range opts {
		opt(m)
	}

	if !m.useKeyring {
		if m.dir == "" {
			return nil, errors.New(errors.ErrCodeConfigMissing, "cannot determine credentials directory")
		}
		key, err := m.loadMasterKey()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeEncryptionFailed, "failed to initialize master key").
				WithContext("dir", m.dir)
		}
		m.masterKey = key
	}
	return m, nil
}

// Backend names the storage in use.
func (m *Manager) Backend() string {
	if m.useKeyring {
		return "keyring"
	}
	return "encrypted file"
}

// Save stores c, replacing any previous login.
func (m *Manager) Save(c Credentials) error {
	data, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to marshal credentials")
	}

	if m.useKeyring {
		if err := keyring.Set(keyringService, keyringAccount, string(data)); err != nil {
			return errors.Wrap(err, errors.ErrCodeEncryptionFailed, "failed to store credentials in keyring")
		}
		return nil
	}

	sealed, err := m.encrypt(data)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeEncryptionFailed, "failed to encrypt credentials")
	}
	if err := os.MkdirAll(m.dir, common.DirPermissionSecure); err != nil {
		return errors.Wrap(err, errors.ErrCodeFilePermission, "cannot create credentials directory").
			WithContext("dir", m.dir)
	}
	if err := os.WriteFile(m.path(), []byte(sealed), common.FilePermissionSecure); err != nil {
		return errors.Wrap(err, errors.ErrCodeFileOperation, "cannot write credentials file").
			WithContext("path", m.path())
	}
	return nil
}

// Load returns the stored login, or an ErrCodeCredentialMissing error.
func (m *Manager) Load() (Credentials, error) {
	var raw []byte
	if m.useKeyring {
		data, err := keyring.Get(keyringService, keyringAccount)
		if err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				return Credentials{}, missing()
			}
			return Credentials{}, errors.Wrap(err, errors.ErrCodeEncryptionFailed, "failed to read credentials from keyring")
		}
		raw = []byte(data)
	} else {
		sealed, err := os.ReadFile(m.path()) // #nosec G304 - path is derived from the credentials directory
		if err != nil {
			if os.IsNotExist(err) {
				return Credentials{}, missing()
			}
			return Credentials{}, errors.Wrap(err, errors.ErrCodeFileOperation, "cannot read credentials file").
				WithContext("path", m.path())
		}
		raw, err = m.decrypt(string(sealed))
		if err != nil {
			return Credentials{}, errors.Wrap(err, errors.ErrCodeEncryptionFailed, "failed to decrypt credentials").
				WithSuggestions("Run 'flarewatch credentials set' to store the login again")
		}
	}

	var c Credentials
	if err := json.Unmarshal(raw, &c); err != nil {
		return Credentials{}, errors.Wrap(err, errors.ErrCodeEncryptionFailed, "stored credentials are corrupted")
	}
	return c, nil
}

// Delete removes the stored login. Deleting a missing login is not an error.
func (m *Manager) Delete() error {
	if m.useKeyring {
		if err := keyring.Delete(keyringService, keyringAccount); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return errors.Wrap(err, errors.ErrCodeEncryptionFailed, "failed to delete credentials from keyring")
		}
		return nil
	}
	if err := os.Remove(m.path()); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.ErrCodeFileOperation, "cannot delete credentials file").
			WithContext("path", m.path())
	}
	return nil
}

func missing() error {
	return errors.New(errors.ErrCodeCredentialMissing, "no publisher credentials stored").
		WithSuggestions(
			"Run 'flarewatch credentials set'",
			"Or set FLAREWATCH_USERNAME and FLAREWATCH_PASSWORD",
		)
}

func (m *Manager) path() string {
	return filepath.Join(m.dir, keyringAccount+".cred")
}

func (m *Manager) encrypt(plaintext []byte) (string, error) {
	gcm, err := m.aead()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(gcm.Seal(nonce, nonce, plaintext, nil)), nil
}

func (m *Manager) decrypt(ciphertext string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, err
	}
	gcm, err := m.aead()
	if err != nil {
		return nil, err
	}
	if len(data) < gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, sealed := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	return gcm.Open(nil, nonce, sealed, nil)
}

func (m *Manager) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(m.masterKey)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// loadMasterKey reads the salt+key file, creating it on first use.
func (m *Manager) loadMasterKey() ([]byte, error) {
	keyPath, err := common.ValidatePath(filepath.Join(m.dir, ".master"), m.dir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(keyPath) // #nosec G304 - path is validated
	if err == nil {
		if len(data) != saltSize+keySize {
			return nil, fmt.Errorf("invalid master key file size")
		}
		return data[saltSize:], nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	key := pbkdf2.Key([]byte(machineID()), salt, pbkdf2Iterations, keySize, sha256.New)

	if err := os.MkdirAll(m.dir, common.DirPermissionSecure); err != nil {
		return nil, err
	}
	if err := os.WriteFile(keyPath, append(salt, key...), common.FilePermissionSecure); err != nil {
		return nil, err
	}
	return key, nil
}

func keyringAvailable() bool {
	if os.Getenv(UseKeyringEnv) == "false" {
		return false
	}
	switch runtime.GOOS {
	case "darwin", "windows":
		return true
	case "linux":
		return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
	}
	return false
}

func machineID() string {
	hostname, _ := os.Hostname()
	user := os.Getenv("USER")
	if user == "" {
		user = os.Getenv("USERNAME")
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s-%s-%s-%s", hostname, user, runtime.GOOS, runtime.GOARCH)))
	return base64.StdEncoding.EncodeToString(sum[:])
}
