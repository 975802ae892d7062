package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	encryptedPrefix = "ENC["
	encryptedSuffix = "]"
)

// getEncryptionKey derives the value key from FLAREWATCH_ENCRYPTION_KEY or,
// failing that, from the host name and home directory.
func getEncryptionKey() []byte {
	if key := os.Getenv(EnvPrefix + "_ENCRYPTION_KEY"); key != "" {
		hash := sha256.Sum256([]byte(key))
		return hash[:]
	}

	hostname, _ := os.Hostname()
	homeDir, _ := os.UserHomeDir()
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s-%s-flarewatch", hostname, homeDir)))
	return hash[:]
}

func newGCM() (cipher.AEAD, error) {
	block, err := aes.NewCipher(getEncryptionKey())
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// EncryptValue seals a secret config value as ENC[base64]. Empty and
// already encrypted values are returned unchanged.
func EncryptValue(value string) (string, error) {
	if value == "" || IsEncrypted(value) {
		return value, nil
	}

	gcm, err := newGCM()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(value), nil)
	return encryptedPrefix + base64.StdEncoding.EncodeToString(ciphertext) + encryptedSuffix, nil
}

// DecryptValue reverses EncryptValue. Plain values are returned unchanged.
func DecryptValue(value string) (string, error) {
	if !IsEncrypted(value) {
		return value, nil
	}

	encoded := strings.TrimSuffix(strings.TrimPrefix(value, encryptedPrefix), encryptedSuffix)
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode encrypted value: %w", err)
	}

	gcm, err := newGCM()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt value: %w", err)
	}
	return string(plaintext), nil
}

// IsEncrypted reports whether value has the ENC[...] form.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, encryptedPrefix) && strings.HasSuffix(value, encryptedSuffix)
}
