package config

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// SecretKey signs session cookies with HMAC-SHA256 so a client cannot forge
// another session's identity.
type SecretKey struct {
	key []byte
}

// NewSecretKey initializes signing from AAHAR_SECRET_KEY or auto-generates a
// persistent key at ~/.aahar/secret.key on first run.
func NewSecretKey() (*SecretKey, error) {
	if raw := os.Getenv("AAHAR_SECRET_KEY"); raw != "" {
		h := sha256.Sum256([]byte(raw))
		return &SecretKey{key: h[:]}, nil
	}

	keyPath := filepath.Join(homeDir(), ".aahar", "secret.key")
	if data, err := os.ReadFile(keyPath); err == nil && len(data) >= 32 {
		return &SecretKey{key: data[:32]}, nil
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate secret key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(keyPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := os.WriteFile(keyPath, key, 0600); err != nil {
		return nil, fmt.Errorf("failed to write secret key: %w", err)
	}

	return &SecretKey{key: key}, nil
}

// Sign returns "<value>.<base64 mac>" suitable for a cookie value.
func (s *SecretKey) Sign(value string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(value))
	return value + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Verify checks a signed cookie value and returns the embedded value.
func (s *SecretKey) Verify(signed string) (string, bool) {
	idx := strings.LastIndexByte(signed, '.')
	if idx <= 0 {
		return "", false
	}
	value, tag := signed[:idx], signed[idx+1:]
	want, err := base64.RawURLEncoding.DecodeString(tag)
	if err != nil {
		return "", false
	}
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(value))
	if !hmac.Equal(mac.Sum(nil), want) {
		return "", false
	}
	return value, true
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}
