// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/jeranaias/applianceai-tui/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// SealedPrefix marks a sealed value (format: ENC:base64(nonce|ciphertext|tag)).
const SealedPrefix = "ENC:"

const (
	// KeySize is the AES-256 key size in bytes.
	KeySize = 32
	// SaltSize is the PBKDF2 salt size in bytes.
	SaltSize = 32
	// PBKDF2Iterations for PBKDF2-SHA-256 key derivation.
	PBKDF2Iterations = 600000
)

var (
	// ErrInvalidCiphertext indicates a sealed value is malformed.
	ErrInvalidCiphertext = errors.New("storage: invalid sealed value")
	// ErrDecryptionFailed indicates a wrong key or a tampered value.
	ErrDecryptionFailed = errors.New("storage: decryption failed")
)

// zeroBytes clears key material.
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// =============================================================================
// SEALER
// =============================================================================

// Sealer encrypts stored values with AES-256-GCM.
type Sealer struct {
	aead cipher.AEAD
}

// KeyOptions selects where the sealing key comes from.
type KeyOptions struct {
	// KeyPath holds a random key, created with 0600 permissions on first use.
	KeyPath string
	// Passphrase, when non-empty, derives the key with PBKDF2-SHA-256. The
	// salt is kept at KeyPath + ".salt".
	Passphrase string
	// Iterations overrides PBKDF2Iterations. Tests use a small value.
	Iterations int
}

// NewSealer loads or creates the sealing key described by opts.
func NewSealer(opts KeyOptions) (*Sealer, error) {
	if opts.KeyPath == "" {
		return nil, errors.New("storage: key path is required")
	}

	var key []byte
	var err error
	if opts.Passphrase != "" {
		key, err = derivedKey(opts)
	} else {
		key, err = fileKey(opts.KeyPath)
	}
	if err != nil {
		return nil, err
	}
	defer zeroBytes(key)

	return NewSealerFromKey(key)
}

// NewSealerFromKey builds a Sealer from a raw 32-byte key.
func NewSealerFromKey(key []byte) (*Sealer, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("storage: key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// fileKey reads the random key at path, generating it when absent.
func fileKey(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		if len(data) != KeySize {
			return nil, fmt.Errorf("storage: key file %s has %d bytes, want %d", path, len(data), KeySize)
		}
		return data, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	key, err := randomBytes(KeySize)
	if err != nil {
		return nil, err
	}
	if err := util.WriteFileAtomic(path, key, 0600); err != nil {
		return nil, fmt.Errorf("failed to write key file: %w", err)
	}
	return key, nil
}

// derivedKey derives the key from the passphrase and a persisted salt.
func derivedKey(opts KeyOptions) ([]byte, error) {
	saltPath := opts.KeyPath + ".salt"
	salt, err := os.ReadFile(saltPath)
	if errors.Is(err, os.ErrNotExist) {
		salt, err = randomBytes(SaltSize)
		if err != nil {
			return nil, err
		}
		if err := util.WriteFileAtomic(saltPath, salt, 0600); err != nil {
			return nil, fmt.Errorf("failed to write salt file: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read salt file: %w", err)
	}

	iter := opts.Iterations
	if iter <= 0 {
		iter = PBKDF2Iterations
	}
	return pbkdf2.Key([]byte(opts.Passphrase), salt, iter, KeySize, sha256.New), nil
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return b, nil
}

// Seal encrypts plaintext. Each call uses a fresh random nonce.
func (s *Sealer) Seal(plaintext string) (string, error) {
	nonce, err := randomBytes(s.aead.NonceSize())
	if err != nil {
		return "", err
	}
	out := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return SealedPrefix + base64.StdEncoding.EncodeToString(out), nil
}

// Open decrypts a value produced by Seal.
func (s *Sealer) Open(sealed string) (string, error) {
	if !strings.HasPrefix(sealed, SealedPrefix) {
		return "", ErrInvalidCiphertext
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(sealed, SealedPrefix))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	ns := s.aead.NonceSize()
	if len(raw) < ns+s.aead.Overhead() {
		return "", ErrInvalidCiphertext
	}
	plain, err := s.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plain), nil
}
