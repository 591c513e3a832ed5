package report

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
)

// Encryptor seals report payloads with AES-256-GCM. Key material comes from
// a SecretStore at call time, so rotation happens without a restart once the
// cache expires. Ciphertext is tagged with the key version that sealed it.
type Encryptor struct {
	secrets SecretStore
	keyName string
	version string
}

// NewEncryptor creates an encryptor reading key material from secrets under
// keyName. version tags new ciphertext (e.g. "v1").
func NewEncryptor(secrets SecretStore, keyName, version string) *Encryptor {
	if secrets == nil {
		panic("report: encryptor requires a secret store")
	}
	if keyName == "" {
		panic("report: encryptor requires a key name")
	}
	if version == "" {
		version = "v1"
	}
	return &Encryptor{secrets: secrets, keyName: keyName, version: version}
}

// KeyVersion returns the version new ciphertext is sealed under.
func (e *Encryptor) KeyVersion() string { return e.version }

// Encrypt seals plaintext and returns "<version>:<base64(nonce||ct)>".
func (e *Encryptor) Encrypt(ctx context.Context, plaintext []byte) (string, error) {
	gcm, err := e.aead(ctx)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("report: nonce generation: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, plaintext, []byte(e.version))
	return e.version + ":" + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens ciphertext produced by Encrypt. Ciphertext sealed under a
// different key version is rejected with ErrKeyVersion.
func (e *Encryptor) Decrypt(ctx context.Context, ciphertext string) ([]byte, error) {
	version, encoded, ok := strings.Cut(ciphertext, ":")
	if !ok {
		return nil, fmt.Errorf("report: malformed ciphertext")
	}
	if version != e.version {
		return nil, fmt.Errorf("%w: sealed under %q, current %q", ErrKeyVersion, version, e.version)
	}

	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("report: malformed ciphertext: %w", err)
	}

	gcm, err := e.aead(ctx)
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, fmt.Errorf("report: malformed ciphertext: truncated nonce")
	}

	nonce, body := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, body, []byte(version))
	if err != nil {
		return nil, fmt.Errorf("report: decryption failed: %w", err)
	}
	return plaintext, nil
}

// aead builds the GCM cipher from current key material. The AES-256 key is
// derived from the stored secret with SHA-256, so any high-entropy secret
// string works as key material.
func (e *Encryptor) aead(ctx context.Context) (cipher.AEAD, error) {
	secret, err := e.secrets.GetSecret(ctx, e.keyName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyFetch, err)
	}
	if secret == "" {
		return nil, fmt.Errorf("%w: empty key material for %q", ErrKeyFetch, e.keyName)
	}

	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("report: cipher init: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("report: gcm init: %w", err)
	}
	return gcm, nil
}
