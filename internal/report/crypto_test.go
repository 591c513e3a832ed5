package report

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEncryptor(version string) *Encryptor {
	secrets := NewStaticSecretStore(map[string]string{
		"safety-encryption-key": "correct horse battery staple",
	})
	return NewEncryptor(secrets, "safety-encryption-key", version)
}

func TestEncryptor_RoundTrip(t *testing.T) {
	enc := testEncryptor("v1")
	ctx := context.Background()

	ciphertext, err := enc.Encrypt(ctx, []byte("the sensitive report payload"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ciphertext, "v1:"))
	assert.NotContains(t, ciphertext, "sensitive")

	plaintext, err := enc.Decrypt(ctx, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "the sensitive report payload", string(plaintext))
}

func TestEncryptor_NonceVariesPerCall(t *testing.T) {
	enc := testEncryptor("v1")
	ctx := context.Background()

	first, err := enc.Encrypt(ctx, []byte("same input"))
	require.NoError(t, err)
	second, err := enc.Encrypt(ctx, []byte("same input"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestEncryptor_KeyVersionMismatch(t *testing.T) {
	ctx := context.Background()
	v1 := testEncryptor("v1")
	v2 := testEncryptor("v2")

	ciphertext, err := v1.Encrypt(ctx, []byte("payload"))
	require.NoError(t, err)

	_, err = v2.Decrypt(ctx, ciphertext)
	assert.ErrorIs(t, err, ErrKeyVersion)
}

func TestEncryptor_TamperDetected(t *testing.T) {
	enc := testEncryptor("v1")
	ctx := context.Background()

	ciphertext, err := enc.Encrypt(ctx, []byte("payload"))
	require.NoError(t, err)

	// Flip a character in the base64 body.
	tampered := []byte(ciphertext)
	last := len(tampered) - 2
	if tampered[last] == 'A' {
		tampered[last] = 'B'
	} else {
		tampered[last] = 'A'
	}
	_, err = enc.Decrypt(ctx, string(tampered))
	assert.Error(t, err)
}

func TestEncryptor_MalformedCiphertext(t *testing.T) {
	enc := testEncryptor("v1")
	ctx := context.Background()

	_, err := enc.Decrypt(ctx, "no-version-separator-here")
	assert.Error(t, err)

	_, err = enc.Decrypt(ctx, "v1:!!!not base64!!!")
	assert.Error(t, err)

	_, err = enc.Decrypt(ctx, "v1:QQ==")
	assert.Error(t, err)
}

func TestEncryptor_MissingKeyIsErrKeyFetch(t *testing.T) {
	enc := NewEncryptor(NewStaticSecretStore(nil), "safety-encryption-key", "v1")

	_, err := enc.Encrypt(context.Background(), []byte("payload"))
	assert.ErrorIs(t, err, ErrKeyFetch)
}
