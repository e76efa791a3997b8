package networking

import (
	"crypto/aes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKeyPair(t *testing.T) *Crypto {
	t.Helper()
	c := new(Crypto)
	require.NoError(t, c.GenerateKeyPair())
	return c
}

func TestGenerateKeyPair(t *testing.T) {
	c := newKeyPair(t)

	assert.True(t, c.HasPrivateKey())
	assert.NotEmpty(t, c.PublicKey())
	assert.NotEmpty(t, c.PrivateKey())
	assert.False(t, c.HasAESKey())

	_, err := base64.StdEncoding.DecodeString(c.PublicKey())
	assert.NoError(t, err, "public key must be base64")
}

func TestRSARoundTrip(t *testing.T) {
	c := newKeyPair(t)
	aesKey, err := GenerateAESKey()
	require.NoError(t, err)

	sealed, err := EncryptRSA(c.PublicKey(), aesKey)
	require.NoError(t, err)
	assert.NotEqual(t, aesKey, sealed)

	plain, err := c.DecryptRSA(sealed)
	require.NoError(t, err)
	assert.Equal(t, aesKey, plain)
}

func TestSetPrivateKeyRestoresPair(t *testing.T) {
	saved := newKeyPair(t)

	restored := new(Crypto)
	require.NoError(t, restored.SetPrivateKey(saved.PrivateKey()))
	assert.Equal(t, saved.PublicKey(), restored.PublicKey())

	sealed, err := EncryptRSA(saved.PublicKey(), "session key")
	require.NoError(t, err)
	plain, err := restored.DecryptRSA(sealed)
	require.NoError(t, err)
	assert.Equal(t, "session key", plain)
}

func TestSetPrivateKeyInvalid(t *testing.T) {
	c := new(Crypto)

	assert.ErrorIs(t, c.SetPrivateKey("not base64 !!"), ErrDecryption)
	assert.ErrorIs(t, c.SetPrivateKey(base64.StdEncoding.EncodeToString([]byte("garbage"))), ErrDecryption)
	assert.False(t, c.HasPrivateKey())
}

func TestDecryptRSAWithoutKey(t *testing.T) {
	_, err := new(Crypto).DecryptRSA("AAAA")
	assert.ErrorIs(t, err, ErrKeyNotSet)
}

func TestDecryptRSAWithOtherKey(t *testing.T) {
	owner := newKeyPair(t)
	other := newKeyPair(t)

	sealed, err := EncryptRSA(owner.PublicKey(), "secret")
	require.NoError(t, err)

	_, err = other.DecryptRSA(sealed)
	assert.ErrorIs(t, err, ErrDecryption)

	_, err = owner.DecryptRSA("%%%")
	assert.ErrorIs(t, err, ErrDecryption)
}

func TestEncryptRSAInvalidKey(t *testing.T) {
	_, err := EncryptRSA("%%%", "plain")
	assert.Error(t, err)

	_, err = EncryptRSA(base64.StdEncoding.EncodeToString([]byte("garbage")), "plain")
	assert.Error(t, err)
}

func TestEncryptAESWithoutKey(t *testing.T) {
	_, err := new(Crypto).EncryptAES([]byte("abc"))
	assert.ErrorIs(t, err, ErrKeyNotSet)
}

func TestAESRoundTrip(t *testing.T) {
	key, err := GenerateAESKey()
	require.NoError(t, err)

	c := new(Crypto)
	require.NoError(t, c.SetEncodedAESKey(key))
	assert.True(t, c.HasAESKey())
	assert.Equal(t, key, c.EncodedAESKey())

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"short", []byte("abc")},
		{"block aligned", make([]byte, aes.BlockSize*4)},
		{"binary", []byte{0x00, 0xff, 0x10, 0x00, 0x7f}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := c.EncryptAES(tt.data)
			require.NoError(t, err)

			raw, err := base64.StdEncoding.DecodeString(sealed)
			require.NoError(t, err)
			assert.Zero(t, len(raw)%aes.BlockSize)
			assert.Greater(t, len(raw), len(tt.data), "padding always adds bytes")

			plain, err := DecryptAES(key, []byte(sealed))
			require.NoError(t, err)
			assert.Equal(t, tt.data, plain)
		})
	}
}

func TestEncryptAESIsDeterministic(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(make([]byte, 16))
	c := new(Crypto)
	require.NoError(t, c.SetEncodedAESKey(key))

	first, err := c.EncryptAES([]byte("abc"))
	require.NoError(t, err)
	second, err := c.EncryptAES([]byte("abc"))
	require.NoError(t, err)

	assert.Equal(t, first, second, "zero IV gives identical ciphertext")
}

func TestSetEncodedAESKeyInvalid(t *testing.T) {
	c := new(Crypto)

	assert.ErrorIs(t, c.SetEncodedAESKey("%%%"), ErrDecryption)
	assert.ErrorIs(t, c.SetEncodedAESKey(base64.StdEncoding.EncodeToString([]byte("short"))), ErrDecryption)
	assert.False(t, c.HasAESKey())
}

func TestDecryptAESInvalid(t *testing.T) {
	key, err := GenerateAESKey()
	require.NoError(t, err)

	_, err = DecryptAES(key, []byte("%%%"))
	assert.ErrorIs(t, err, ErrDecryption)

	_, err = DecryptAES(key, []byte(base64.StdEncoding.EncodeToString([]byte("odd"))))
	assert.ErrorIs(t, err, ErrDecryption)

	_, err = DecryptAES("%%%", []byte("AAAA"))
	assert.ErrorIs(t, err, ErrDecryption)
}
