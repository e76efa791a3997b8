package networking

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"go_secure_copy/constants"
)

// Crypto holds the RSA keypair of a client and the AES transport key of the current session.
// Keys are kept in their base64 encoded forms alongside the parsed values.
type Crypto struct {
	publicKey  string // Base64 DER SubjectPublicKeyInfo
	privateKey string // Base64 DER PKCS#8
	rsa        *rsa.PrivateKey
	aesKey     string // Base64 raw key
	aes        cipher.Block
}

// GenerateKeyPair creates a fresh RSA keypair and keeps both encoded halves
func (c *Crypto) GenerateKeyPair() error {
	key, err := rsa.GenerateKey(rand.Reader, constants.RSA_KEY_BITS)
	if err != nil {
		return fmt.Errorf("failed to generate RSA key pair: %w", err)
	}
	return c.setRSA(key)
}

func (c *Crypto) setRSA(key *rsa.PrivateKey) error {
	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return fmt.Errorf("failed to marshal public key: %w", err)
	}
	priv, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return fmt.Errorf("failed to marshal private key: %w", err)
	}
	c.rsa = key
	c.publicKey = base64.StdEncoding.EncodeToString(pub)
	c.privateKey = base64.StdEncoding.EncodeToString(priv)
	return nil
}

// PublicKey returns the base64 encoded public key, empty if none is loaded
func (c *Crypto) PublicKey() string {
	return c.publicKey
}

// PrivateKey returns the base64 encoded private key, empty if none is loaded
func (c *Crypto) PrivateKey() string {
	return c.privateKey
}

// SetPrivateKey loads a persisted base64 PKCS#8 private key; the public half is derived from it
func (c *Crypto) SetPrivateKey(encoded string) error {
	der, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("%w: private key is not base64: %w", ErrDecryption, err)
	}
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return fmt.Errorf("%w: failed to parse private key: %w", ErrDecryption, err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return fmt.Errorf("%w: private key is not an RSA key", ErrDecryption)
	}
	return c.setRSA(key)
}

// HasPrivateKey reports whether received keys can be decrypted
func (c *Crypto) HasPrivateKey() bool {
	return c.rsa != nil
}

// EncodedAESKey returns the base64 AES key of the session, empty if none is set
func (c *Crypto) EncodedAESKey() string {
	return c.aesKey
}

// SetEncodedAESKey takes the base64 AES key handed out by the server
func (c *Crypto) SetEncodedAESKey(encoded string) error {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("%w: AES key is not base64: %w", ErrDecryption, err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDecryption, err)
	}
	c.aes = block
	c.aesKey = encoded
	return nil
}

// HasAESKey reports whether file content can be encrypted
func (c *Crypto) HasAESKey() bool {
	return c.aes != nil
}

// DecryptRSA decrypts base64 content with the private key using PKCS#1 v1.5 padding
func (c *Crypto) DecryptRSA(content string) (string, error) {
	if c.rsa == nil {
		return "", fmt.Errorf("%w: private key required to decrypt", ErrKeyNotSet)
	}
	sealed, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return "", fmt.Errorf("%w: ciphertext is not base64: %w", ErrDecryption, err)
	}
	plain, err := rsa.DecryptPKCS1v15(nil, c.rsa, sealed)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecryption, err)
	}
	return string(plain), nil
}

// EncryptAES encrypts data in CBC mode with PKCS#7 padding and returns base64 text.
// The IV is all zeroes because the receiving side expects exactly that.
func (c *Crypto) EncryptAES(data []byte) (string, error) {
	if c.aes == nil {
		return "", fmt.Errorf("%w: AES key required to encrypt", ErrKeyNotSet)
	}
	iv := make([]byte, aes.BlockSize)
	padded := pkcs7Pad(data, aes.BlockSize)
	dst := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.aes, iv).CryptBlocks(dst, padded)

	return base64.StdEncoding.EncodeToString(dst), nil
}

// GenerateAESKey returns a random base64 encoded AES-128 key
func GenerateAESKey() (string, error) {
	key := make([]byte, constants.AES_KEY_SIZE)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate AES key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// EncryptRSA encrypts plain text for the holder of a base64 DER public key using PKCS#1 v1.5
func EncryptRSA(publicKey, plain string) (string, error) {
	der, err := base64.StdEncoding.DecodeString(publicKey)
	if err != nil {
		return "", fmt.Errorf("public key is not base64: %w", err)
	}
	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return "", fmt.Errorf("failed to parse public key: %w", err)
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return "", errors.New("key is not an RSA public key")
	}
	sealed, err := rsa.EncryptPKCS1v15(rand.Reader, key, []byte(plain))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptAES reverses EncryptAES for the holder of the base64 AES key
func DecryptAES(encodedKey string, content []byte) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("%w: AES key is not base64: %w", ErrDecryption, err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryption, err)
	}
	sealed, err := base64.StdEncoding.DecodeString(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: ciphertext is not base64: %w", ErrDecryption, err)
	}
	if len(sealed) == 0 || len(sealed)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext is not a whole number of blocks", ErrDecryption)
	}
	plain := make([]byte, len(sealed))
	cipher.NewCBCDecrypter(block, make([]byte, aes.BlockSize)).CryptBlocks(plain, sealed)

	return pkcs7Unpad(plain, aes.BlockSize)
}

func pkcs7Pad(data []byte, size int) []byte {
	pad := size - len(data)%size
	return append(bytes.Clone(data), bytes.Repeat([]byte{byte(pad)}, pad)...)
}

func pkcs7Unpad(data []byte, size int) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty plaintext", ErrDecryption)
	}
	pad := int(data[len(data)-1])
	if pad < 1 || pad > size || pad > len(data) {
		return nil, fmt.Errorf("%w: invalid padding length", ErrDecryption)
	}
	if !bytes.Equal(data[len(data)-pad:], bytes.Repeat([]byte{byte(pad)}, pad)) {
		return nil, fmt.Errorf("%w: invalid padding bytes", ErrDecryption)
	}
	return data[:len(data)-pad], nil
}
