package settings

import (
	"fmt"
	"go_secure_copy/fileio"
)

// KeyFile persists the base64 PKCS#8 private key in priv.key
type KeyFile struct {
	Path string
}

// LoadPrivateKey returns the persisted base64 private key
func (f *KeyFile) LoadPrivateKey() (string, error) {
	lines, err := readLines(f.Path)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 || lines[0] == "" {
		return "", fmt.Errorf("%w: %s is empty", fileio.ErrLocalIO, f.Path)
	}
	return lines[0], nil
}

// SavePrivateKey writes the key readable by the owner only
func (f *KeyFile) SavePrivateKey(encoded string) error {
	return writeLines(f.Path, encoded)
}
