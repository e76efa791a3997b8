package settings

import (
	"errors"
	"fmt"
	"go_secure_copy/fileio"
	"os"
)

// IdentityFile persists name and client id in me.info
type IdentityFile struct {
	Path string
}

// LoadIdentity returns persisted name and id, or ErrNotRegistered when the file does not exist
func (f *IdentityFile) LoadIdentity() (string, string, error) {
	if _, err := os.Stat(f.Path); errors.Is(err, os.ErrNotExist) {
		return "", "", ErrNotRegistered
	}

	lines, err := readLines(f.Path)
	if err != nil {
		return "", "", err
	}
	if len(lines) < 2 || lines[0] == "" || lines[1] == "" {
		return "", "", fmt.Errorf("%w: %s needs name and id lines", fileio.ErrLocalIO, f.Path)
	}
	return lines[0], lines[1], nil
}

// SaveIdentity writes name and id, replacing any previous identity
func (f *IdentityFile) SaveIdentity(name, id string) error {
	return writeLines(f.Path, name, id)
}

func writeLines(path string, lines ...string) error {
	var out []byte
	for _, line := range lines {
		out = append(out, line...)
		out = append(out, '\n')
	}
	if err := os.WriteFile(path, out, 0600); err != nil {
		return fmt.Errorf("%w: %w", fileio.ErrLocalIO, err)
	}
	return nil
}
