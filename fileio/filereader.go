package fileio

import (
	"fmt"
	"os"
	"path/filepath"
)

// CheckFile verifies filename is a readable regular file of at most limit bytes
func CheckFile(filename string, limit int64) error {
	filename = filepath.Clean(filename)

	info, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLocalIO, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrLocalIO, filename)
	}
	if info.Size() > limit {
		return fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrLocalIO, filename, info.Size(), limit)
	}

	handle, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLocalIO, err)
	}
	return handle.Close()
}

// ReadFile loads a whole regular file that must not exceed limit bytes
func ReadFile(filename string, limit int64) ([]byte, error) {
	if err := CheckFile(filename, limit); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Clean(filename))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLocalIO, err)
	}
	return data, nil
}
