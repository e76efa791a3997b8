package fileio

import (
	"bufio"
	"errors"
	"fmt"
	"os"
)

// BufferedWriter does buffered write to file
type BufferedWriter struct {
	file      *os.File
	writer    *bufio.Writer
	crc32Hash uint32
}

// New creates new file for writing or returns error upon failing to do so
func (b *BufferedWriter) New(filename string, bufferSize int) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLocalIO, err)
	}
	b.file = file
	// New buffered writer.
	b.writer = bufio.NewWriterSize(b.file, bufferSize)
	b.crc32Hash = 0
	return nil
}

// Write writes chunk to file and updates the running checksum
func (b *BufferedWriter) Write(chunk []byte) (int, error) {
	if b.file == nil {
		return 0, errors.New("cannot write without file handle")
	}
	n, err := b.writer.Write(chunk)
	// Update hash.
	b.crc32Hash = progressiveChecksumCRC32(b.crc32Hash, chunk[:n])
	if err != nil {
		return n, fmt.Errorf("%w: %w", ErrLocalIO, err)
	}
	return n, nil
}

// Commit flushes remaining bytes, closes the file and returns CRC32 of all data written
func (b *BufferedWriter) Commit() (uint32, error) {
	if b.file == nil {
		return 0, errors.New("cannot commit without file handle")
	}
	// Write any remaining bytes.
	flushErr := b.writer.Flush()
	closeErr := b.file.Close()
	b.file = nil

	if err := errors.Join(flushErr, closeErr); err != nil {
		return b.crc32Hash, fmt.Errorf("%w: %w", ErrLocalIO, err)
	}
	return b.crc32Hash, nil
}
