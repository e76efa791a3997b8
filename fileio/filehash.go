package fileio

import (
	"errors"
	"fmt"
	"go_secure_copy/constants"
	"hash/crc32"
	"io"
	"os"
)

// ErrLocalIO means a local file could not be read or written
var ErrLocalIO = errors.New("local I/O error")

// ChecksumOfFile returns CRC32 checksum of given file as 8 lowercase hex digits
func ChecksumOfFile(file string) (string, error) {
	handle, err := os.Open(file)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLocalIO, err)
	}
	defer handle.Close()

	hash := crc32.New(crc32.IEEETable)
	if _, err := io.CopyBuffer(hash, handle, make([]byte, constants.CHECKSUM_CHUNK)); err != nil {
		return "", fmt.Errorf("%w: %w", ErrLocalIO, err)
	}

	return FormatChecksum(hash.Sum32()), nil
}

// ChecksumOfBytes returns CRC32 checksum of data as 8 lowercase hex digits
func ChecksumOfBytes(data []byte) string {
	return FormatChecksum(crc32.ChecksumIEEE(data))
}

// FormatChecksum renders a CRC32 value the way it is compared against the server's
func FormatChecksum(sum uint32) string {
	return fmt.Sprintf("%08x", sum)
}

// progressiveChecksumCRC32 incrementally calculates CRC32 checksum
func progressiveChecksumCRC32(hash uint32, data []byte) uint32 {
	return crc32.Update(hash, crc32.IEEETable, data)
}
