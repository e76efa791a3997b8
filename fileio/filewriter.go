package fileio

import "io"

// FileWriter persists received data and reports the CRC32 of everything written
type FileWriter interface {
	New(filename string, bufferSize int) error
	io.Writer
	Commit() (uint32, error)
}
