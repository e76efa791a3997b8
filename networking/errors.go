package networking

import (
	"errors"
	"fmt"
	"go_secure_copy/networking/opcode"
)

var (
	// ErrConnection means the stream could not be established or broke mid-session.
	ErrConnection = errors.New("connection error")
	// ErrMalformedHeader means a header was undersized or announced an impossible length.
	ErrMalformedHeader = errors.New("malformed header")
	// ErrShortRead means the stream closed before a full header or payload arrived.
	ErrShortRead = errors.New("short read")
	// ErrUnexpectedResponse means the server replied with a code not valid for the current step.
	ErrUnexpectedResponse = errors.New("unexpected response code")
	// ErrDecryption means ciphertext or key material could not be decoded or decrypted.
	ErrDecryption = errors.New("decryption error")
	// ErrKeyNotSet means an operation needed key material that has not been loaded yet.
	ErrKeyNotSet = errors.New("key not set")
)

// UnexpectedCodeError records which response arrived when another one was required.
type UnexpectedCodeError struct {
	Step string
	Want uint16
	Got  uint16
}

func (e *UnexpectedCodeError) Error() string {
	if e.Want == 0 {
		return fmt.Sprintf("%s: unrecognized response code %d", e.Step, e.Got)
	}
	return fmt.Sprintf("%s: expected %d (%s), got %d (%s)",
		e.Step, e.Want, opcode.Name(e.Want), e.Got, opcode.Name(e.Got))
}

func (e *UnexpectedCodeError) Unwrap() error {
	return ErrUnexpectedResponse
}
