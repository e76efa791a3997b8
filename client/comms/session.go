package comms

import (
	"errors"
	"go_secure_copy/constants"
	"go_secure_copy/networking"
)

// ErrChecksumMismatch means the server never reported the local checksum within the retry bound
var ErrChecksumMismatch = errors.New("checksum mismatch")

// Log tags of the protocol steps.
const (
	StepConnection  = "CONNECTION"
	StepRegister    = "REGISTER"
	StepShareKey    = "SHARE KEY"
	StepLogin       = "LOGIN"
	StepSendFile    = "SEND FILE"
	StepCheckAccept = "CHECK ACCEPT"
	StepConfirm     = "CONFIRM"
)

// IdentityStore persists the name and id issued at registration
type IdentityStore interface {
	SaveIdentity(name, id string) error
}

// KeyStore persists the private key generated at registration
type KeyStore interface {
	SavePrivateKey(encoded string) error
}

// Session is the identity and key material of one client run
type Session struct {
	ID     networking.ClientID
	Name   string
	Crypto *networking.Crypto
}

// NewSession starts an unregistered session for name
func NewSession(name string) *Session {
	return &Session{Name: name, Crypto: new(networking.Crypto)}
}

// Registered reports whether the server has issued an id
func (s *Session) Registered() bool {
	return !s.ID.IsZero()
}

// Transfer tracks delivery of one file
type Transfer struct {
	Path       string
	Retries    int    // Checksum mismatches so far
	MaxRetries int    // Retry notices allowed before the final one
	Checksum   string // Local checksum, set once the server replied
}

// NewTransfer prepares delivery of path with the default retry bound when maxRetries is negative
func NewTransfer(path string, maxRetries int) *Transfer {
	if maxRetries < 0 {
		maxRetries = constants.MAX_RETRY_COUNT
	}
	return &Transfer{Path: path, MaxRetries: maxRetries}
}

// Exhausted reports whether the final mismatch notice has been sent
func (t *Transfer) Exhausted() bool {
	return t.Retries > t.MaxRetries
}
