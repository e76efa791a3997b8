package comms

import (
	"fmt"
	"go_secure_copy/constants"
	"go_secure_copy/fileio"
	"go_secure_copy/networking"
	"go_secure_copy/networking/opcode"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// MaxFileSize is the largest plain file whose base64 ciphertext still fits in one payload.
const MaxFileSize = (constants.MAX_PAYLOAD_SIZE-4-constants.NAME_FIELD_SIZE)/4*3 - 16

// Deliver sends the file until the server reports the local checksum or the retry bound is used up.
// It returns ErrChecksumMismatch when the final attempt still mismatched.
func (c *Client) Deliver(session *Session, transfer *Transfer) error {
	for {
		if err := c.SendFile(session, transfer); err != nil {
			return err
		}
		matched, err := c.CheckAccept(session, transfer)
		if err != nil {
			return err
		}
		if matched || transfer.Exhausted() {
			return c.Confirm(session, transfer)
		}
		c.log.Named(StepSendFile).Warn("Resending file",
			zap.Int("retry", transfer.Retries),
			zap.Int("max", transfer.MaxRetries))
	}
}

// SendFile encrypts the file content under the session AES key and sends it.
// The server acknowledges with a file-accepted response read by CheckAccept.
func (c *Client) SendFile(session *Session, transfer *Transfer) error {
	log := c.log.Named(StepSendFile)
	log.Info("Sending file", zap.String("path", transfer.Path))

	content, err := fileio.ReadFile(transfer.Path, MaxFileSize)
	if err != nil {
		log.Error("Fail", zap.Error(err))
		return err
	}

	sealed, err := session.Crypto.EncryptAES(content)
	if err != nil {
		log.Error("Fail", zap.Error(err))
		return err
	}

	request := &networking.FileSendRequest{
		Size:     uint32(len(content)),
		FileName: filepath.Base(transfer.Path),
		Content:  []byte(sealed),
	}
	if err := c.send(session, opcode.SENDFILE, request.Encode()); err != nil {
		log.Error("Fail", zap.Error(err))
		return err
	}

	log.Info("Success", zap.Int("size", len(content)), zap.Int("encrypted", len(sealed)))
	return nil
}

// CheckAccept compares the server checksum with the local one and sends the verdict.
// A mismatch sends a retry notice while retries remain and the final notice after that.
func (c *Client) CheckAccept(session *Session, transfer *Transfer) (bool, error) {
	log := c.log.Named(StepCheckAccept)

	payload, err := c.receive(StepCheckAccept, opcode.FILEACCEPTED)
	if err != nil {
		log.Error("Fail", zap.Error(err))
		return false, err
	}
	accept, ok := payload.(*networking.FileAcceptPayload)
	if !ok {
		return false, fmt.Errorf("%w: file accept payload %T", networking.ErrUnexpectedResponse, payload)
	}

	local, err := fileio.ChecksumOfFile(transfer.Path)
	if err != nil {
		log.Error("Fail", zap.Error(err))
		return false, err
	}
	transfer.Checksum = local

	matched := strings.EqualFold(accept.ChecksumHex(), local)
	verdict := opcode.CHECKSUMOK
	if matched {
		log.Info("Success", zap.String("checksum", local))
	} else {
		verdict = opcode.CHECKSUMRETRY
		if transfer.Retries >= transfer.MaxRetries {
			verdict = opcode.CHECKSUMFAILED
		}
		transfer.Retries++
		log.Warn("Fail. CRC mismatch",
			zap.String("local", local),
			zap.String("server", accept.ChecksumHex()),
			zap.Int("attempt", transfer.Retries))
	}

	notice := networking.NewNamePayload(filepath.Base(transfer.Path)).Encode()
	if err := c.send(session, uint16(verdict), notice); err != nil {
		log.Error("Fail", zap.Error(err))
		return false, err
	}
	return matched, nil
}

// Confirm reads the closing message-confirmed response.
// The run only succeeds when the checksum matched within the retry bound.
func (c *Client) Confirm(session *Session, transfer *Transfer) error {
	log := c.log.Named(StepConfirm)

	if _, err := c.receive(StepConfirm, opcode.MESSAGECONFIRMED); err != nil {
		log.Error("Fail", zap.Error(err))
		return err
	}

	if transfer.Exhausted() {
		err := fmt.Errorf("%w: %d attempts of %s", ErrChecksumMismatch, transfer.Retries, filepath.Base(transfer.Path))
		log.Error("Fail", zap.Error(err))
		return err
	}

	log.Info("Success. File transfer completed", zap.Stringer("id", session.ID))
	return nil
}
