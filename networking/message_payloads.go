package networking

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"go_secure_copy/constants"
	"go_secure_copy/networking/opcode"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FixedString copies UTF-8 bytes of s left-aligned into a zero-filled field of width bytes.
// Longer strings are cut at the last rune boundary that fits.
func FixedString(s string, width int) []byte {
	field := make([]byte, width)
	raw := []byte(s)
	if len(raw) > width {
		n := width
		for n > 0 && !utf8.RuneStart(raw[n]) {
			n--
		}
		raw = raw[:n]
	}
	copy(field, raw)
	return field
}

// TrimField decodes a fixed-width field, dropping trailing NUL and whitespace
func TrimField(field []byte) string {
	return strings.TrimRightFunc(string(field), func(r rune) bool {
		return r == 0 || unicode.IsSpace(r)
	})
}

func shortPayload(what string, need, got int) error {
	return fmt.Errorf("%w: %s payload needs %d bytes, got %d", ErrShortRead, what, need, got)
}

// NamePayload is the payload of register and login requests.
// Checksum notices (1029-1031) carry the file name in the same layout.
type NamePayload struct {
	Name [constants.NAME_FIELD_SIZE]byte
}

// NewNamePayload fills the fixed-width name field
func NewNamePayload(name string) *NamePayload {
	p := new(NamePayload)
	copy(p.Name[:], FixedString(name, constants.NAME_FIELD_SIZE))
	return p
}

// Encode returns the 255 byte wire form
func (p *NamePayload) Encode() []byte {
	return bytes.Clone(p.Name[:])
}

// String returns the trimmed name
func (p *NamePayload) String() string {
	return TrimField(p.Name[:])
}

// DecodeNamePayload decodes register, login and checksum notice payloads
func DecodeNamePayload(payload []byte) (*NamePayload, error) {
	if len(payload) < constants.NAME_FIELD_SIZE {
		return nil, shortPayload("name", constants.NAME_FIELD_SIZE, len(payload))
	}
	p := new(NamePayload)
	copy(p.Name[:], payload)
	return p, nil
}

// ShareKeyRequest is payload of opcode 1026 request
type ShareKeyRequest struct {
	Name      string // 255 bytes on the wire
	PublicKey string // Base64 DER, remainder of payload
}

// Encode returns name field followed by public key bytes
func (p *ShareKeyRequest) Encode() []byte {
	out := FixedString(p.Name, constants.NAME_FIELD_SIZE)
	return append(out, p.PublicKey...)
}

// DecodeShareKeyRequest decodes opcode 1026 payload
func DecodeShareKeyRequest(payload []byte) (*ShareKeyRequest, error) {
	if len(payload) < constants.NAME_FIELD_SIZE {
		return nil, shortPayload("share key", constants.NAME_FIELD_SIZE, len(payload))
	}
	return &ShareKeyRequest{
		Name:      TrimField(payload[:constants.NAME_FIELD_SIZE]),
		PublicKey: TrimField(payload[constants.NAME_FIELD_SIZE:]),
	}, nil
}

// FileSendRequest is payload of opcode 1028 request
type FileSendRequest struct {
	Size     uint32 // Plain file size
	FileName string // 255 bytes on the wire
	Content  []byte // Base64 AES ciphertext, remainder of payload
}

// Encode returns size, name field and encrypted content
func (p *FileSendRequest) Encode() []byte {
	out := make([]byte, 0, 4+constants.NAME_FIELD_SIZE+len(p.Content))
	out = binary.LittleEndian.AppendUint32(out, p.Size)
	out = append(out, FixedString(p.FileName, constants.NAME_FIELD_SIZE)...)
	return append(out, p.Content...)
}

// DecodeFileSendRequest decodes opcode 1028 payload
func DecodeFileSendRequest(payload []byte) (*FileSendRequest, error) {
	need := 4 + constants.NAME_FIELD_SIZE
	if len(payload) < need {
		return nil, shortPayload("file send", need, len(payload))
	}
	return &FileSendRequest{
		Size:     binary.LittleEndian.Uint32(payload[:4]),
		FileName: TrimField(payload[4:need]),
		Content:  bytes.TrimRight(payload[need:], "\x00"),
	}, nil
}

// ResponsePayload is one of the typed response bodies, selected by response opcode
type ResponsePayload interface {
	responsePayload()
}

// ClientIDPayload is payload of opcode 2100 response
type ClientIDPayload struct {
	ClientID ClientID
}

// KeyPayload is payload of opcode 2102 and 2105 responses
type KeyPayload struct {
	ClientID     ClientID
	EncryptedKey string // Base64 RSA ciphertext of the base64 AES key
}

// FileAcceptPayload is payload of opcode 2103 response
type FileAcceptPayload struct {
	ClientID    ClientID
	ContentSize uint32
	FileName    string
	Checksum    uint32 // Big-endian on the wire
}

// ConfirmPayload is payload of opcode 2104 response. ClientID is zero after a final checksum failure.
type ConfirmPayload struct {
	ClientID ClientID
}

// RejectPayload is payload of opcode 2101 and 2106 responses
type RejectPayload struct {
	ClientID ClientID
}

func (*ClientIDPayload) responsePayload() {}
func (*KeyPayload) responsePayload() {}
func (*FileAcceptPayload) responsePayload() {}
func (*ConfirmPayload) responsePayload() {}
func (*RejectPayload) responsePayload() {}

// Encode returns the raw id string
func (p *ClientIDPayload) Encode() []byte {
	return bytes.Clone(p.ClientID[:])
}

// Encode returns id followed by encrypted key text
func (p *KeyPayload) Encode() []byte {
	return append(bytes.Clone(p.ClientID[:]), p.EncryptedKey...)
}

// Encode returns id, size, name field and checksum
func (p *FileAcceptPayload) Encode() []byte {
	out := make([]byte, 0, fileAcceptSize)
	out = append(out, p.ClientID[:]...)
	out = binary.LittleEndian.AppendUint32(out, p.ContentSize)
	out = append(out, FixedString(p.FileName, constants.NAME_FIELD_SIZE)...)
	// The reference server packs the checksum in network byte order.
	return binary.BigEndian.AppendUint32(out, p.Checksum)
}

// ChecksumHex renders the server checksum as lowercase 8 digit hex
func (p *FileAcceptPayload) ChecksumHex() string {
	return fmt.Sprintf("%08x", p.Checksum)
}

// Encode returns the id, or nothing when no id is set
func (p *ConfirmPayload) Encode() []byte {
	if p.ClientID.IsZero() {
		return nil
	}
	return bytes.Clone(p.ClientID[:])
}

// Encode returns the id, or nothing when no id is set
func (p *RejectPayload) Encode() []byte {
	if p.ClientID.IsZero() {
		return nil
	}
	return bytes.Clone(p.ClientID[:])
}

const fileAcceptSize = constants.CLIENT_ID_SIZE + 4 + constants.NAME_FIELD_SIZE + 4

// DecodeResponse decodes the payload shape belonging to the response opcode.
// Unknown opcodes result in an UnexpectedCodeError.
func DecodeResponse(response *Response) (ResponsePayload, error) {
	payload := response.Payload

	switch response.Opcode {
	case opcode.REGISTEROK:
		id := TrimField(payload)
		if id == "" {
			return nil, shortPayload("client id", 1, 0)
		}
		return &ClientIDPayload{ClientID: ClientIDFromString(id)}, nil

	case opcode.KEYSENT, opcode.LOGINCONFIRMED:
		if len(payload) <= constants.CLIENT_ID_SIZE {
			return nil, shortPayload("key", constants.CLIENT_ID_SIZE+1, len(payload))
		}
		return &KeyPayload{
			ClientID:     ClientIDFromString(TrimField(payload[:constants.CLIENT_ID_SIZE])),
			EncryptedKey: strings.TrimSpace(TrimField(payload[constants.CLIENT_ID_SIZE:])),
		}, nil

	case opcode.FILEACCEPTED:
		if len(payload) < fileAcceptSize {
			return nil, shortPayload("file accept", fileAcceptSize, len(payload))
		}
		nameEnd := constants.CLIENT_ID_SIZE + 4 + constants.NAME_FIELD_SIZE
		// Checksum is big-endian as packed by the reference server, unlike every other field.
		return &FileAcceptPayload{
			ClientID:    ClientIDFromString(TrimField(payload[:constants.CLIENT_ID_SIZE])),
			ContentSize: binary.LittleEndian.Uint32(payload[constants.CLIENT_ID_SIZE : constants.CLIENT_ID_SIZE+4]),
			FileName:    TrimField(payload[constants.CLIENT_ID_SIZE+4 : nameEnd]),
			Checksum:    binary.BigEndian.Uint32(payload[nameEnd : nameEnd+4]),
		}, nil

	case opcode.MESSAGECONFIRMED:
		return &ConfirmPayload{ClientID: ClientIDFromString(TrimField(payload))}, nil

	case opcode.REGISTERFAIL, opcode.LOGINREJECTED:
		return &RejectPayload{ClientID: ClientIDFromString(TrimField(payload))}, nil
	}

	return nil, &UnexpectedCodeError{Step: "decode response", Got: response.Opcode}
}
