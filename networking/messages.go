package networking

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"go_secure_copy/constants"
	"io"
)

const (
	RequestHeaderSize  = 23 // id + version + opcode + length
	ResponseHeaderSize = 7  // version + opcode + length
)

// ClientID is the server-assigned identity, NUL padded to 16 bytes
type ClientID [constants.CLIENT_ID_SIZE]byte

// ClientIDFromString copies id into a zero-filled ClientID, truncating at 16 bytes
func ClientIDFromString(id string) ClientID {
	var c ClientID
	copy(c[:], id)
	return c
}

// String returns the id without NUL padding
func (c ClientID) String() string {
	return TrimField(c[:])
}

// IsZero reports whether no id has been assigned
func (c ClientID) IsZero() bool {
	return c == ClientID{}
}

// RequestHeader contains static parts of a client request
type RequestHeader struct {
	ClientID ClientID
	Version  uint8
	Opcode   uint16
	Len      uint32
	// Followed by Len * bytes payload.
}

// ResponseHeader contains static parts of a server response
type ResponseHeader struct {
	Version uint8
	Opcode  uint16
	Len     uint32
	// Followed by Len * bytes payload.
}

// Request contains RequestHeader + payload
type Request struct {
	RequestHeader
	Payload []byte
}

// Response contains ResponseHeader + payload
type Response struct {
	ResponseHeader
	Payload []byte
}

// NewRequest builds a request for the current protocol version with a matching length field
func NewRequest(id ClientID, code uint16, payload []byte) *Request {
	return &Request{
		RequestHeader: RequestHeader{
			ClientID: id,
			Version:  constants.CLIENT_VERSION,
			Opcode:   code,
			Len:      uint32(len(payload)),
		},
		Payload: payload,
	}
}

// NewResponse builds a response for the current protocol version with a matching length field
func NewResponse(code uint16, payload []byte) *Response {
	return &Response{
		ResponseHeader: ResponseHeader{
			Version: constants.SERVER_VERSION,
			Opcode:  code,
			Len:     uint32(len(payload)),
		},
		Payload: payload,
	}
}

// EncodeRequestHeader encodes header to its 23 byte wire form
func EncodeRequestHeader(header *RequestHeader) []byte {
	buffer := bytes.NewBuffer(make([]byte, 0, RequestHeaderSize))
	binary.Write(buffer, binary.LittleEndian, header)
	return buffer.Bytes()
}

// DecodeRequestHeader decodes the first 23 bytes of message
func DecodeRequestHeader(message []byte) (*RequestHeader, error) {
	if len(message) < RequestHeaderSize {
		return nil, fmt.Errorf("%w: request header needs %d bytes, got %d",
			ErrMalformedHeader, RequestHeaderSize, len(message))
	}

	header := new(RequestHeader)
	err := binary.Read(bytes.NewReader(message[:RequestHeaderSize]), binary.LittleEndian, header)

	return header, err
}

// EncodeResponseHeader encodes header to its 7 byte wire form
func EncodeResponseHeader(header *ResponseHeader) []byte {
	buffer := bytes.NewBuffer(make([]byte, 0, ResponseHeaderSize))
	binary.Write(buffer, binary.LittleEndian, header)
	return buffer.Bytes()
}

// DecodeResponseHeader decodes the first 7 bytes of message
func DecodeResponseHeader(message []byte) (*ResponseHeader, error) {
	if len(message) < ResponseHeaderSize {
		return nil, fmt.Errorf("%w: response header needs %d bytes, got %d",
			ErrMalformedHeader, ResponseHeaderSize, len(message))
	}

	header := new(ResponseHeader)
	err := binary.Read(bytes.NewReader(message[:ResponseHeaderSize]), binary.LittleEndian, header)

	return header, err
}

// RequestToBytes encodes request to slice of bytes
func RequestToBytes(request *Request) ([]byte, error) {
	if int(request.Len) != len(request.Payload) {
		return nil, fmt.Errorf("%w: length field %d does not match payload of %d bytes",
			ErrMalformedHeader, request.Len, len(request.Payload))
	}
	return append(EncodeRequestHeader(&request.RequestHeader), request.Payload...), nil
}

// ResponseToBytes encodes response to slice of bytes
func ResponseToBytes(response *Response) ([]byte, error) {
	if int(response.Len) != len(response.Payload) {
		return nil, fmt.Errorf("%w: length field %d does not match payload of %d bytes",
			ErrMalformedHeader, response.Len, len(response.Payload))
	}
	return append(EncodeResponseHeader(&response.ResponseHeader), response.Payload...), nil
}

// WriteRequest sends header and payload in a single write
func WriteRequest(w io.Writer, request *Request) error {
	out, err := RequestToBytes(request)
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("%w: send request %d: %w", ErrConnection, request.Opcode, err)
	}
	return nil
}

// WriteResponse sends header and payload in a single write
func WriteResponse(w io.Writer, response *Response) error {
	out, err := ResponseToBytes(response)
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("%w: send response %d: %w", ErrConnection, response.Opcode, err)
	}
	return nil
}

// ReadResponse reads full response from stream, blocking until it has arrived
func ReadResponse(r io.Reader) (*Response, error) {
	msg := make([]byte, ResponseHeaderSize)

	// Read response header first.
	if _, err := io.ReadFull(r, msg); err != nil {
		return nil, streamError("response header", err)
	}

	header, err := DecodeResponseHeader(msg)
	if err != nil {
		return nil, err
	}

	payload, err := readPayload(r, header.Len)
	if err != nil {
		return nil, err
	}

	return &Response{ResponseHeader: *header, Payload: payload}, nil
}

// ReadRequest reads full request from stream, blocking until it has arrived
func ReadRequest(r io.Reader) (*Request, error) {
	msg := make([]byte, RequestHeaderSize)

	// Read request header first.
	if _, err := io.ReadFull(r, msg); err != nil {
		return nil, streamError("request header", err)
	}

	header, err := DecodeRequestHeader(msg)
	if err != nil {
		return nil, err
	}

	payload, err := readPayload(r, header.Len)
	if err != nil {
		return nil, err
	}

	return &Request{RequestHeader: *header, Payload: payload}, nil
}

// readPayload reads exactly size bytes following a header
func readPayload(r io.Reader, size uint32) ([]byte, error) {
	if size > constants.MAX_PAYLOAD_SIZE {
		return nil, fmt.Errorf("%w: payload of %d bytes exceeds %d",
			ErrMalformedHeader, size, constants.MAX_PAYLOAD_SIZE)
	}

	payload := make([]byte, size)
	if size == 0 {
		return payload, nil
	}

	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, streamError("payload", err)
	}
	return payload, nil
}

// streamError classifies a failed read as truncation or connection loss
func streamError(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s: stream closed before reading fully", ErrShortRead, what)
	}
	return fmt.Errorf("%w: %s: %w", ErrConnection, what, err)
}
