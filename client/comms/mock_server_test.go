package comms

import (
	"go_secure_copy/networking"
	"go_secure_copy/networking/opcode"
	"hash/crc32"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testClientID = "CAFEBABE00000001"

// mockServer answers client requests the way the reference server does.
// Fields are read by the test only after stop has returned.
type mockServer struct {
	aesKey         string
	rejectRegister bool

	// Public key of a known client, empty rejects logins.
	loginKey string

	// Checksum put into file-accepted.
	report func(attempt int, plain []byte) uint32

	// Response code sent instead of the normal reply to a request code.
	answer map[uint16]uint16

	headers  []networking.RequestHeader
	files    []*networking.FileSendRequest
	plain    [][]byte
	notices  []string
	attempts int
}

func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	key, err := networking.GenerateAESKey()
	require.NoError(t, err)
	return &mockServer{
		aesKey: key,
		report: func(_ int, plain []byte) uint32 { return crc32.ChecksumIEEE(plain) },
	}
}

func (s *mockServer) codes() []uint16 {
	codes := make([]uint16, 0, len(s.headers))
	for _, header := range s.headers {
		codes = append(codes, header.Opcode)
	}
	return codes
}

func (s *mockServer) count(code uint16) int {
	n := 0
	for _, c := range s.codes() {
		if c == code {
			n++
		}
	}
	return n
}

func (s *mockServer) serve(conn net.Conn) error {
	id := networking.ClientIDFromString(testClientID)

	for {
		request, err := networking.ReadRequest(conn)
		if err != nil {
			return err
		}
		s.headers = append(s.headers, request.RequestHeader)

		if code, ok := s.answer[request.Opcode]; ok {
			if err := networking.WriteResponse(conn, networking.NewResponse(code, id[:])); err != nil {
				return err
			}
			continue
		}

		var response *networking.Response
		switch request.Opcode {
		case opcode.REGISTER:
			if s.rejectRegister {
				response = networking.NewResponse(opcode.REGISTERFAIL, nil)
			} else {
				response = networking.NewResponse(opcode.REGISTEROK, (&networking.ClientIDPayload{ClientID: id}).Encode())
			}

		case opcode.SENDPUBLICKEY:
			share, err := networking.DecodeShareKeyRequest(request.Payload)
			if err != nil {
				return err
			}
			sealed, err := networking.EncryptRSA(share.PublicKey, s.aesKey)
			if err != nil {
				return err
			}
			response = networking.NewResponse(opcode.KEYSENT, (&networking.KeyPayload{ClientID: id, EncryptedKey: sealed}).Encode())

		case opcode.LOGIN:
			if s.loginKey == "" {
				response = networking.NewResponse(opcode.LOGINREJECTED, (&networking.RejectPayload{ClientID: request.ClientID}).Encode())
				break
			}
			sealed, err := networking.EncryptRSA(s.loginKey, s.aesKey)
			if err != nil {
				return err
			}
			response = networking.NewResponse(opcode.LOGINCONFIRMED, (&networking.KeyPayload{ClientID: id, EncryptedKey: sealed}).Encode())

		case opcode.SENDFILE:
			file, err := networking.DecodeFileSendRequest(request.Payload)
			if err != nil {
				return err
			}
			plain, err := networking.DecryptAES(s.aesKey, file.Content)
			if err != nil {
				return err
			}
			s.attempts++
			s.files = append(s.files, file)
			s.plain = append(s.plain, plain)
			response = networking.NewResponse(opcode.FILEACCEPTED, (&networking.FileAcceptPayload{
				ClientID:    id,
				ContentSize: file.Size,
				FileName:    file.FileName,
				Checksum:    s.report(s.attempts, plain),
			}).Encode())

		case opcode.CHECKSUMOK, opcode.CHECKSUMRETRY, opcode.CHECKSUMFAILED:
			notice, err := networking.DecodeNamePayload(request.Payload)
			if err != nil {
				return err
			}
			s.notices = append(s.notices, notice.String())
			switch request.Opcode {
			case opcode.CHECKSUMOK:
				response = networking.NewResponse(opcode.MESSAGECONFIRMED, (&networking.ConfirmPayload{ClientID: id}).Encode())
			case opcode.CHECKSUMFAILED:
				response = networking.NewResponse(opcode.MESSAGECONFIRMED, nil)
			}
		}

		if response == nil {
			continue
		}
		if err := networking.WriteResponse(conn, response); err != nil {
			return err
		}
	}
}

// startServer connects a client to server over an in-memory pipe.
// stop closes both ends and waits for the server to return.
func startServer(t *testing.T, server *mockServer) (*Client, func()) {
	t.Helper()
	clientConn, serverConn := net.Pipe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		server.serve(serverConn)
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			clientConn.Close()
			serverConn.Close()
			<-done
		})
	}
	t.Cleanup(stop)

	return NewClient(clientConn, zaptest.NewLogger(t)), stop
}
