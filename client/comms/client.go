package comms

import (
	"context"
	"fmt"
	"go_secure_copy/networking"
	"net"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/ipv4"
)

// Client drives one protocol session over a single stream connection
type Client struct {
	conn net.Conn
	log  *zap.Logger
}

// Connect opens TCP connection to target host address
func Connect(ctx context.Context, address string, dscp int, mptcp bool, timeout time.Duration, log *zap.Logger) (*Client, error) {
	if _, err := net.ResolveTCPAddr("tcp", address); err != nil {
		return nil, fmt.Errorf("%w: %w", networking.ErrConnection, err)
	}
	dial := &net.Dialer{Timeout: timeout}
	// Set MPTCP.
	dial.SetMultipathTCP(mptcp)
	// Connect to host.
	conn, err := dial.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", networking.ErrConnection, err)
	}

	if tcp, ok := conn.(*net.TCPConn); ok {
		// Set TCP_NODELAY to always immediately send.
		tcp.SetNoDelay(true)
	}
	// Set DSCP. NOTE: On Windows by default it will not apply the value.
	if err := ipv4.NewConn(conn).SetTOS(dscp); err != nil && log != nil {
		log.Debug("DSCP not applied", zap.Error(err))
	}

	return NewClient(conn, log), nil
}

// NewClient wraps an established connection. A nil logger discards output.
func NewClient(conn net.Conn, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{conn: conn, log: log}
}

// Close closes the connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// send writes one request stamped with the session id
func (c *Client) send(session *Session, code uint16, payload []byte) error {
	return networking.WriteRequest(c.conn, networking.NewRequest(session.ID, code, payload))
}

// receive reads full response from stream and matches it to opcode
func (c *Client) receive(step string, want uint16) (networking.ResponsePayload, error) {
	response, err := networking.ReadResponse(c.conn)
	if err != nil {
		return nil, err
	}
	c.log.Named(step).Debug("Response",
		zap.Uint16("code", response.Opcode),
		zap.Uint32("length", response.Len))

	if response.Opcode != want {
		return nil, &networking.UnexpectedCodeError{Step: step, Want: want, Got: response.Opcode}
	}
	return networking.DecodeResponse(response)
}
