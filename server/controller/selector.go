package server

import (
	"context"
	"errors"
	"fmt"
	"go_secure_copy/constants"
	"go_secure_copy/fileio"
	"go_secure_copy/networking"
	"go_secure_copy/networking/opcode"
	"go_secure_copy/server/store"
	"net"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/net/ipv4"
)

type Server struct {
	folder  string
	dscp    int
	store   store.Store
	factory fileio.IOFactory
	log     *zap.Logger
}

// NewServer prepares a server storing received files under folder
func NewServer(folder string, dscp int, registry store.Store, log *zap.Logger) (*Server, error) {
	folder = filepath.Clean(folder)

	// Check path validity.
	info, err := os.Stat(folder)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid root folder: %w", fileio.ErrLocalIO, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: invalid root folder: %s is not a directory", fileio.ErrLocalIO, folder)
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Server{
		folder:  folder,
		dscp:    dscp,
		store:   registry,
		factory: new(fileio.BufferedFactory),
		log:     log,
	}, nil
}

// Listen binds new listening socket
func Listen(ctx context.Context, addr string, mptcp bool) (net.Listener, error) {
	if _, err := net.ResolveTCPAddr("tcp", addr); err != nil {
		return nil, err
	}
	lc := new(net.ListenConfig)
	// Set MPTCP.
	lc.SetMultipathTCP(mptcp)
	// Listen for incoming connections.
	return lc.Listen(ctx, "tcp", addr)
}

// Serve handles one client at a time until ctx is cancelled or the listener is closed
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	log := s.log.Named("CONNECTION")
	log.Info("Listening", zap.Stringer("address", l.Addr()))

	// Close the listener when the application closes.
	stop := context.AfterFunc(ctx, func() { l.Close() })
	defer stop()

	for {
		// Handle incoming connection.
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Warn("Failed to establish incoming connection", zap.Error(err))
			continue
		}

		if tcp, ok := conn.(*net.TCPConn); ok {
			// Set TCP_NODELAY to always immediately send.
			tcp.SetNoDelay(true)
		}
		// Set DSCP. NOTE: On Windows by default it will not apply the value.
		if err := ipv4.NewConn(conn).SetTOS(s.dscp); err != nil {
			log.Debug("DSCP not applied", zap.Error(err))
		}

		log.Info("New connection", zap.Stringer("remote", conn.RemoteAddr()))
		// Start handling client requests.
		s.handleRequest(ctx, conn)
		log.Info("Client disconnected", zap.Stringer("remote", conn.RemoteAddr()))
	}
}

// handleRequest handles whole session
func (s *Server) handleRequest(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	// Unblock reads on shutdown.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	handler := &Handler{
		store:   s.store,
		factory: s.factory,
		folder:  s.folder,
		log:     s.log,
	}

	for {
		request, err := networking.ReadRequest(conn)
		if err != nil {
			if !errors.Is(err, networking.ErrShortRead) {
				s.log.Warn("Dropping connection", zap.Error(err))
			}
			return
		}
		if request.Version != constants.CLIENT_VERSION {
			s.log.Debug("Client version differs", zap.Uint8("version", request.Version))
		}

		end, err := s.dispatcher(ctx, conn, handler, request)
		if err != nil {
			s.log.Error("Dropping connection",
				zap.Uint16("code", request.Opcode),
				zap.String("request", opcode.Name(request.Opcode)),
				zap.Error(err))
			return
		}
		if end {
			return
		}
	}
}

// dispatcher determines what to do with incoming messages. It reports whether the session is over.
func (s *Server) dispatcher(ctx context.Context, conn net.Conn, h *Handler, request *networking.Request) (bool, error) {
	switch request.Opcode {
	case opcode.REGISTER:
		return h.registerClient(ctx, conn, request)
	case opcode.SENDPUBLICKEY:
		return h.shareKey(ctx, conn, request)
	case opcode.LOGIN:
		return h.login(ctx, conn, request)
	case opcode.SENDFILE:
		return h.receiveFile(ctx, conn, request)
	case opcode.CHECKSUMOK:
		return h.confirmValidChecksum(ctx, conn)
	case opcode.CHECKSUMRETRY:
		return h.confirmInvalidChecksum()
	case opcode.CHECKSUMFAILED:
		return h.confirmLastInvalidChecksum(conn)
	}
	return true, fmt.Errorf("don't know what to do with message opcode %d", request.Opcode)
}
