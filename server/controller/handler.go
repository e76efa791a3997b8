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
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

var errNotIdentified = errors.New("request requires a registered or logged in client")

// Handler holds the state of one client connection
type Handler struct {
	store   store.Store
	factory fileio.IOFactory
	folder  string
	log     *zap.Logger

	client *store.Client
	file   *store.File
	retry  bool
}

// reply sends a response with the given code and payload
func reply(conn net.Conn, code uint16, payload []byte) error {
	return networking.WriteResponse(conn, networking.NewResponse(code, payload))
}

// registerClient issues an id for a new name and rejects names already taken
func (h *Handler) registerClient(ctx context.Context, conn net.Conn, request *networking.Request) (bool, error) {
	log := h.log.Named("REGISTER")

	name, err := networking.DecodeNamePayload(request.Payload)
	if err != nil {
		return true, err
	}

	client := &store.Client{ID: store.NewID(), Name: name.String(), LastSeen: time.Now()}
	err = h.store.AddClient(ctx, client)
	if errors.Is(err, store.ErrExists) {
		log.Warn("Fail. Client already registered", zap.String("name", client.Name))
		return true, reply(conn, opcode.REGISTERFAIL, nil)
	}
	if err != nil {
		return true, err
	}
	h.client = client

	id := networking.ClientIDFromString(client.ID)
	if err := reply(conn, opcode.REGISTEROK, (&networking.ClientIDPayload{ClientID: id}).Encode()); err != nil {
		return true, err
	}
	log.Info("Success", zap.String("name", client.Name), zap.String("id", client.ID))
	return false, nil
}

// shareKey stores the client public key and returns a fresh AES key encrypted with it
func (h *Handler) shareKey(ctx context.Context, conn net.Conn, request *networking.Request) (bool, error) {
	log := h.log.Named("SHARE KEY")
	if h.client == nil {
		return true, errNotIdentified
	}

	share, err := networking.DecodeShareKeyRequest(request.Payload)
	if err != nil {
		return true, err
	}
	h.client.PublicKey = share.PublicKey

	if err := h.sendKey(ctx, conn, opcode.KEYSENT); err != nil {
		return true, err
	}
	log.Info("Success. AES key sent", zap.String("name", h.client.Name))
	return false, nil
}

// login hands a new AES key to a known client, rejecting unknown names
func (h *Handler) login(ctx context.Context, conn net.Conn, request *networking.Request) (bool, error) {
	log := h.log.Named("LOGIN")

	name, err := networking.DecodeNamePayload(request.Payload)
	if err != nil {
		return true, err
	}

	client, err := h.store.Client(ctx, name.String())
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return true, err
	}
	if client == nil || client.PublicKey == "" {
		log.Warn("Fail. Client not registered", zap.String("name", name.String()))
		return true, reply(conn, opcode.LOGINREJECTED, (&networking.RejectPayload{ClientID: request.ClientID}).Encode())
	}
	h.client = client

	if err := h.sendKey(ctx, conn, opcode.LOGINCONFIRMED); err != nil {
		return true, err
	}
	log.Info("Success. AES key sent", zap.String("name", client.Name))
	return false, nil
}

// sendKey rotates the AES key of the client and sends it encrypted with the client public key
func (h *Handler) sendKey(ctx context.Context, conn net.Conn, code uint16) error {
	aesKey, err := networking.GenerateAESKey()
	if err != nil {
		return err
	}
	sealed, err := networking.EncryptRSA(h.client.PublicKey, aesKey)
	if err != nil {
		return fmt.Errorf("%w: %w", networking.ErrDecryption, err)
	}

	h.client.AESKey = aesKey
	h.client.LastSeen = time.Now()
	if err := h.store.UpdateClient(ctx, h.client); err != nil {
		return err
	}

	payload := &networking.KeyPayload{ClientID: networking.ClientIDFromString(h.client.ID), EncryptedKey: sealed}
	return reply(conn, code, payload.Encode())
}

// receiveFile decrypts the content, writes it under the root folder and reports its checksum
func (h *Handler) receiveFile(ctx context.Context, conn net.Conn, request *networking.Request) (bool, error) {
	log := h.log.Named("RECEIVE FILE")
	if h.client == nil || h.client.AESKey == "" {
		return true, errNotIdentified
	}

	upload, err := networking.DecodeFileSendRequest(request.Payload)
	if err != nil {
		return true, err
	}
	plain, err := networking.DecryptAES(h.client.AESKey, upload.Content)
	if err != nil {
		return true, err
	}
	if int(upload.Size) < len(plain) {
		plain = plain[:upload.Size]
	}

	// Only the base name is kept so files cannot escape the root folder.
	name := filepath.Base(filepath.Clean("/" + upload.FileName))
	if name == "/" || name == "." {
		return true, fmt.Errorf("%w: invalid file name %q", fileio.ErrLocalIO, upload.FileName)
	}

	writer := h.factory.NewWriter()
	if err := writer.New(filepath.Join(h.folder, name), constants.CHECKSUM_CHUNK*constants.FILE_WRITE_QUEUE); err != nil {
		return true, err
	}
	if _, err := writer.Write(plain); err != nil {
		writer.Commit()
		return true, err
	}
	checksum, err := writer.Commit()
	if err != nil {
		return true, err
	}

	if !h.retry || h.file == nil {
		h.file = &store.File{ID: store.NewID(), ClientID: h.client.ID, Name: name, Path: h.folder}
		if err := h.store.AddFile(ctx, h.file); err != nil {
			return true, err
		}
	}

	accept := &networking.FileAcceptPayload{
		ClientID:    networking.ClientIDFromString(h.client.ID),
		ContentSize: upload.Size,
		FileName:    name,
		Checksum:    checksum,
	}
	if err := reply(conn, opcode.FILEACCEPTED, accept.Encode()); err != nil {
		return true, err
	}
	log.Info("Success. CRC sent",
		zap.String("file", name),
		zap.Int("size", len(plain)),
		zap.String("checksum", accept.ChecksumHex()))
	return false, nil
}

// confirmValidChecksum marks the file verified and ends the session
func (h *Handler) confirmValidChecksum(ctx context.Context, conn net.Conn) (bool, error) {
	log := h.log.Named("CHECK CRC")
	if h.file == nil {
		return true, errNotIdentified
	}

	h.file.Verified = true
	if err := h.store.UpdateFile(ctx, h.file); err != nil {
		return true, err
	}
	// Reset retry state.
	h.retry = false

	confirm := &networking.ConfirmPayload{ClientID: networking.ClientIDFromString(h.client.ID)}
	if err := reply(conn, opcode.MESSAGECONFIRMED, confirm.Encode()); err != nil {
		return true, err
	}
	log.Info("Success. File transfer completed", zap.String("file", h.file.Name))
	return true, nil
}

// confirmInvalidChecksum expects the client to resend the file. Nothing is sent back.
func (h *Handler) confirmInvalidChecksum() (bool, error) {
	if h.file == nil {
		return true, errNotIdentified
	}
	h.log.Named("CHECK CRC").Warn("Fail. Waiting for file again", zap.String("file", h.file.Name))
	h.retry = true
	return false, nil
}

// confirmLastInvalidChecksum ends the session after the client gave up
func (h *Handler) confirmLastInvalidChecksum(conn net.Conn) (bool, error) {
	h.retry = false
	if err := reply(conn, opcode.MESSAGECONFIRMED, nil); err != nil {
		return true, err
	}
	h.log.Named("CHECK CRC").Error("Fail. Last CRC error. Ending transfer")
	return true, nil
}
