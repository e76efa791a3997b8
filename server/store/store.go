package store

import (
	"context"
	"errors"
	"go_secure_copy/constants"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound means no record exists under the requested key.
	ErrNotFound = errors.New("record not found")
	// ErrExists means a client with the same name is already registered.
	ErrExists = errors.New("record already exists")
)

// Client is a registered client
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	PublicKey string    `json:"public_key"`
	AESKey    string    `json:"aes_key"`
	LastSeen  time.Time `json:"last_seen"`
}

// File is a received file and whether its checksum was confirmed
type File struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Verified bool   `json:"verified"`
}

// Store keeps clients by name and files by id
type Store interface {
	Client(ctx context.Context, name string) (*Client, error)
	AddClient(ctx context.Context, client *Client) error
	UpdateClient(ctx context.Context, client *Client) error
	File(ctx context.Context, id string) (*File, error)
	AddFile(ctx context.Context, file *File) error
	UpdateFile(ctx context.Context, file *File) error
}

// NewID returns a random identifier of client id width
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:constants.CLIENT_ID_SIZE]
}
