package store

import (
	"context"
	"fmt"
	"sync"
)

// Memory is a Store held in process memory
type Memory struct {
	mu      sync.Mutex
	clients map[string]Client
	files   map[string]File
}

func NewMemory() *Memory {
	return &Memory{
		clients: make(map[string]Client),
		files:   make(map[string]File),
	}
}

func (m *Memory) Client(_ context.Context, name string) (*Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, ok := m.clients[name]
	if !ok {
		return nil, fmt.Errorf("%w: client %q", ErrNotFound, name)
	}
	return &client, nil
}

func (m *Memory) AddClient(_ context.Context, client *Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.clients[client.Name]; ok {
		return fmt.Errorf("%w: client %q", ErrExists, client.Name)
	}
	m.clients[client.Name] = *client
	return nil
}

func (m *Memory) UpdateClient(_ context.Context, client *Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.clients[client.Name]; !ok {
		return fmt.Errorf("%w: client %q", ErrNotFound, client.Name)
	}
	m.clients[client.Name] = *client
	return nil
}

func (m *Memory) File(_ context.Context, id string) (*File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	file, ok := m.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: file %q", ErrNotFound, id)
	}
	return &file, nil
}

func (m *Memory) AddFile(_ context.Context, file *File) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[file.ID] = *file
	return nil
}

func (m *Memory) UpdateFile(_ context.Context, file *File) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[file.ID]; !ok {
		return fmt.Errorf("%w: file %q", ErrNotFound, file.ID)
	}
	m.files[file.ID] = *file
	return nil
}
