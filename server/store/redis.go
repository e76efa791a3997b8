package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store keeping JSON records in Redis
type Redis struct {
	rdb *redis.Client
}

func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{
		rdb: rdb,
	}
}

func clientKey(name string) string {
	return fmt.Sprintf("client:%s", name)
}

func fileKey(id string) string {
	return fmt.Sprintf("file:%s", id)
}

func (r *Redis) Client(ctx context.Context, name string) (*Client, error) {
	client := new(Client)
	if err := r.get(ctx, clientKey(name), client); err != nil {
		return nil, err
	}
	return client, nil
}

func (r *Redis) AddClient(ctx context.Context, client *Client) error {
	data, err := json.Marshal(client)
	if err != nil {
		return err
	}
	// Name uniqueness is decided by Redis.
	added, err := r.rdb.SetNX(ctx, clientKey(client.Name), data, 0).Result()
	if err != nil {
		return err
	}
	if !added {
		return fmt.Errorf("%w: client %q", ErrExists, client.Name)
	}
	return nil
}

func (r *Redis) UpdateClient(ctx context.Context, client *Client) error {
	return r.replace(ctx, clientKey(client.Name), client)
}

func (r *Redis) File(ctx context.Context, id string) (*File, error) {
	file := new(File)
	if err := r.get(ctx, fileKey(id), file); err != nil {
		return nil, err
	}
	return file, nil
}

func (r *Redis) AddFile(ctx context.Context, file *File) error {
	data, err := json.Marshal(file)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, fileKey(file.ID), data, 0).Err()
}

func (r *Redis) UpdateFile(ctx context.Context, file *File) error {
	return r.replace(ctx, fileKey(file.ID), file)
}

// get decodes the JSON record under key into value
func (r *Redis) get(ctx context.Context, key string, value any) error {
	data, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), value)
}

// replace overwrites an existing record only
func (r *Redis) replace(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	replaced, err := r.rdb.SetXX(ctx, key, data, 0).Result()
	if err != nil {
		return err
	}
	if !replaced {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return nil
}
