package main

import (
	"fmt"
	"go_secure_copy/client/comms"
	"go_secure_copy/fileio"
	"go_secure_copy/networking"
	"go_secure_copy/settings"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transfer.info")
	require.NoError(t, os.WriteFile(path, []byte("127.0.0.1:1256\nalice\nhello.txt\n"), 0600))

	cfg, err := loadConfig(path, "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:1256", cfg.Address())
	assert.Equal(t, "alice", cfg.Name)

	cfg, err = loadConfig(path, "10.0.0.1:9000", "other.bin", "bob")
	require.NoError(t, err)
	assert.Equal(t, &settings.Config{Host: "10.0.0.1", Port: 9000, Name: "bob", FilePath: "other.bin"}, cfg)
}

func TestLoadConfigWithoutFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "transfer.info")

	_, err := loadConfig(missing, "10.0.0.1:9000", "", "bob")
	assert.ErrorIs(t, err, fileio.ErrLocalIO)

	cfg, err := loadConfig(missing, "10.0.0.1:9000", "other.bin", "bob")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:9000", cfg.Address())
}

func TestLoadSession(t *testing.T) {
	dir := t.TempDir()
	identity := &settings.IdentityFile{Path: filepath.Join(dir, "me.info")}
	keys := &settings.KeyFile{Path: filepath.Join(dir, "priv.key")}

	session, err := loadSession("alice", identity, keys)
	require.NoError(t, err)
	assert.False(t, session.Registered())
	assert.Equal(t, "alice", session.Name)

	// Identity without a key cannot log in.
	require.NoError(t, identity.SaveIdentity("carol", "CAFEBABE00000001"))
	_, err = loadSession("alice", identity, keys)
	assert.ErrorIs(t, err, fileio.ErrLocalIO)

	crypto := new(networking.Crypto)
	require.NoError(t, crypto.GenerateKeyPair())
	require.NoError(t, keys.SavePrivateKey(crypto.PrivateKey()))

	session, err = loadSession("alice", identity, keys)
	require.NoError(t, err)
	assert.True(t, session.Registered())
	assert.Equal(t, "carol", session.Name, "persisted name wins")
	assert.Equal(t, "CAFEBABE00000001", session.ID.String())
	assert.Equal(t, crypto.PublicKey(), session.Crypto.PublicKey())
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("confirm: %w", comms.ErrChecksumMismatch), 2},
		{fmt.Errorf("%w: reset", networking.ErrConnection), 3},
		{networking.ErrShortRead, 3},
		{&networking.UnexpectedCodeError{Step: "register", Want: 2100, Got: 2101}, 1},
		{fileio.ErrLocalIO, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.code, exitCode(tt.err), tt.err.Error())
	}
}

func TestPrepareChecksFileBeforeConnecting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0600))

	assert.NoError(t, prepare(&settings.Config{Host: "127.0.0.1", Port: 1256, Name: "alice", FilePath: path}))

	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(dir, "does_not_exist.txt")},
		{"directory", dir},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := prepare(&settings.Config{Host: "127.0.0.1", Port: 1256, Name: "alice", FilePath: tt.path})
			assert.ErrorIs(t, err, fileio.ErrLocalIO)
			assert.Equal(t, 1, exitCode(err))
		})
	}
}
