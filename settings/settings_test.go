package settings

import (
	"go_secure_copy/fileio"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestReadConfig(t *testing.T) {
	path := writeFile(t, "transfer.info", "127.0.0.1:1256\r\nalice\n/tmp/hello.txt\n\n")

	cfg, err := ReadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, &Config{Host: "127.0.0.1", Port: 1256, Name: "alice", FilePath: "/tmp/hello.txt"}, cfg)
	assert.Equal(t, "127.0.0.1:1256", cfg.Address())
}

func TestReadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"missing lines", "127.0.0.1:1256\nalice\n"},
		{"no port", "127.0.0.1\nalice\nfile\n"},
		{"bad port", "127.0.0.1:http\nalice\nfile\n"},
		{"port out of range", "127.0.0.1:70000\nalice\nfile\n"},
		{"blank name", "127.0.0.1:1256\n\nfile\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadConfig(writeFile(t, "transfer.info", tt.content))
			assert.ErrorIs(t, err, fileio.ErrLocalIO)
		})
	}
}

func TestReadConfigMissingFile(t *testing.T) {
	_, err := ReadConfig(filepath.Join(t.TempDir(), "transfer.info"))
	assert.ErrorIs(t, err, fileio.ErrLocalIO)
}

func TestSplitAddressIPv6(t *testing.T) {
	host, port, err := SplitAddress("[::1]:9000")
	require.NoError(t, err)
	assert.Equal(t, "::1", host)
	assert.Equal(t, 9000, port)
	assert.Equal(t, "[::1]:9000", (&Config{Host: host, Port: port}).Address())
}

func TestIdentityFile(t *testing.T) {
	store := &IdentityFile{Path: filepath.Join(t.TempDir(), "me.info")}

	_, _, err := store.LoadIdentity()
	assert.ErrorIs(t, err, ErrNotRegistered)

	require.NoError(t, store.SaveIdentity("alice", "CAFEBABE00000001"))
	name, id, err := store.LoadIdentity()
	require.NoError(t, err)
	assert.Equal(t, "alice", name)
	assert.Equal(t, "CAFEBABE00000001", id)

	require.NoError(t, store.SaveIdentity("bob", "0000000000000002"))
	name, id, err = store.LoadIdentity()
	require.NoError(t, err)
	assert.Equal(t, "bob", name)
	assert.Equal(t, "0000000000000002", id)
}

func TestIdentityFileIncomplete(t *testing.T) {
	store := &IdentityFile{Path: writeFile(t, "me.info", "alice\n")}

	_, _, err := store.LoadIdentity()
	assert.ErrorIs(t, err, fileio.ErrLocalIO)
	assert.NotErrorIs(t, err, ErrNotRegistered)
}

func TestKeyFile(t *testing.T) {
	store := &KeyFile{Path: filepath.Join(t.TempDir(), "priv.key")}

	_, err := store.LoadPrivateKey()
	assert.ErrorIs(t, err, fileio.ErrLocalIO, "missing key file")

	require.NoError(t, store.SavePrivateKey("TUlJQ2VBSUJBREFOQmdrcWhraUc5dzBC"))
	key, err := store.LoadPrivateKey()
	require.NoError(t, err)
	assert.Equal(t, "TUlJQ2VBSUJBREFOQmdrcWhraUc5dzBC", key)

	info, err := os.Stat(store.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestKeyFileEmpty(t *testing.T) {
	_, err := (&KeyFile{Path: writeFile(t, "priv.key", "\n")}).LoadPrivateKey()
	assert.ErrorIs(t, err, fileio.ErrLocalIO)
}
