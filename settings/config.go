package settings

import (
	"errors"
	"fmt"
	"go_secure_copy/fileio"
	"net"
	"strconv"
	"strings"
)

// Settings files are a few short lines; anything larger is not one of ours.
const maxSettingsSize = 64 << 10

// ErrNotRegistered means no identity has been persisted yet
var ErrNotRegistered = errors.New("client is not registered")

// Config holds the contents of transfer.info
type Config struct {
	Host     string
	Port     int
	Name     string
	FilePath string
}

// Address returns host:port suitable for dialing
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ReadConfig parses transfer.info: host:port, display name and file path, one per line
func ReadConfig(path string) (*Config, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}
	if len(lines) < 3 {
		return nil, fmt.Errorf("%w: %s needs 3 lines, has %d", fileio.ErrLocalIO, path, len(lines))
	}

	host, port, err := SplitAddress(lines[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", fileio.ErrLocalIO, path, err)
	}
	if lines[1] == "" || lines[2] == "" {
		return nil, fmt.Errorf("%w: %s: name and file path must not be empty", fileio.ErrLocalIO, path)
	}

	return &Config{Host: host, Port: port, Name: lines[1], FilePath: lines[2]}, nil
}

// SplitAddress parses host:port and validates the port range
func SplitAddress(address string) (string, int, error) {
	host, portText, err := net.SplitHostPort(address)
	if err != nil {
		return "", 0, fmt.Errorf("invalid address %q: %w", address, err)
	}
	port, err := strconv.Atoi(portText)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port %q", portText)
	}
	return host, port, nil
}

// readLines returns the trimmed lines of a settings file
func readLines(path string) ([]string, error) {
	data, err := fileio.ReadFile(path, maxSettingsSize)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	// Drop trailing blank lines.
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}
