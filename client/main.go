package main

import (
	"context"
	"errors"
	"fmt"
	"go_secure_copy/client/comms"
	"go_secure_copy/constants"
	"go_secure_copy/fileio"
	"go_secure_copy/logging"
	"go_secure_copy/networking"
	"go_secure_copy/settings"
	"os"
	"os/signal"
	"time"

	"github.com/akamensky/argparse"
	"go.uber.org/zap"
)

func main() {
	args := argparse.NewParser("client", constants.Title)

	info := args.String("i", "info", &argparse.Options{Required: false, Help: "Transfer settings file",
		Default: constants.TRANSFER_FILE})
	me := args.String("m", "me", &argparse.Options{Required: false, Help: "Identity file",
		Default: constants.ME_FILE})
	keyPath := args.String("k", "key", &argparse.Options{Required: false, Help: "Private key file",
		Default: constants.PRIVATE_KEY_FILE})
	address := args.String("a", "address", &argparse.Options{Required: false, Help: "Server host:port, overrides transfer settings"})
	file := args.String("f", "file", &argparse.Options{Required: false, Help: "File path, overrides transfer settings"})
	name := args.String("n", "name", &argparse.Options{Required: false, Help: "Client name, overrides transfer settings"})
	retries := args.Int("r", "retries", &argparse.Options{Required: false, Help: "Checksum mismatch retries before giving up",
		Default: constants.MAX_RETRY_COUNT})
	dscp := args.Int("d", "dscp", &argparse.Options{Required: false, Help: "DSCP field for QoS",
		Default: constants.DEFAULT_DSCP})
	mptcp := args.Flag("M", "mptcp", &argparse.Options{Help: "Enable Multipath TCP"})
	timeout := args.Int("t", "timeout", &argparse.Options{Required: false, Help: "Connect timeout in seconds",
		Default: constants.DEFAULT_TIMEOUT})
	verbose := args.Flag("v", "verbose", &argparse.Options{Help: "Debug logging"})

	err := args.Parse(os.Args)

	if err != nil {
		fmt.Print(args.Usage(err))
		os.Exit(1)
	}

	logger, err := logging.New(*verbose)
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Named("MAIN")

	cfg, err := loadConfig(*info, *address, *file, *name)
	if err != nil {
		log.Error("Failed to read settings", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	// The target file must be readable before anything is sent.
	if err := prepare(cfg); err != nil {
		log.Error("Cannot read file", zap.String("path", cfg.FilePath), zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	session, err := loadSession(cfg.Name, &settings.IdentityFile{Path: *me}, &settings.KeyFile{Path: *keyPath})
	if err != nil {
		log.Error("Failed to read identity", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	if *retries < 0 {
		*retries = constants.MAX_RETRY_COUNT
		log.Warn("Negative retry count. Using default", zap.Int("retries", *retries))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Connect to host.
	client, err := comms.Connect(ctx, cfg.Address(), *dscp, *mptcp,
		time.Duration(*timeout)*time.Second, logger)
	connLog := logger.Named(comms.StepConnection)
	if err != nil {
		connLog.Error("Fail", zap.String("address", cfg.Address()), zap.Error(err))
		logger.Sync()
		os.Exit(exitCode(err))
	}
	connLog.Info("Success", zap.String("address", cfg.Address()))

	// Interrupt unblocks pending reads by closing the connection.
	go func() {
		<-ctx.Done()
		client.Close()
	}()

	err = run(client, session, comms.NewTransfer(cfg.FilePath, *retries),
		&settings.IdentityFile{Path: *me}, &settings.KeyFile{Path: *keyPath})
	// Close connection.
	client.Close()

	if err != nil {
		log.Error("Transfer failed", zap.Error(err))
		logger.Sync()
		os.Exit(exitCode(err))
	}
	log.Info("Disconnected")
}

// run identifies the session and delivers the file
func run(client *comms.Client, session *comms.Session, transfer *comms.Transfer,
	identity comms.IdentityStore, keys comms.KeyStore) error {
	if err := client.Identify(session, identity, keys); err != nil {
		return err
	}
	return client.Deliver(session, transfer)
}

// loadConfig reads transfer settings, letting flags override individual values
func loadConfig(path, address, file, name string) (*settings.Config, error) {
	cfg, err := settings.ReadConfig(path)
	if err != nil {
		// Flags alone are enough when all three are given.
		if address == "" || file == "" || name == "" {
			return nil, err
		}
		cfg = new(settings.Config)
	}

	if address != "" {
		host, port, err := settings.SplitAddress(address)
		if err != nil {
			return nil, err
		}
		cfg.Host, cfg.Port = host, port
	}
	if file != "" {
		cfg.FilePath = file
	}
	if name != "" {
		cfg.Name = name
	}
	return cfg, nil
}

// prepare checks local inputs of the transfer so failures happen before connecting
func prepare(cfg *settings.Config) error {
	return fileio.CheckFile(cfg.FilePath, comms.MaxFileSize)
}

// loadSession restores a persisted identity and key, or starts an unregistered session
func loadSession(name string, identity *settings.IdentityFile, keys *settings.KeyFile) (*comms.Session, error) {
	session := comms.NewSession(name)

	savedName, id, err := identity.LoadIdentity()
	if errors.Is(err, settings.ErrNotRegistered) {
		return session, nil
	}
	if err != nil {
		return nil, err
	}

	key, err := keys.LoadPrivateKey()
	if err != nil {
		return nil, err
	}
	if err := session.Crypto.SetPrivateKey(key); err != nil {
		return nil, err
	}
	session.Name = savedName
	session.ID = networking.ClientIDFromString(id)

	return session, nil
}

// exitCode maps a failure to the process exit status
func exitCode(err error) int {
	switch {
	case errors.Is(err, comms.ErrChecksumMismatch):
		return 2
	case errors.Is(err, networking.ErrConnection), errors.Is(err, networking.ErrShortRead):
		return 3
	}
	return 1
}
