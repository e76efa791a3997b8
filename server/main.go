package main

import (
	"context"
	"fmt"
	"go_secure_copy/constants"
	"go_secure_copy/logging"
	server "go_secure_copy/server/controller"
	"go_secure_copy/server/store"
	"net"
	"os"
	"os/signal"
	"strconv"

	"github.com/akamensky/argparse"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	args := argparse.NewParser("server", constants.Title)

	bind := args.String("l", "listen", &argparse.Options{Required: false, Help: "Listen on address",
		Default: "0.0.0.0"})
	port := args.Int("p", "port", &argparse.Options{Required: false, Help: "Listening port",
		Default: constants.DEFAULT_PORT})
	path := args.String("r", "root", &argparse.Options{Required: true, Help: "Root path for storing files"})
	redisAddr := args.String("R", "redis", &argparse.Options{Required: false, Help: "Redis address for the client registry. In-memory when omitted"})
	dscp := args.Int("d", "dscp", &argparse.Options{Required: false, Help: "DSCP field for QoS",
		Default: constants.DEFAULT_DSCP})
	mptcp := args.Flag("M", "mptcp", &argparse.Options{Help: "Enable Multipath TCP"})
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var registry store.Store = store.NewMemory()
	if *redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr: *redisAddr,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("Redis not reachable", zap.String("address", *redisAddr), zap.Error(err))
		}
		registry = store.NewRedis(rdb)
		log.Info("Using Redis registry", zap.String("address", *redisAddr))
	}

	srv, err := server.NewServer(*path, *dscp, registry, logger)
	if err != nil {
		log.Fatal("Cannot start server", zap.Error(err))
	}

	bindTo := net.JoinHostPort(*bind, strconv.Itoa(*port))
	l, err := server.Listen(ctx, bindTo, *mptcp)
	if err != nil {
		log.Fatal("Could not bind listening socket", zap.String("address", bindTo), zap.Error(err))
	}

	if err := srv.Serve(ctx, l); err != nil {
		log.Fatal("Server stopped", zap.Error(err))
	}
	log.Info("Shutting down")
}
