package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gridclash/gridclash-backend/internal/config"
	"github.com/gridclash/gridclash-backend/internal/repository"
	"github.com/gridclash/gridclash-backend/internal/repository/storage"
	"github.com/gridclash/gridclash-backend/internal/store"
	"github.com/gridclash/gridclash-backend/internal/transport/redisbus"
	"github.com/gridclash/gridclash-backend/internal/usecase"
	"github.com/gridclash/gridclash-backend/transport/rest"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs one participant process: local state store, rules session,
// Redis-backed sync bus and the REST surface for a presentation layer.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisClient, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisClient.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	lobbyRepo := repository.NewLobbyRepository(redisClient)
	bus := redisbus.New(logger, redisClient)
	defer func() {
		if err = bus.Close(); err != nil {
			log.Error("could not close sync bus", "error", err)
		}
	}()

	session := usecase.NewSession(logger, "", store.New(), lobbyRepo, bus)
	defer session.Close()

	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		restServer := rest.New(logger, session)
		if httpErr := restServer.Start(conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
