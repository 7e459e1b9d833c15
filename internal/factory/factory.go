// Package factory wires application components together.
package factory

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/parley-chat/parley/internal/config"
	"github.com/parley-chat/parley/internal/dependencies/clock"
	"github.com/parley-chat/parley/internal/dependencies/random"
	"github.com/parley-chat/parley/internal/discovery"
	"github.com/parley-chat/parley/internal/model"
	"github.com/parley-chat/parley/internal/services/chat"
	"github.com/parley-chat/parley/internal/services/credential"
	"github.com/parley-chat/parley/internal/services/directory"
	"github.com/parley-chat/parley/internal/services/token"
	"github.com/parley-chat/parley/internal/storage"
	filestorage "github.com/parley-chat/parley/internal/storage/file"
	"github.com/parley-chat/parley/internal/storage/memory"
	redisstorage "github.com/parley-chat/parley/internal/storage/redis"
	"github.com/parley-chat/parley/internal/ws"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Credentials    *credential.Service
	Authority      *token.Authority
	Directory      *directory.Directory
	ChatController *chat.Controller
	EventChannel   *ws.Handler
	Discovery      *discovery.Responder

	closer io.Closer
}

// New creates a new application with all dependencies wired
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var (
		store  storage.Storage
		closer io.Closer
	)
	switch cfg.StorageType {
	case config.StorageTypeFile:
		fileStore, err := filestorage.Open(cfg.UsersFile)
		if err != nil {
			return nil, fmt.Errorf("open account file: %w", err)
		}
		store, closer = fileStore, fileStore
	case config.StorageTypeMemory:
		store = memory.New()
	case config.StorageTypeRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		redisStore, err := redisstorage.New(redisCfg)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		store, closer = redisStore, redisStore
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.StorageType)
	}

	clk := clock.New()
	rnd := random.New()

	app := newWithDependencies(store, clk, rnd, cfg, logger)
	app.closer = closer
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, cfg config.Config, logger *slog.Logger) *App {
	credentials := credential.New(store, nil, credential.Policy{
		MinUsernameLength:  cfg.MinUsernameLength,
		MaxUsernameLength:  cfg.MaxUsernameLength,
		MinPasswordLength:  cfg.MinPasswordLength,
		MaxPasswordLength:  cfg.MaxPasswordLength,
		ForbiddenUsernames: cfg.ForbiddenUsernames,
	}, logger)
	authority := token.New(store, clk)
	dir := directory.New(authority, model.RoomName(cfg.GeneralRoom), logger)
	controller := chat.NewController(dir, authority, chat.Config{
		MaxMessageLength: cfg.MaxMessageLength,
	}, logger)
	eventChannel := ws.NewHandler(controller, rnd, logger)
	responder := discovery.New(logger)

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		Credentials:    credentials,
		Authority:      authority,
		Directory:      dir,
		ChatController: controller,
		EventChannel:   eventChannel,
		Discovery:      responder,
	}
}

// Close releases resources held by the storage backend.
func (a *App) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}
