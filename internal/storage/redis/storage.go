package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/parley-chat/parley/internal/model"
	"github.com/parley-chat/parley/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) error {
	// Accounts are permanent, so no TTL
	return s.client.Set(ctx, accountKey(account.Username), account.Digest, 0).Err()
}

func (s *Storage) GetAccount(ctx context.Context, username model.Username) (*model.Account, error) {
	digest, err := s.client.Get(ctx, accountKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}

	return &model.Account{
		Username: username,
		Digest:   digest,
	}, nil
}

func (s *Storage) AccountExists(ctx context.Context, username model.Username) (bool, error) {
	n, err := s.client.Exists(ctx, accountKey(username)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
