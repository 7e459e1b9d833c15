package config

import (
	"errors"
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Storage type constants
const (
	StorageTypeFile   = "file"
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// Config holds all server configuration, loaded from the environment.
type Config struct {
	// HTTPAddr is the listen address for the HTTP API and the event channel.
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":9001"`

	// GeneralRoom is the name of the default room every authenticated
	// connection is placed in.
	GeneralRoom string `envconfig:"GENERAL_ROOM" default:"general"`

	// StorageType selects the account store backend: file, memory or redis.
	StorageType string `envconfig:"STORAGE_TYPE" default:"file"`
	// UsersFile is the account file path for the file backend.
	UsersFile string `envconfig:"USERS_FILE" default:"users.txt"`
	// RedisURL is the connection URL for the redis backend.
	RedisURL string `envconfig:"REDIS_URL"`

	// MulticastAddr is the UDP group the discovery responder listens on.
	MulticastAddr string `envconfig:"MULTICAST_ADDR" default:"239.255.70.80:9002"`

	// Account shape rules
	MinUsernameLength  int      `envconfig:"MIN_USERNAME_LENGTH" default:"3"`
	MaxUsernameLength  int      `envconfig:"MAX_USERNAME_LENGTH" default:"20"`
	MinPasswordLength  int      `envconfig:"MIN_PASSWORD_LENGTH" default:"6"`
	MaxPasswordLength  int      `envconfig:"MAX_PASSWORD_LENGTH" default:"128"`
	ForbiddenUsernames []string `envconfig:"FORBIDDEN_USERNAMES" default:"admin,administrator,administration,root,superuser,super,moderator,mod,moderation,system"`

	// MaxMessageLength bounds a chat message after normalization.
	MaxMessageLength int `envconfig:"MAX_MESSAGE_LENGTH" default:"1000"`
}

// Load reads configuration from the environment with the PARLEY prefix and
// validates it.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("parley", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration with every field at its default value.
func Default() Config {
	return Config{
		HTTPAddr:          ":9001",
		GeneralRoom:       "general",
		StorageType:       StorageTypeFile,
		UsersFile:         "users.txt",
		MulticastAddr:     "239.255.70.80:9002",
		MinUsernameLength: 3,
		MaxUsernameLength: 20,
		MinPasswordLength: 6,
		MaxPasswordLength: 128,
		ForbiddenUsernames: []string{
			"admin", "administrator", "administration",
			"root", "superuser", "super",
			"moderator", "mod", "moderation", "system",
		},
		MaxMessageLength: 1000,
	}
}

// Validate checks invariants between related settings.
func (c Config) Validate() error {
	if c.GeneralRoom == "" {
		return errors.New("general room name must not be empty")
	}
	if c.MinUsernameLength < 1 || c.MinUsernameLength > c.MaxUsernameLength {
		return fmt.Errorf("invalid username length bounds [%d, %d]", c.MinUsernameLength, c.MaxUsernameLength)
	}
	if c.MinPasswordLength < 1 || c.MinPasswordLength > c.MaxPasswordLength {
		return fmt.Errorf("invalid password length bounds [%d, %d]", c.MinPasswordLength, c.MaxPasswordLength)
	}
	if c.MaxMessageLength < 1 {
		return fmt.Errorf("max message length must be positive, got %d", c.MaxMessageLength)
	}
	switch c.StorageType {
	case StorageTypeFile:
		if c.UsersFile == "" {
			return errors.New("users file path required for file storage")
		}
	case StorageTypeMemory:
	case StorageTypeRedis:
		if c.RedisURL == "" {
			return errors.New("redis URL required for redis storage")
		}
	default:
		return fmt.Errorf("unknown storage type %q", c.StorageType)
	}
	return nil
}
