package env

import (
	"fmt"
	"os"
	"roulette_backend/internal/config"
	"strconv"
)

const (
	natsURLEnvName     = "NATS_URL"
	natsSubjectEnvName = "NATS_SUBJECT"

	redisAddrEnvName     = "REDIS_ADDR"
	redisPasswordEnvName = "REDIS_PASSWORD"
	redisDBEnvName       = "REDIS_DB"

	storageDriverEnvName = "STORAGE_DRIVER"

	defaultNATSSubject = "roulette.settlements"
)

type natsConfig struct {
	url     string
	subject string
}

// NewNATSConfig - an empty NATS_URL disables settlement notifications
func NewNATSConfig() (config.NATSConfig, error) {
	subject := os.Getenv(natsSubjectEnvName)
	if subject == "" {
		subject = defaultNATSSubject
	}
	return &natsConfig{
		url:     os.Getenv(natsURLEnvName),
		subject: subject,
	}, nil
}

func (c *natsConfig) Enabled() bool   { return c.url != "" }
func (c *natsConfig) URL() string     { return c.url }
func (c *natsConfig) Subject() string { return c.subject }

type redisConfig struct {
	addr     string
	password string
	db       int
}

// NewRedisConfig - an empty REDIS_ADDR disables rate limiting
func NewRedisConfig() (config.RedisConfig, error) {
	db := 0
	if raw := os.Getenv(redisDBEnvName); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid redis db: %w", err)
		}
		db = parsed
	}

	return &redisConfig{
		addr:     os.Getenv(redisAddrEnvName),
		password: os.Getenv(redisPasswordEnvName),
		db:       db,
	}, nil
}

func (c *redisConfig) Enabled() bool    { return c.addr != "" }
func (c *redisConfig) Addr() string     { return c.addr }
func (c *redisConfig) Password() string { return c.password }
func (c *redisConfig) DB() int          { return c.db }

type storageConfig struct {
	driver config.StorageDriver
}

func NewStorageConfig() (config.StorageConfig, error) {
	driver := config.StorageDriver(os.Getenv(storageDriverEnvName))
	switch driver {
	case "":
		driver = config.StoragePostgres
	case config.StoragePostgres, config.StorageMemory:
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
	return &storageConfig{driver: driver}, nil
}

func (c *storageConfig) Driver() config.StorageDriver { return c.driver }
