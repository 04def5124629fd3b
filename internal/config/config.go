package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func Load(path string) error {
	err := godotenv.Load(path)
	if err != nil {
		return err
	}
	return nil
}

// GameConfig - rules of both roulette games
type GameConfig interface {
	PayoutMultiplier() decimal.Decimal
	ManualWinChance() float64
	LeastBetMass() float64
	Retention() time.Duration
	DrainInterval() time.Duration
	CleanupInterval() time.Duration
	RoundInterval() time.Duration
	RateLimit() RateLimit
}

type RateLimit struct {
	Requests int
	Window   time.Duration
}

type HTTPConfig interface {
	Address() string
}

type PGConfig interface {
	DSN() string
}

type JWTConfig interface {
	AccessTokenSecretKey() []byte
	AccessTokenDuration() time.Duration
}

type NATSConfig interface {
	Enabled() bool
	URL() string
	Subject() string
}

type RedisConfig interface {
	Enabled() bool
	Addr() string
	Password() string
	DB() int
}

type StorageDriver string

const (
	StoragePostgres StorageDriver = "postgres"
	StorageMemory   StorageDriver = "memory"
)

type StorageConfig interface {
	Driver() StorageDriver
}
