package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"roulette_backend/internal/config"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type rateLimitYAML struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

type gameYAML struct {
	PayoutMultiplier int64         `yaml:"payout_multiplier"`
	ManualWinChance  float64       `yaml:"manual_win_chance"`
	LeastBetMass     float64       `yaml:"least_bet_mass"`
	Retention        time.Duration `yaml:"retention"`
	DrainInterval    time.Duration `yaml:"drain_interval"`
	CleanupInterval  time.Duration `yaml:"cleanup_interval"`
	RoundInterval    time.Duration `yaml:"round_interval"`
	RateLimit        rateLimitYAML `yaml:"rate_limit"`
}

func defaultGame() gameYAML {
	return gameYAML{
		PayoutMultiplier: 30,
		ManualWinChance:  0.02,
		LeastBetMass:     0.8,
		Retention:        30 * 24 * time.Hour,
		DrainInterval:    time.Minute,
		CleanupInterval:  24 * time.Hour,
		RoundInterval:    time.Hour,
		RateLimit: rateLimitYAML{
			Requests: 30,
			Window:   time.Minute,
		},
	}
}

type gameConfig struct {
	raw gameYAML
}

// NewGameConfigFromYAML - reads the game rules, keys missing from the file keep their defaults.
// A missing file yields the defaults.
func NewGameConfigFromYAML(path string) (config.GameConfig, error) {
	raw := defaultGame()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &gameConfig{raw: raw}, nil
	case err != nil:
		return nil, err
	}

	if err = yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err = raw.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}

	return &gameConfig{raw: raw}, nil
}

func (g gameYAML) validate() error {
	if g.PayoutMultiplier < 2 {
		return errors.New("payout_multiplier must be at least 2")
	}
	if g.ManualWinChance < 0 || g.ManualWinChance > 1 {
		return errors.New("manual_win_chance must be within [0, 1]")
	}
	if g.LeastBetMass <= 0 || g.LeastBetMass >= 1 {
		return errors.New("least_bet_mass must be within (0, 1)")
	}
	for name, d := range map[string]time.Duration{
		"retention":        g.Retention,
		"drain_interval":   g.DrainInterval,
		"cleanup_interval": g.CleanupInterval,
		"round_interval":   g.RoundInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if g.RateLimit.Requests < 0 || (g.RateLimit.Requests > 0 && g.RateLimit.Window <= 0) {
		return errors.New("rate_limit needs a positive window")
	}
	return nil
}

func (c *gameConfig) PayoutMultiplier() decimal.Decimal {
	return decimal.NewFromInt(c.raw.PayoutMultiplier)
}

func (c *gameConfig) ManualWinChance() float64       { return c.raw.ManualWinChance }
func (c *gameConfig) LeastBetMass() float64          { return c.raw.LeastBetMass }
func (c *gameConfig) Retention() time.Duration       { return c.raw.Retention }
func (c *gameConfig) DrainInterval() time.Duration   { return c.raw.DrainInterval }
func (c *gameConfig) CleanupInterval() time.Duration { return c.raw.CleanupInterval }
func (c *gameConfig) RoundInterval() time.Duration   { return c.raw.RoundInterval }

func (c *gameConfig) RateLimit() config.RateLimit {
	return config.RateLimit{
		Requests: c.raw.RateLimit.Requests,
		Window:   c.raw.RateLimit.Window,
	}
}
