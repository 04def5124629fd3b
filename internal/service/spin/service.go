package spin

import (
	"roulette_backend/internal/config"
	"roulette_backend/internal/events"
	"roulette_backend/internal/repository"
	"roulette_backend/internal/service"
	"roulette_backend/internal/service/odds"
	"time"

	"github.com/avito-tech/go-transaction-manager/trm/v2"
	"github.com/shopspring/decimal"
)

type serv struct {
	userRepo      repository.UserRepository
	manualBetRepo repository.ManualBetRepository
	statsRepo     repository.StatsRepository
	txManager     trm.Manager
	picker        odds.ManualPicker
	emitter       events.Emitter
	multiplier    decimal.Decimal
	now           func() time.Time
}

type Deps struct {
	UserRepo      repository.UserRepository
	ManualBetRepo repository.ManualBetRepository
	StatsRepo     repository.StatsRepository
	TxManager     trm.Manager
	GameCfg       config.GameConfig

	// Optional, default to the house-edge picker, a no-op emitter and time.Now
	Picker  odds.ManualPicker
	Emitter events.Emitter
	Now     func() time.Time
}

// NewSpinService - manual roulette: one bet, resolved on the spot
func NewSpinService(deps Deps) service.SpinService {
	s := &serv{
		userRepo:      deps.UserRepo,
		manualBetRepo: deps.ManualBetRepo,
		statsRepo:     deps.StatsRepo,
		txManager:     deps.TxManager,
		picker:        deps.Picker,
		emitter:       deps.Emitter,
		multiplier:    deps.GameCfg.PayoutMultiplier(),
		now:           deps.Now,
	}
	if s.picker == nil {
		s.picker = odds.NewHouseEdgePicker(deps.GameCfg.ManualWinChance(), odds.DefaultSource())
	}
	if s.emitter == nil {
		s.emitter = events.NewNoopEmitter()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}
