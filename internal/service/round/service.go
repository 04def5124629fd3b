package round

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

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

type serv struct {
	roundRepo repository.RoundRepository
	betRepo   repository.BetRepository
	txManager trm.Manager
	picker    odds.Picker
	emitter   events.Emitter

	multiplier    decimal.Decimal
	leastBetMass  float64
	retention     time.Duration
	roundInterval time.Duration
	now           func() time.Time
}

type Deps struct {
	RoundRepo repository.RoundRepository
	BetRepo   repository.BetRepository
	TxManager trm.Manager
	GameCfg   config.GameConfig

	// Optional, default to the weighted picker, a no-op emitter and time.Now
	Picker  odds.Picker
	Emitter events.Emitter
	Now     func() time.Time
}

// NewRoundService - scheduled rounds of physically collected bets
func NewRoundService(deps Deps) service.RoundService {
	s := &serv{
		roundRepo:     deps.RoundRepo,
		betRepo:       deps.BetRepo,
		txManager:     deps.TxManager,
		picker:        deps.Picker,
		emitter:       deps.Emitter,
		multiplier:    deps.GameCfg.PayoutMultiplier(),
		leastBetMass:  deps.GameCfg.LeastBetMass(),
		retention:     deps.GameCfg.Retention(),
		roundInterval: deps.GameCfg.RoundInterval(),
		now:           deps.Now,
	}
	if s.picker == nil {
		s.picker = odds.NewWeightedPicker(odds.DefaultSource())
	}
	if s.emitter == nil {
		s.emitter = events.NewNoopEmitter()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}
