package app

import (
	"context"
	roundAPI "roulette_backend/internal/api/round"
	schedulerAPI "roulette_backend/internal/api/scheduler"
	spinAPI "roulette_backend/internal/api/spin"
	statsAPI "roulette_backend/internal/api/stats"
	"roulette_backend/internal/config"
	"roulette_backend/internal/config/env"
	"roulette_backend/internal/events"
	"roulette_backend/internal/middleware"
	"roulette_backend/internal/repository"
	"roulette_backend/internal/repository/bet_repo"
	"roulette_backend/internal/repository/manual_bet_repo"
	"roulette_backend/internal/repository/memory"
	"roulette_backend/internal/repository/round_repo"
	"roulette_backend/internal/repository/stats_repo"
	"roulette_backend/internal/repository/user_repo"
	"roulette_backend/internal/scheduler"
	"roulette_backend/internal/service"
	"roulette_backend/internal/service/round"
	"roulette_backend/internal/service/spin"
	"roulette_backend/internal/service/stats"
	"roulette_backend/pkg/logger"
	"roulette_backend/pkg/retry"
	"time"

	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

const (
	connectInitialInterval = 500 * time.Millisecond
	connectMaxElapsed      = 30 * time.Second
)

type ServiceProvider struct {
	configPath string

	// Configs
	gameCfg    config.GameConfig
	pgConfig   config.PGConfig
	httpCfg    config.HTTPConfig
	jwtCfg     config.JWTConfig
	natsCfg    config.NATSConfig
	redisCfg   config.RedisConfig
	storageCfg config.StorageConfig

	// Storage
	dbClient    *pgxpool.Pool
	memStore    *memory.Store
	txManager   trm.Manager
	userRepo    repository.UserRepository
	roundRepo   repository.RoundRepository
	betRepo     repository.BetRepository
	manualRepo  repository.ManualBetRepository
	statsRepo   repository.StatsRepository
	redisClient *redis.Client

	// Services
	emitter   events.Emitter
	spinServ  service.SpinService
	roundServ service.RoundService
	statsServ service.StatsService
	scheduler *scheduler.State

	// Handlers and router
	spinHand      *spinAPI.Handler
	roundHand     *roundAPI.Handler
	statsHand     *statsAPI.Handler
	schedulerHand *schedulerAPI.Handler
	router        chi.Router
}

func newServiceProvider(configPath string) *ServiceProvider {
	return &ServiceProvider{configPath: configPath}
}

func (sp *ServiceProvider) GameCfg() config.GameConfig {
	if sp.gameCfg == nil {
		cfg, err := env.NewGameConfigFromYAML(sp.configPath)
		if err != nil {
			panic("failed to get game config: " + err.Error())
		}
		sp.gameCfg = cfg
	}
	return sp.gameCfg
}

func (sp *ServiceProvider) PgConfig() config.PGConfig {
	if sp.pgConfig == nil {
		cfg, err := env.NewPGConfig()
		if err != nil {
			panic("failed to get database config: " + err.Error())
		}
		sp.pgConfig = cfg
	}
	return sp.pgConfig
}

func (sp *ServiceProvider) HTTPCfg() config.HTTPConfig {
	if sp.httpCfg == nil {
		cfg, err := env.NewHTTPConfig()
		if err != nil {
			panic("failed to get http config: " + err.Error())
		}
		sp.httpCfg = cfg
	}
	return sp.httpCfg
}

func (sp *ServiceProvider) JWTCfg() config.JWTConfig {
	if sp.jwtCfg == nil {
		cfg, err := env.NewJWTConfig()
		if err != nil {
			panic("failed to get jwt config: " + err.Error())
		}
		sp.jwtCfg = cfg
	}
	return sp.jwtCfg
}

func (sp *ServiceProvider) NATSCfg() config.NATSConfig {
	if sp.natsCfg == nil {
		cfg, err := env.NewNATSConfig()
		if err != nil {
			panic("failed to get nats config: " + err.Error())
		}
		sp.natsCfg = cfg
	}
	return sp.natsCfg
}

func (sp *ServiceProvider) RedisCfg() config.RedisConfig {
	if sp.redisCfg == nil {
		cfg, err := env.NewRedisConfig()
		if err != nil {
			panic("failed to get redis config: " + err.Error())
		}
		sp.redisCfg = cfg
	}
	return sp.redisCfg
}

func (sp *ServiceProvider) StorageCfg() config.StorageConfig {
	if sp.storageCfg == nil {
		cfg, err := env.NewStorageConfig()
		if err != nil {
			panic("failed to get storage config: " + err.Error())
		}
		sp.storageCfg = cfg
	}
	return sp.storageCfg
}

func (sp *ServiceProvider) inMemory() bool {
	return sp.StorageCfg().Driver() == config.StorageMemory
}

// DBClient connects to Postgres, retrying while the database comes up
func (sp *ServiceProvider) DBClient(ctx context.Context) *pgxpool.Pool {
	if sp.dbClient == nil {
		dbc, err := pgxpool.New(ctx, sp.PgConfig().DSN())
		if err != nil {
			panic("failed to create db pool: " + err.Error())
		}

		err = retry.Exponential(ctx, func() error {
			return dbc.Ping(ctx)
		}, retry.ExponentialConfig{
			InitialInterval: connectInitialInterval,
			MaxElapsedTime:  connectMaxElapsed,
			OnRetry: func(err error, next time.Duration) {
				logger.Warn("Database not ready", "error", err, "retry_in", next)
			},
		})
		if err != nil {
			dbc.Close()
			panic("failed to ping db: " + err.Error())
		}

		sp.dbClient = dbc
	}
	return sp.dbClient
}

func (sp *ServiceProvider) MemStore() *memory.Store {
	if sp.memStore == nil {
		sp.memStore = memory.NewStore()
	}
	return sp.memStore
}

func (sp *ServiceProvider) TXManager(ctx context.Context) trm.Manager {
	if sp.txManager == nil {
		if sp.inMemory() {
			sp.txManager = memory.NewTxManager(sp.MemStore())
			return sp.txManager
		}

		m, err := manager.New(trmpgx.NewDefaultFactory(sp.DBClient(ctx)))
		if err != nil {
			panic("failed to create tx manager: " + err.Error())
		}
		sp.txManager = m
	}
	return sp.txManager
}

func (sp *ServiceProvider) UserRepo(ctx context.Context) repository.UserRepository {
	if sp.userRepo == nil {
		if sp.inMemory() {
			sp.userRepo = memory.NewUserRepository(sp.MemStore())
		} else {
			sp.userRepo = user_repo.NewUserRepository(sp.DBClient(ctx))
		}
	}
	return sp.userRepo
}

func (sp *ServiceProvider) RoundRepo(ctx context.Context) repository.RoundRepository {
	if sp.roundRepo == nil {
		if sp.inMemory() {
			sp.roundRepo = memory.NewRoundRepository(sp.MemStore())
		} else {
			sp.roundRepo = round_repo.NewRoundRepository(sp.DBClient(ctx))
		}
	}
	return sp.roundRepo
}

func (sp *ServiceProvider) BetRepo(ctx context.Context) repository.BetRepository {
	if sp.betRepo == nil {
		if sp.inMemory() {
			sp.betRepo = memory.NewBetRepository(sp.MemStore())
		} else {
			sp.betRepo = bet_repo.NewBetRepository(sp.DBClient(ctx))
		}
	}
	return sp.betRepo
}

func (sp *ServiceProvider) ManualBetRepo(ctx context.Context) repository.ManualBetRepository {
	if sp.manualRepo == nil {
		if sp.inMemory() {
			sp.manualRepo = memory.NewManualBetRepository(sp.MemStore())
		} else {
			sp.manualRepo = manual_bet_repo.NewManualBetRepository(sp.DBClient(ctx))
		}
	}
	return sp.manualRepo
}

func (sp *ServiceProvider) StatsRepo(ctx context.Context) repository.StatsRepository {
	if sp.statsRepo == nil {
		if sp.inMemory() {
			sp.statsRepo = memory.NewStatsRepository(sp.MemStore())
		} else {
			sp.statsRepo = stats_repo.NewStatsRepository(sp.DBClient(ctx))
		}
	}
	return sp.statsRepo
}

// Emitter publishes settlements to NATS when configured.
// A broker that cannot be reached degrades to the no-op emitter.
func (sp *ServiceProvider) Emitter(ctx context.Context) events.Emitter {
	if sp.emitter == nil {
		cfg := sp.NATSCfg()
		if !cfg.Enabled() {
			sp.emitter = events.NewNoopEmitter()
			return sp.emitter
		}

		var conn *nats.Conn
		err := retry.Constant(ctx, func() error {
			var err error
			conn, err = events.Connect(cfg.URL())
			return err
		}, time.Second, 3)
		if err != nil {
			logger.Error("NATS unavailable, settlement events disabled", "url", cfg.URL(), "error", err)
			sp.emitter = events.NewNoopEmitter()
			return sp.emitter
		}

		logger.Info("Publishing settlements", "url", conn.ConnectedUrl(), "subject", cfg.Subject())
		sp.emitter = events.NewNATSEmitter(conn, cfg.Subject())
	}
	return sp.emitter
}

// RedisClient is nil when rate limiting is not configured or Redis is down
func (sp *ServiceProvider) RedisClient(ctx context.Context) *redis.Client {
	if sp.redisClient == nil {
		cfg := sp.RedisCfg()
		if !cfg.Enabled() {
			return nil
		}

		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Addr(),
			Password: cfg.Password(),
			DB:       cfg.DB(),
		})
		err := retry.Constant(ctx, func() error {
			return client.Ping(ctx).Err()
		}, time.Second, 3)
		if err != nil {
			logger.Error("Redis unavailable, rate limiting disabled", "addr", cfg.Addr(), "error", err)
			_ = client.Close()
			return nil
		}

		sp.redisClient = client
	}
	return sp.redisClient
}

func (sp *ServiceProvider) Limiter(ctx context.Context) middleware.Limiter {
	client := sp.RedisClient(ctx)
	if client == nil {
		return nil
	}
	rl := sp.GameCfg().RateLimit()
	return middleware.NewRedisLimiter(client, rl.Requests, rl.Window)
}

func (sp *ServiceProvider) SpinService(ctx context.Context) service.SpinService {
	if sp.spinServ == nil {
		sp.spinServ = spin.NewSpinService(spin.Deps{
			UserRepo:      sp.UserRepo(ctx),
			ManualBetRepo: sp.ManualBetRepo(ctx),
			StatsRepo:     sp.StatsRepo(ctx),
			TxManager:     sp.TXManager(ctx),
			GameCfg:       sp.GameCfg(),
			Emitter:       sp.Emitter(ctx),
		})
	}
	return sp.spinServ
}

func (sp *ServiceProvider) RoundService(ctx context.Context) service.RoundService {
	if sp.roundServ == nil {
		sp.roundServ = round.NewRoundService(round.Deps{
			RoundRepo: sp.RoundRepo(ctx),
			BetRepo:   sp.BetRepo(ctx),
			TxManager: sp.TXManager(ctx),
			GameCfg:   sp.GameCfg(),
			Emitter:   sp.Emitter(ctx),
		})
	}
	return sp.roundServ
}

func (sp *ServiceProvider) StatsService(ctx context.Context) service.StatsService {
	if sp.statsServ == nil {
		sp.statsServ = stats.NewStatsService(sp.UserRepo(ctx), sp.ManualBetRepo(ctx), sp.StatsRepo(ctx), sp.TXManager(ctx))
	}
	return sp.statsServ
}

func (sp *ServiceProvider) Scheduler(ctx context.Context) *scheduler.State {
	if sp.scheduler == nil {
		cfg := sp.GameCfg()
		sp.scheduler = scheduler.New(sp.RoundService(ctx), scheduler.Intervals{
			Drain:   cfg.DrainInterval(),
			Round:   cfg.RoundInterval(),
			Cleanup: cfg.CleanupInterval(),
		})
	}
	return sp.scheduler
}

func (sp *ServiceProvider) SpinHandler(ctx context.Context) *spinAPI.Handler {
	if sp.spinHand == nil {
		sp.spinHand = spinAPI.NewHandler(spinAPI.HandlerDeps{Serv: sp.SpinService(ctx)})
	}
	return sp.spinHand
}

func (sp *ServiceProvider) RoundHandler(ctx context.Context) *roundAPI.Handler {
	if sp.roundHand == nil {
		sp.roundHand = roundAPI.NewHandler(roundAPI.HandlerDeps{Serv: sp.RoundService(ctx)})
	}
	return sp.roundHand
}

func (sp *ServiceProvider) StatsHandler(ctx context.Context) *statsAPI.Handler {
	if sp.statsHand == nil {
		sp.statsHand = statsAPI.NewHandler(statsAPI.HandlerDeps{Serv: sp.StatsService(ctx)})
	}
	return sp.statsHand
}

func (sp *ServiceProvider) SchedulerHandler(ctx context.Context) *schedulerAPI.Handler {
	if sp.schedulerHand == nil {
		sp.schedulerHand = schedulerAPI.NewHandler(schedulerAPI.HandlerDeps{Scheduler: sp.Scheduler(ctx)})
	}
	return sp.schedulerHand
}

func (sp *ServiceProvider) Router(ctx context.Context) chi.Router {
	if sp.router == nil {
		r := chi.NewRouter()

		r.Use(chimw.RequestID)
		r.Use(chimw.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
			ExposedHeaders:   []string{"Link", "Retry-After"},
			AllowCredentials: false,
			MaxAge:           60 * 15,
		}))

		limiter := sp.Limiter(ctx)

		// Player endpoints
		r.Group(func(rr chi.Router) {
			rr.Use(middleware.Auth(sp.JWTCfg().AccessTokenSecretKey()))

			rr.With(middleware.RateLimit(limiter, "spin")).Post("/spin", sp.SpinHandler(ctx).Spin)
			rr.Get("/stats", sp.StatsHandler(ctx).Get)
		})

		// Cashier and operator endpoints
		roundHandler := sp.RoundHandler(ctx)
		r.Route("/rounds", func(rr chi.Router) {
			rr.Get("/", roundHandler.List)
			rr.Post("/", roundHandler.Create)
			rr.Post("/next", roundHandler.CreateNext)
			rr.Post("/drain", roundHandler.Drain)
			rr.Get("/pending", roundHandler.Pending)
			rr.Post("/{id}/settle", roundHandler.Settle)
			rr.With(middleware.RateLimit(limiter, "bet")).Post("/{id}/bets", roundHandler.PlaceBet)
		})
		r.Delete("/bets/{id}", roundHandler.DeleteBet)

		schedulerHandler := sp.SchedulerHandler(ctx)
		r.Route("/scheduler", func(rr chi.Router) {
			rr.Get("/", schedulerHandler.Status)
			rr.Post("/start", schedulerHandler.Start)
			rr.Post("/stop", schedulerHandler.Stop)
		})

		sp.router = r
	}
	return sp.router
}

// Close releases the connections opened by the provider
func (sp *ServiceProvider) Close() {
	if sp.scheduler != nil {
		sp.scheduler.Stop()
	}
	if sp.emitter != nil {
		sp.emitter.Close()
	}
	if sp.redisClient != nil {
		_ = sp.redisClient.Close()
	}
	if sp.dbClient != nil {
		sp.dbClient.Close()
	}
}
