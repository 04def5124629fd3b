package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"roulette_backend/internal/config"
	"roulette_backend/internal/model"
	"roulette_backend/pkg/logger"
	"roulette_backend/pkg/token"
	"time"

	"github.com/shopspring/decimal"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	ServiceProvider *ServiceProvider
}

type Options struct {
	EnvPath    string
	ConfigPath string
}

func NewApp(opts Options) *App {
	if err := config.Load(opts.EnvPath); err != nil {
		logger.Debug("No env file loaded", "path", opts.EnvPath, "error", err)
	}
	return &App{ServiceProvider: newServiceProvider(opts.ConfigPath)}
}

// Serve runs the HTTP server until ctx is done
func (s *App) Serve(ctx context.Context, startScheduler bool) error {
	defer s.ServiceProvider.Close()

	r := s.ServiceProvider.Router(ctx)
	if startScheduler {
		s.ServiceProvider.Scheduler(ctx).Start(ctx)
	}

	srv := &http.Server{
		Addr:              s.ServiceProvider.HTTPCfg().Address(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", srv.Addr, "storage", s.ServiceProvider.StorageCfg().Driver())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *App) Drain(ctx context.Context) model.DrainResult {
	defer s.ServiceProvider.Close()
	return s.ServiceProvider.RoundService(ctx).DrainOverdue(ctx)
}

func (s *App) Cleanup(ctx context.Context) (int64, error) {
	defer s.ServiceProvider.Close()
	return s.ServiceProvider.RoundService(ctx).Cleanup(ctx)
}

// CreateRound schedules a round at the given instant, or the next hourly one when at is nil
func (s *App) CreateRound(ctx context.Context, at *time.Time) (*model.Round, error) {
	defer s.ServiceProvider.Close()

	serv := s.ServiceProvider.RoundService(ctx)
	if at == nil {
		return serv.CreateNextHourly(ctx)
	}
	return serv.CreateRound(ctx, *at)
}

func (s *App) CreateUser(ctx context.Context, name string, balance decimal.Decimal) (int, error) {
	defer s.ServiceProvider.Close()

	if balance.IsNegative() {
		return 0, fmt.Errorf("%w: balance must not be negative", model.ErrValidation)
	}
	return s.ServiceProvider.UserRepo(ctx).CreateUser(ctx, &model.User{Name: name, Login: name, Balance: balance})
}

// IssueToken signs an access token for userID with the configured secret
func (s *App) IssueToken(userID int) (string, error) {
	cfg := s.ServiceProvider.JWTCfg()
	return token.GenerateAccessToken(userID, cfg.AccessTokenSecretKey(), cfg.AccessTokenDuration())
}
