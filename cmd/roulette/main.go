package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"roulette_backend/internal/app"
	"roulette_backend/pkg/logger"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/shopspring/decimal"
)

type Globals struct {
	Debug  bool   `help:"Enable debug logs." name:"debug"`
	Env    string `help:"Path to the .env file." default:".env" name:"env"`
	Config string `help:"Path to the game rules file." default:"config.yaml" name:"config"`
}

type CLI struct {
	Globals

	Serve       ServeCmd       `cmd:"" help:"Run the HTTP server."`
	Drain       DrainCmd       `cmd:"" help:"Settle every overdue pending round once."`
	Cleanup     CleanupCmd     `cmd:"" help:"Delete completed rounds past retention."`
	CreateRound CreateRoundCmd `cmd:"" name:"create-round" help:"Schedule a round."`
	CreateUser  CreateUserCmd  `cmd:"" name:"create-user" help:"Create a player with a starting balance."`
	IssueToken  IssueTokenCmd  `cmd:"" name:"issue-token" help:"Sign an access token for a player."`
}

type ServeCmd struct {
	Scheduler bool `help:"Start the round scheduler with the server." name:"scheduler"`
}

type DrainCmd struct{}

type CleanupCmd struct{}

type CreateRoundCmd struct {
	At string `help:"RFC 3339 instant, the next full hour when empty." name:"at"`
}

type CreateUserCmd struct {
	Name    string `help:"Player name." required:"" name:"name"`
	Balance string `help:"Starting balance." default:"0" name:"balance"`
}

type IssueTokenCmd struct {
	UserID int `help:"Player ID." required:"" name:"user-id"`
}

func (g *Globals) app() *app.App {
	logger.Init(logger.Options{Debug: g.Debug})
	return app.NewApp(app.Options{EnvPath: g.Env, ConfigPath: g.Config})
}

func (c *ServeCmd) Run(g *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return g.app().Serve(ctx, c.Scheduler)
}

func (c *DrainCmd) Run(g *Globals) error {
	res := g.app().Drain(context.Background())
	logger.Info("Drain finished", "attempted", res.Attempted, "succeeded", res.Succeeded, "failed", res.Failed)
	if res.Failed > 0 {
		return fmt.Errorf("%d of %d rounds failed to settle", res.Failed, res.Attempted)
	}
	return nil
}

func (c *CleanupCmd) Run(g *Globals) error {
	deleted, err := g.app().Cleanup(context.Background())
	if err != nil {
		return err
	}
	logger.Info("Cleanup finished", "deleted", deleted)
	return nil
}

func (c *CreateRoundCmd) Run(g *Globals) error {
	var at *time.Time
	if c.At != "" {
		t, err := time.Parse(time.RFC3339, c.At)
		if err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
		at = &t
	}

	round, err := g.app().CreateRound(context.Background(), at)
	if err != nil {
		return err
	}
	fmt.Println(round.ID, round.ScheduledFor.Format(time.RFC3339))
	return nil
}

func (c *CreateUserCmd) Run(g *Globals) error {
	balance, err := decimal.NewFromString(c.Balance)
	if err != nil {
		return fmt.Errorf("invalid --balance: %w", err)
	}

	id, err := g.app().CreateUser(context.Background(), c.Name, balance)
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func (c *IssueTokenCmd) Run(g *Globals) error {
	signed, err := g.app().IssueToken(c.UserID)
	if err != nil {
		return err
	}
	fmt.Println(signed)
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("roulette"),
		kong.Description("Roulette settlement service: manual spins and scheduled rounds."),
		kong.UsageOnError(),
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
