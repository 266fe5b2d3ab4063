package server

import (
	"context"
	"fmt"
	"time"

	"github.com/devinmiller/Identity/internal/config"
	"github.com/devinmiller/Identity/internal/domain/repository"
	"github.com/devinmiller/Identity/internal/observability/logger"
	"github.com/devinmiller/Identity/internal/security/password"
	"github.com/devinmiller/Identity/internal/store/memory"
	"github.com/devinmiller/Identity/internal/store/pg"
	"github.com/devinmiller/Identity/internal/util"
	migrations "github.com/devinmiller/Identity/migrations/postgres"
)

type stores struct {
	clients repository.ClientRepository
	users   repository.UserRepository
	ping    func(context.Context) error
	close   func() error
}

func buildStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		return buildPostgres(ctx, cfg)
	default:
		return buildMemory(ctx, cfg)
	}
}

func buildMemory(ctx context.Context, cfg *config.Config) (*stores, error) {
	users := memory.NewUsers(password.Default)
	for _, u := range cfg.Users {
		var err error
		if u.PasswordHash != "" {
			_, err = users.Seed(u.Username, u.Email, u.PasswordHash)
		} else {
			_, err = users.Create(ctx, repository.CreateUserInput{Username: u.Username, Email: u.Email, Password: u.Password})
		}
		if err != nil {
			return nil, fmt.Errorf("seed user %q: %w", u.Username, err)
		}
	}
	return &stores{
		clients: memory.NewClients(clientPolicies(cfg.Clients)),
		users:   users,
	}, nil
}

func buildPostgres(ctx context.Context, cfg *config.Config) (*stores, error) {
	log := logger.From(ctx).With(logger.Component("store.pg"))

	db, err := pg.New(ctx, pg.Config{
		DSN:             cfg.Storage.DSN,
		MaxConns:        cfg.Storage.Postgres.MaxConns,
		ConnMaxLifetime: config.DurationOr(cfg.Storage.Postgres.ConnMaxLifetime, 30*time.Minute),
	})
	if err != nil {
		return nil, fmt.Errorf("postgres %s: %w", util.MaskDSN(cfg.Storage.DSN), err)
	}
	log.Info("postgres connected", logger.String("dsn", util.MaskDSN(cfg.Storage.DSN)))
	fail := func(err error) (*stores, error) {
		db.Close()
		return nil, err
	}

	res, err := pg.NewMigrator(migrations.FS, ".").Run(ctx, db.Pool())
	if err != nil {
		return fail(fmt.Errorf("migrate: %w", err))
	}
	log.Info("migrations applied", logger.Int("applied", len(res.Applied)), logger.Int("skipped", len(res.Skipped)))

	clients := db.Clients()
	for _, c := range clientPolicies(cfg.Clients) {
		if err := clients.Upsert(ctx, c); err != nil {
			return fail(fmt.Errorf("upsert client %q: %w", c.ClientID, err))
		}
	}

	users := db.Users(func(plain string) (string, error) {
		return password.Hash(password.Default, plain)
	}, password.Verify)
	for _, u := range cfg.Users {
		if u.PasswordHash != "" {
			_, err = users.Insert(ctx, u.Username, u.Email, u.PasswordHash)
		} else {
			_, err = users.Create(ctx, repository.CreateUserInput{Username: u.Username, Email: u.Email, Password: u.Password})
		}
		// re-seed en cada arranque: el usuario ya existente no es error
		if err != nil && !repository.IsConflict(err) {
			return fail(fmt.Errorf("seed user %q: %w", u.Username, err))
		}
	}

	return &stores{
		clients: clients,
		users:   users,
		ping:    db.Ping,
		close: func() error {
			db.Close()
			return nil
		},
	}, nil
}
