package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"workspace-platform/internal/auth"
	"workspace-platform/internal/config"
	"workspace-platform/internal/store/postgres"
	"workspace-platform/internal/workspace"
	"workspace-platform/pkg/logger"
	"workspace-platform/pkg/utils"
)

type Globals struct {
	Debug   bool
	Version string
}

// open loads the API's environment and connects to its database.
func (g *Globals) open(ctx context.Context) (*sql.DB, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	env := cfg.App.Env
	if g.Debug {
		env = "dev"
	}
	log := logger.NewTo(os.Stderr, env)

	db, err := utils.OpenPostgres(ctx, cfg.PostgresDSN(), utils.PostgresPoolConfig{MaxOpenConns: 2})
	if err != nil {
		return nil, nil, err
	}
	return db, log, nil
}

type MigrateCmd struct{}

func (m *MigrateCmd) Run(ctx context.Context, g *Globals) error {
	db, log, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	return postgres.Migrate(ctx, db, log)
}

type CreateSuperAdminCmd struct {
	Email    string `help:"Login email" required:""`
	FullName string `help:"Display name" required:""`
	Password string `help:"Initial password (min 12 characters)" required:"" env:"WORKSPACE_ADMIN_PASSWORD"`
}

func (c *CreateSuperAdminCmd) Run(ctx context.Context, g *Globals) error {
	db, log, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	u, err := workspace.CreateSuperAdmin(ctx, postgres.New(db), auth.NewHasher(), workspace.SuperAdminRequest{
		Email:    c.Email,
		Password: c.Password,
		FullName: c.FullName,
	})
	if err != nil {
		return err
	}
	log.Info("super admin created", "user_id", u.ID, "email", u.Email)
	fmt.Println(u.ID)
	return nil
}
