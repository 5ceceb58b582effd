// Command workspacectl is the operator CLI: schema migrations and platform
// super admin provisioning.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

var (
	version = "dev"
	cli     struct {
		Migrate          MigrateCmd          `cmd:"" help:"Apply pending database migrations"`
		CreateSuperAdmin CreateSuperAdminCmd `cmd:"" name:"create-super-admin" help:"Create a platform super admin account"`
		Debug            bool                `help:"Enable debug logging."`
		Version          kong.VersionFlag
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := kong.Parse(&cli,
		kong.Name("workspacectl"),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
