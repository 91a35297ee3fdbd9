// Command billingctl runs maintenance tasks: migrations, fixtures, admin
// accounts and the batch mail jobs.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/study-on/billing/internal/app"
	"github.com/study-on/billing/internal/config"
	"github.com/study-on/billing/internal/fixtures"
	"github.com/study-on/billing/internal/pkg/postgres"
	"github.com/study-on/billing/migrations"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Getenv(config.EnvPrefix + "CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	app.InitLogger(cfg.Log)

	cli := &commandLine{
		migrate: func(direction postgres.MigrateDirection) error {
			return postgres.Migrate(cfg.Database.URL, migrations.FS, direction)
		},
		open: func() (tasks, func(), error) {
			db, err := app.Connect(cfg)
			if err != nil {
				return nil, nil, err
			}
			services := app.NewServices(cfg, db)
			runner, err := app.NewJobRunner(cfg, services)
			if err != nil {
				db.Close()
				return nil, nil, err
			}
			t := &serviceTasks{
				services: services,
				runner:   runner,
				loader:   fixtures.NewLoader(services.Identity, services.Catalog, services.Billing),
			}
			return t, db.Close, nil
		},
		out: os.Stdout,
	}

	if err := cli.run(ctx, os.Args); err != nil {
		if !errors.Is(err, errHelp) {
			slog.Error("command failed", "error", err)
		}
		os.Exit(1)
	}
}
