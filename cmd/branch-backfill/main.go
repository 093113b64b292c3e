package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/noah-isme/preschool-ops-api/internal/cli"
	"github.com/noah-isme/preschool-ops-api/internal/repository"
	"github.com/noah-isme/preschool-ops-api/internal/service"
	"github.com/noah-isme/preschool-ops-api/migrations"
	"github.com/noah-isme/preschool-ops-api/pkg/config"
	"github.com/noah-isme/preschool-ops-api/pkg/database"
	"github.com/noah-isme/preschool-ops-api/pkg/logger"
)

func main() {
	os.Exit(run())
}

// run executes the command and returns the process exit status. Deferred
// cleanup happens here, before main hands the status to os.Exit.
func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.RootCmd(cli.Deps{
		Backfill: newBackfill,
		Migrate:  migrate,
	})
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return cli.ExitCode(err)
}

func newBackfill(ctx context.Context) (cli.BackfillRunner, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		_ = logr.Sync()
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}

	svc := service.NewBackfillService(
		repository.NewSchoolRepository(db),
		repository.NewBranchRepository(db),
		repository.NewBackfillRepository(db),
		nil,
		logr.With(zap.String("component", "branch-backfill")),
	)
	cleanup := func() {
		_ = db.Close()
		_ = logr.Sync()
	}
	return svc, cleanup, nil
}

func migrate(ctx context.Context, command string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	return database.Migrate(ctx, db.DB, migrations.FS, command)
}
