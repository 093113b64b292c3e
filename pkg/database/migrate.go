package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sync"

	"github.com/pressly/goose/v3"
)

var gooseMu sync.Mutex

// MigrationCommands lists the goose commands exposed to operators.
var MigrationCommands = []string{"up", "down", "status", "version"}

// Migrate runs a goose command against the migrations in fsys.
func Migrate(ctx context.Context, db *sql.DB, fsys fs.FS, command string) error {
	run, ok := map[string]func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error{
		"up":      goose.UpContext,
		"down":    goose.DownContext,
		"status":  goose.StatusContext,
		"version": goose.VersionContext,
	}[command]
	if !ok {
		return fmt.Errorf("unknown migration command %q (want one of %v)", command, MigrationCommands)
	}

	// goose keeps its base FS and dialect in package state
	gooseMu.Lock()
	defer gooseMu.Unlock()
	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := run(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate %s: %w", command, err)
	}
	return nil
}
