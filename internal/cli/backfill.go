package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/noah-isme/preschool-ops-api/internal/models"
	"github.com/noah-isme/preschool-ops-api/internal/service"
	"github.com/noah-isme/preschool-ops-api/pkg/database"
	"github.com/noah-isme/preschool-ops-api/pkg/export"
	"github.com/noah-isme/preschool-ops-api/pkg/storage"
)

// ErrSchoolsFailed is returned when the run finished but some schools could not be backfilled.
var ErrSchoolsFailed = errors.New("one or more schools failed to backfill")

// Process exit statuses of branch-backfill.
const (
	ExitOK            = 0
	ExitSchoolsFailed = 1
	ExitFatal         = 2
)

// ExitCode maps the result of the root command to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrSchoolsFailed):
		return ExitSchoolsFailed
	default:
		return ExitFatal
	}
}

// BackfillRunner executes one backfill pass.
type BackfillRunner interface {
	Run(ctx context.Context, opts service.BackfillOptions) (*models.BackfillReport, error)
}

// Deps builds the collaborators lazily so --help never touches the database.
type Deps struct {
	// Backfill returns a runner and a cleanup func.
	Backfill func(ctx context.Context) (BackfillRunner, func(), error)
	// Migrate runs a goose command.
	Migrate func(ctx context.Context, command string) error
}

// RootCmd returns the branch-backfill command. Without arguments it runs the backfill.
func RootCmd(deps Deps) *cobra.Command {
	var (
		dryRun     bool
		reportPath string
	)

	cmd := &cobra.Command{
		Use:   "branch-backfill",
		Short: "Assign legacy records of every school to its default branch",
		Long: `Walks every school, resolves its target branch ("Main Branch", created when the
school has none, else the oldest branch) and points every record without a branch at it.

Only rows whose branch is still empty are touched, so the command is safe to run
repeatedly. A school that fails is reported and skipped; the exit status is non-zero
when any school failed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var format export.Format
			if reportPath != "" {
				f, err := export.FormatFromPath(reportPath)
				if err != nil {
					return err
				}
				format = f
			}

			runner, cleanup, err := deps.Backfill(cmd.Context())
			if err != nil {
				return fmt.Errorf("prepare backfill: %w", err)
			}
			defer cleanup()

			report, err := runner.Run(cmd.Context(), service.BackfillOptions{DryRun: dryRun})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			PrintSummary(out, report)

			if reportPath != "" {
				path, err := writeReport(reportPath, format, report)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "\nReport written to %s\n", path)
			}
			if report.Failed() {
				return ErrSchoolsFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be migrated without making changes")
	cmd.Flags().StringVar(&reportPath, "report", "", "Also write the per-school report to this .csv or .pdf file")
	cmd.AddCommand(migrateCmd(deps))
	return cmd
}

func migrateCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status|version]",
		Short:     "Apply the embedded database schema",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: database.MigrationCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}
			return deps.Migrate(cmd.Context(), command)
		},
	}
}

// PrintSummary writes a human readable per-school summary.
func PrintSummary(w io.Writer, report *models.BackfillReport) {
	ok := color.New(color.FgGreen).Sprint("✓")
	failed := color.New(color.FgRed).Sprint("✗")

	if report.DryRun {
		fmt.Fprintln(w, color.New(color.FgYellow).Sprint("[DRY RUN] No changes will be made."))
	}
	for _, school := range report.Schools {
		if school.Error != "" {
			fmt.Fprintf(w, "%s %s (%s): %s\n", failed, school.SchoolName, school.SchoolID, school.Error)
			continue
		}
		branch := school.BranchName
		if school.BranchCreated {
			branch += " " + color.New(color.FgCyan).Sprint("(created)")
		}
		fmt.Fprintf(w, "%s %s -> %s\n", ok, school.SchoolName, branch)
		for _, entity := range school.Entities {
			if entity.Pending == 0 {
				continue
			}
			fmt.Fprintf(w, "    %-18s pending %-6d updated %d\n", entity.Entity, entity.Pending, entity.Updated)
		}
	}

	fmt.Fprintln(w)
	for _, line := range service.BackfillSummary(report) {
		fmt.Fprintln(w, line)
	}
}

func writeReport(path string, format export.Format, report *models.BackfillReport) (string, error) {
	body, err := service.RenderBackfillReport(report, format)
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	store, err := storage.NewLocalStorage(dir)
	if err != nil {
		return "", err
	}
	return store.Save(name, body)
}
