package service

import (
	"fmt"
	"strconv"

	"github.com/noah-isme/preschool-ops-api/internal/models"
	"github.com/noah-isme/preschool-ops-api/pkg/export"
)

var backfillReportHeaders = []string{"school_id", "school", "branch", "branch_created", "entity", "pending", "updated", "error"}

// BackfillDataset flattens a report into one row per school and entity. Schools
// that failed before any entity was visited still get a row carrying the error.
func BackfillDataset(report *models.BackfillReport) export.Dataset {
	data := export.Dataset{Headers: backfillReportHeaders}
	if report == nil {
		return data
	}
	for _, school := range report.Schools {
		base := map[string]string{
			"school_id":      school.SchoolID,
			"school":         school.SchoolName,
			"branch":         school.BranchName,
			"branch_created": strconv.FormatBool(school.BranchCreated),
		}
		if len(school.Entities) == 0 {
			row := copyRow(base)
			row["error"] = school.Error
			data.Rows = append(data.Rows, row)
			continue
		}
		for i, entity := range school.Entities {
			row := copyRow(base)
			row["entity"] = entity.Entity
			row["pending"] = strconv.Itoa(entity.Pending)
			row["updated"] = strconv.FormatInt(entity.Updated, 10)
			if i == len(school.Entities)-1 {
				row["error"] = school.Error
			}
			data.Rows = append(data.Rows, row)
		}
	}
	return data
}

// BackfillSummary renders the run totals as printable lines.
func BackfillSummary(report *models.BackfillReport) []string {
	if report == nil {
		return nil
	}
	mode := "apply"
	if report.DryRun {
		mode = "dry run"
	}
	lines := []string{
		fmt.Sprintf("Run %s (%s)", report.RunID, mode),
		fmt.Sprintf("Schools processed: %d, failed: %d", report.SchoolsProcessed, report.SchoolsFailed),
		fmt.Sprintf("Branches created: %d", report.BranchesCreated),
		fmt.Sprintf("Records migrated: %d", report.RecordsMigrated),
	}
	if report.Cancelled {
		lines = append(lines, "Run cancelled before all schools were visited")
	}
	return lines
}

// RenderBackfillReport encodes a report as CSV or PDF.
func RenderBackfillReport(report *models.BackfillReport, format export.Format) ([]byte, error) {
	return export.Render(format, BackfillDataset(report), "Branch backfill report", BackfillSummary(report)...)
}

func copyRow(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src)+4)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
