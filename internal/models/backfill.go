package models

import "time"

// ParentRelation links a record without a school_id to the parent row that has one.
type ParentRelation struct {
	ForeignKey  string
	ParentTable string
}

// BranchScope describes how one entity is tied to a branch.
type BranchScope struct {
	Entity string
	Table  string
	// Column is the nullable branch reference that the backfill populates.
	Column string
	// Via is set for entities whose school is only reachable through a parent row.
	Via *ParentRelation
}

// Indirect reports whether tenant ownership must be resolved through Via.
func (s BranchScope) Indirect() bool {
	return s.Via != nil
}

// BranchScopes is the fixed table of branch-scoped entities, in backfill order.
var BranchScopes = []BranchScope{
	{Entity: "student", Table: "students", Column: "branch_id"},
	{Entity: "classroom", Table: "classrooms", Column: "branch_id"},
	{Entity: "admission", Table: "admissions", Column: "branch_id"},
	{Entity: "library_book", Table: "library_books", Column: "branch_id"},
	{Entity: "transport_vehicle", Table: "transport_vehicles", Column: "branch_id"},
	{Entity: "transport_route", Table: "transport_routes", Column: "branch_id"},
	{Entity: "fee", Table: "fees", Column: "branch_id", Via: &ParentRelation{ForeignKey: "student_id", ParentTable: "students"}},
	{Entity: "staff_attendance", Table: "staff_attendance", Column: "branch_id", Via: &ParentRelation{ForeignKey: "user_id", ParentTable: "users"}},
	{Entity: "lead", Table: "leads", Column: "preferred_branch_id"},
}

// EntityBackfill is the outcome for one entity within one school.
type EntityBackfill struct {
	Entity  string `json:"entity"`
	Pending int    `json:"pending"`
	Updated int64  `json:"updated"`
}

// SchoolBackfill is the outcome for one school.
type SchoolBackfill struct {
	SchoolID      string           `json:"schoolId"`
	SchoolName    string           `json:"schoolName"`
	BranchID      string           `json:"branchId,omitempty"`
	BranchName    string           `json:"branchName,omitempty"`
	BranchCreated bool             `json:"branchCreated"`
	Entities      []EntityBackfill `json:"entities"`
	Error         string           `json:"error,omitempty"`
}

// Updated sums the rows written for the school.
func (s SchoolBackfill) Updated() int64 {
	var total int64
	for _, e := range s.Entities {
		total += e.Updated
	}
	return total
}

// BackfillReport summarises a full backfill run.
type BackfillReport struct {
	RunID            string           `json:"runId"`
	DryRun           bool             `json:"dryRun"`
	StartedAt        time.Time        `json:"startedAt"`
	FinishedAt       time.Time        `json:"finishedAt"`
	Schools          []SchoolBackfill `json:"schools"`
	SchoolsProcessed int              `json:"schoolsProcessed"`
	SchoolsFailed    int              `json:"schoolsFailed"`
	BranchesCreated  int              `json:"branchesCreated"`
	RecordsMigrated  int64            `json:"recordsMigrated"`
	// Cancelled is set when the context ended before every school was visited.
	Cancelled bool `json:"cancelled"`
}

// Failed reports whether any school could not be backfilled.
func (r *BackfillReport) Failed() bool {
	return r != nil && (r.SchoolsFailed > 0 || r.Cancelled)
}
