package models

import "time"

// LeadStatus is the position of an inquiry in the admissions funnel.
type LeadStatus string

const (
	LeadStatusNew           LeadStatus = "NEW"
	LeadStatusContacted     LeadStatus = "CONTACTED"
	LeadStatusInterested    LeadStatus = "INTERESTED"
	LeadStatusTourScheduled LeadStatus = "TOUR_SCHEDULED"
	LeadStatusEnrolled      LeadStatus = "ENROLLED"
)

// LeadStatusUnknown labels the board column for statuses outside the pipeline.
const LeadStatusUnknown LeadStatus = "UNKNOWN"

// DefaultLeadScore is shown for leads that were never scored.
const DefaultLeadScore = 50

// LeadStages lists the pipeline stages in board order. Any stage may move to any other.
var LeadStages = []LeadStatus{
	LeadStatusNew,
	LeadStatusContacted,
	LeadStatusInterested,
	LeadStatusTourScheduled,
	LeadStatusEnrolled,
}

// Valid reports whether the status is one of the pipeline stages.
func (s LeadStatus) Valid() bool {
	for _, stage := range LeadStages {
		if s == stage {
			return true
		}
	}
	return false
}

// Lead is a prospective-student inquiry.
type Lead struct {
	ID                string     `db:"id" json:"id"`
	SchoolID          string     `db:"school_id" json:"school_id"`
	PreferredBranchID *string    `db:"preferred_branch_id" json:"preferred_branch_id,omitempty"`
	ParentName        string     `db:"parent_name" json:"parent_name"`
	ChildName         string     `db:"child_name" json:"child_name"`
	Source            string     `db:"source" json:"source"`
	Status            LeadStatus `db:"status" json:"status"`
	Score             *int       `db:"score" json:"score,omitempty"`
	Phone             *string    `db:"phone" json:"phone,omitempty"`
	Email             *string    `db:"email" json:"email,omitempty"`
	Notes             *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// EffectiveScore returns the stored score clamped to [0,100], or DefaultLeadScore when unset.
func (l Lead) EffectiveScore() int {
	if l.Score == nil {
		return DefaultLeadScore
	}
	switch score := *l.Score; {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}

// LeadUpdate lists the mutable lead columns; nil fields are left untouched.
type LeadUpdate struct {
	Status            *LeadStatus
	Score             *int
	ParentName        *string
	ChildName         *string
	Source            *string
	Phone             *string
	Email             *string
	Notes             *string
	PreferredBranchID *string
}

// Empty reports whether no column would change.
func (u LeadUpdate) Empty() bool {
	return u.Status == nil && u.Score == nil && u.ParentName == nil && u.ChildName == nil &&
		u.Source == nil && u.Phone == nil && u.Email == nil && u.Notes == nil && u.PreferredBranchID == nil
}
