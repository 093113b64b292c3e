package dto

import "time"

// LeadItem is the board-facing projection of a lead. Score is always populated.
type LeadItem struct {
	ID                string    `json:"id"`
	ParentName        string    `json:"parentName"`
	ChildName         string    `json:"childName"`
	Status            string    `json:"status"`
	Score             int       `json:"score"`
	Source            string    `json:"source"`
	Phone             *string   `json:"phone,omitempty"`
	Email             *string   `json:"email,omitempty"`
	Notes             *string   `json:"notes,omitempty"`
	PreferredBranchID *string   `json:"preferredBranchId,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// LeadColumn groups leads sharing a status.
type LeadColumn struct {
	Status string     `json:"status"`
	Count  int        `json:"count"`
	Leads  []LeadItem `json:"leads"`
}

// LeadBoard is the kanban view: the five stages in order, plus an UNKNOWN
// column only when stray statuses exist.
type LeadBoard struct {
	Columns []LeadColumn `json:"columns"`
	Total   int          `json:"total"`
}

// CreateLeadRequest captures a new inquiry.
type CreateLeadRequest struct {
	ParentName        string  `json:"parentName" validate:"required,max=160"`
	ChildName         string  `json:"childName" validate:"required,max=160"`
	Source            string  `json:"source" validate:"required,max=64"`
	Phone             *string `json:"phone" validate:"omitempty,max=32"`
	Email             *string `json:"email" validate:"omitempty,email"`
	Notes             *string `json:"notes"`
	PreferredBranchID *string `json:"preferredBranchId"`
}

// UpdateLeadRequest carries a partial lead update; omitted fields are unchanged.
type UpdateLeadRequest struct {
	Status            *string `json:"status" validate:"omitempty,oneof=NEW CONTACTED INTERESTED TOUR_SCHEDULED ENROLLED"`
	Score             *int    `json:"score" validate:"omitempty,min=0,max=100"`
	ParentName        *string `json:"parentName" validate:"omitempty,max=160"`
	ChildName         *string `json:"childName" validate:"omitempty,max=160"`
	Source            *string `json:"source" validate:"omitempty,max=64"`
	Phone             *string `json:"phone" validate:"omitempty,max=32"`
	Email             *string `json:"email" validate:"omitempty,email"`
	Notes             *string `json:"notes"`
	PreferredBranchID *string `json:"preferredBranchId"`
}

// UpdateLeadStatusRequest moves a lead to another column.
type UpdateLeadStatusRequest struct {
	Status string `json:"status" validate:"required"`
}
