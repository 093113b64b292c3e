package dto

// CreateBranchRequest registers a new campus for the current school.
type CreateBranchRequest struct {
	Name string `json:"name" validate:"required,min=2,max=120"`
}
