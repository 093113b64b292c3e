package models

// TenantScope identifies the school every query of a request is bound to.
type TenantScope struct {
	SchoolID string `json:"schoolId"`
	Slug     string `json:"slug"`
	Name     string `json:"name"`
}
