package usecase

import (
	"io"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

type CreateLeadInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// ResumeUpload carries the uploaded file stream plus what the client declared
// about it. Declared values are advisory; the store re-checks everything.
type ResumeUpload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
}

type ListLeadsInput struct {
	Page     int
	PageSize int
	Status   *entity.LeadStatus
}

type LeadPage struct {
	Leads       []*entity.Lead `json:"leads"`
	Total       int            `json:"total"`
	Page        int            `json:"page"`
	PageSize    int            `json:"page_size"`
	TotalPages  int            `json:"total_pages"`
	HasNext     bool           `json:"has_next"`
	HasPrevious bool           `json:"has_previous"`
}
