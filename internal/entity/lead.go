package entity

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmailAlreadyExists = errors.New("a lead with this email already exists")
	ErrLeadNotFound       = errors.New("lead not found")
)

type LeadStatus string

const (
	StatusPending      LeadStatus = "PENDING"
	StatusContactedOut LeadStatus = "CONTACTED_OUT"
)

func (s LeadStatus) String() string { return string(s) }

func (s LeadStatus) IsValid() bool {
	return s == StatusPending || s == StatusContactedOut
}

func ParseLeadStatus(s string) (LeadStatus, error) {
	st := LeadStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", errors.New("invalid lead status: " + s)
	}
	return st, nil
}

type Lead struct {
	ID          string     `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email"`
	ResumeKey   string     `json:"resume_key"`
	Status      LeadStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ContactedAt *time.Time `json:"contacted_at,omitempty"`
}

// Factory
func NewLead(firstName, lastName, email, resumeKey string) (*Lead, error) {
	now := time.Now().UTC()

	lead := &Lead{
		ID:        uuid.New().String(),
		FirstName: firstName,
		LastName:  lastName,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		ResumeKey: resumeKey,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := lead.Validate(); err != nil {
		return nil, err
	}

	return lead, nil
}

func (l *Lead) Validate() error {
	if l.FirstName == "" {
		return errors.New("first name is required")
	}
	if l.LastName == "" {
		return errors.New("last name is required")
	}
	if l.Email == "" {
		return errors.New("email is required")
	}
	if l.ResumeKey == "" {
		return errors.New("resume key is required")
	}
	return nil
}

func (l *Lead) FullName() string {
	return l.FirstName + " " + l.LastName
}
