package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// LeadService covers the dashboard-facing flows: read, list, status updates,
// deletion and resume download resolution.
type LeadService struct {
	Repo   LeadRepositoryInterface
	Store  ResumeStoreInterface
	Policy entity.StatusPolicy
	Logger *zap.Logger
}

func NewLeadService(repo LeadRepositoryInterface, store ResumeStoreInterface, policy entity.StatusPolicy, logger *zap.Logger) *LeadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeadService{
		Repo:   repo,
		Store:  store,
		Policy: policy,
		Logger: logger,
	}
}

func (s *LeadService) GetLead(ctx context.Context, id string) (*entity.Lead, error) {
	lead, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err, id)
	}
	return lead, nil
}

func (s *LeadService) ListLeads(ctx context.Context, input ListLeadsInput) (*LeadPage, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.PageSize < 1 || input.PageSize > 100 {
		input.PageSize = 20
	}

	offset := (input.Page - 1) * input.PageSize

	var (
		leads []*entity.Lead
		total int
		err   error
	)
	if input.Status != nil {
		leads, total, err = s.Repo.ListByStatus(ctx, *input.Status, offset, input.PageSize)
	} else {
		leads, total, err = s.Repo.List(ctx, offset, input.PageSize)
	}
	if err != nil {
		return nil, &TechnicalError{Code: CodeInternal, Message: "failed to list leads", Err: err}
	}

	totalPages := (total + input.PageSize - 1) / input.PageSize

	return &LeadPage{
		Leads:       leads,
		Total:       total,
		Page:        input.Page,
		PageSize:    input.PageSize,
		TotalPages:  totalPages,
		HasNext:     input.Page < totalPages,
		HasPrevious: input.Page > 1,
	}, nil
}

// UpdateLeadStatus validates the transition through the state machine and
// persists the result. Re-applying the current status is rejected as a no-op
// without touching updated_at.
func (s *LeadService) UpdateLeadStatus(ctx context.Context, id string, newStatus entity.LeadStatus) (*entity.Lead, error) {
	lead, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err, id)
	}

	if err := lead.Transition(newStatus, s.Policy, time.Now().UTC()); err != nil {
		switch {
		case errors.Is(err, entity.ErrNoOpTransition):
			return nil, &DomainError{Code: CodeNoOpTransition, Message: err.Error()}
		case errors.Is(err, entity.ErrInvalidTransition):
			return nil, &DomainError{Code: CodeInvalidTransition, Message: err.Error()}
		default:
			return nil, &TechnicalError{Code: CodeInternal, Message: "failed to apply status", Err: err}
		}
	}

	if err := s.Repo.UpdateStatus(ctx, lead); err != nil {
		return nil, mapRepositoryError(err, id)
	}

	return lead, nil
}

// DeleteLead removes the record and releases the resume file. The record is
// authoritative; a failed file removal is logged and does not block deletion.
func (s *LeadService) DeleteLead(ctx context.Context, id string) error {
	lead, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return mapRepositoryError(err, id)
	}

	if err := s.Repo.Delete(ctx, id); err != nil {
		return mapRepositoryError(err, id)
	}

	if _, err := s.Store.Delete(ctx, lead.ResumeKey); err != nil {
		s.Logger.Warn("failed to delete resume file for removed lead",
			zap.String("lead_id", id),
			zap.String("resume_key", lead.ResumeKey),
			zap.Error(err),
		)
	}

	return nil
}

// ResolveResume returns the on-disk path and storage key for a lead's resume.
func (s *LeadService) ResolveResume(ctx context.Context, id string) (string, string, error) {
	lead, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return "", "", mapRepositoryError(err, id)
	}

	path, err := s.Store.Resolve(lead.ResumeKey)
	if err != nil {
		return "", "", &DomainError{Code: CodeInvalidFileKey, Message: "invalid resume reference"}
	}

	if !s.Store.Exists(lead.ResumeKey) {
		return "", "", &DomainError{Code: CodeNotFound, Message: "resume file not found"}
	}

	return path, lead.ResumeKey, nil
}

func (s *LeadService) CountByStatus(ctx context.Context) (map[entity.LeadStatus]int, error) {
	counts := make(map[entity.LeadStatus]int, 2)
	for _, status := range []entity.LeadStatus{entity.StatusPending, entity.StatusContactedOut} {
		n, err := s.Repo.CountByStatus(ctx, status)
		if err != nil {
			return nil, &TechnicalError{Code: CodeInternal, Message: "failed to count leads", Err: err}
		}
		counts[status] = n
	}
	return counts, nil
}

func mapRepositoryError(err error, id string) error {
	if errors.Is(err, entity.ErrLeadNotFound) {
		return &DomainError{Code: CodeNotFound, Message: "lead " + id + " not found"}
	}
	return &TechnicalError{Code: CodeInternal, Message: "lead storage failure", Err: err}
}
