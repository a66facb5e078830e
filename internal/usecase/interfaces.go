package usecase

import (
	"context"
	"io"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
)

type LeadRepositoryInterface interface {
	Create(ctx context.Context, lead *entity.Lead) error
	GetByID(ctx context.Context, id string) (*entity.Lead, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, offset, limit int) ([]*entity.Lead, int, error)
	ListByStatus(ctx context.Context, status entity.LeadStatus, offset, limit int) ([]*entity.Lead, int, error)
	CountByStatus(ctx context.Context, status entity.LeadStatus) (int, error)
	UpdateStatus(ctx context.Context, lead *entity.Lead) error
	Delete(ctx context.Context, id string) error
}

type ResumeStoreInterface interface {
	Store(ctx context.Context, r io.Reader, declaredName, declaredType string) (string, error)
	Delete(ctx context.Context, key string) (bool, error)
	Resolve(key string) (string, error)
	Exists(key string) bool
}

type EmailService interface {
	SendProspectConfirmation(ctx context.Context, to, prospectName, leadID string) error
	SendTeamAlert(ctx context.Context, leadID, prospectName, prospectEmail, resumeKey string) error
}

type LeadEventPublisher interface {
	PublishLeadCreated(ctx context.Context, payload queue.LeadCreatedPayload) error
}
