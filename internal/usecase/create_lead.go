package usecase

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/mail"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
	"github.com/xavierca1/ligue-leads/internal/infra/storage"
)

type CreateLeadUseCase struct {
	Repo   LeadRepositoryInterface
	Store  ResumeStoreInterface
	Email  EmailService
	Events LeadEventPublisher // optional, nil disables event publishing
	Logger *zap.Logger
}

func NewCreateLeadUseCase(
	repo LeadRepositoryInterface,
	store ResumeStoreInterface,
	email EmailService,
	events LeadEventPublisher,
	logger *zap.Logger,
) *CreateLeadUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreateLeadUseCase{
		Repo:   repo,
		Store:  store,
		Email:  email,
		Events: events,
		Logger: logger,
	}
}

// Execute runs the full lead-creation saga: duplicate check, resume storage,
// record creation and the two notifications. Any failure past the duplicate
// check compensates the completed steps in reverse order, so a failed call
// leaves no file and no record behind.
func (uc *CreateLeadUseCase) Execute(ctx context.Context, input CreateLeadInput, resume ResumeUpload) (*entity.Lead, error) {
	if validationErrors := ValidateCreateLeadInput(input, resume); len(validationErrors) > 0 {
		msgs := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			msgs = append(msgs, e.Error())
		}
		return nil, &DomainError{
			Code:    CodeValidation,
			Message: "validation failed: " + strings.Join(msgs, ", "),
		}
	}

	email := NormalizeEmail(input.Email)

	// Advisory pre-check. The unique constraint on the leads table is the
	// real arbiter; two racing submissions both passing here still end with
	// exactly one created record.
	exists, err := uc.Repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, &TechnicalError{
			Code:    CodeInternal,
			Message: "failed to check for existing lead",
			Err:     err,
		}
	}
	if exists {
		return nil, duplicateLeadError(email)
	}

	var (
		lead      *entity.Lead
		resumeKey string
	)

	txn := NewTransaction(uc.Logger)

	txn.AddStep(SagaStep{
		Name: "store_resume",
		Run: func(ctx context.Context) error {
			key, err := uc.Store.Store(ctx, resume.Reader, resume.Filename, resume.ContentType)
			if err != nil {
				return mapStorageError(err)
			}
			resumeKey = key
			return nil
		},
		Compensate: func(ctx context.Context) error {
			_, err := uc.Store.Delete(ctx, resumeKey)
			return err
		},
	})

	txn.AddStep(SagaStep{
		Name: "create_lead_record",
		Run: func(ctx context.Context) error {
			created, err := entity.NewLead(
				SanitizeName(input.FirstName),
				SanitizeName(input.LastName),
				email,
				resumeKey,
			)
			if err != nil {
				return &DomainError{Code: CodeValidation, Message: err.Error()}
			}

			if err := uc.Repo.Create(ctx, created); err != nil {
				if errors.Is(err, entity.ErrEmailAlreadyExists) {
					return duplicateLeadError(email)
				}
				return &TechnicalError{
					Code:    CodeInternal,
					Message: "failed to persist lead",
					Err:     err,
				}
			}

			lead = created
			return nil
		},
		Compensate: func(ctx context.Context) error {
			return uc.Repo.Delete(ctx, lead.ID)
		},
	})

	txn.AddStep(SagaStep{
		Name: "send_prospect_confirmation",
		Run: func(ctx context.Context) error {
			if err := uc.Email.SendProspectConfirmation(ctx, lead.Email, lead.FullName(), lead.ID); err != nil {
				return mapNotificationError(err)
			}
			return nil
		},
	})

	txn.AddStep(SagaStep{
		Name: "send_team_alert",
		Run: func(ctx context.Context) error {
			if err := uc.Email.SendTeamAlert(ctx, lead.ID, lead.FullName(), lead.Email, lead.ResumeKey); err != nil {
				return mapNotificationError(err)
			}
			return nil
		},
	})

	if err := txn.Execute(ctx); err != nil {
		return nil, err
	}

	uc.publishCreated(ctx, lead)

	return lead, nil
}

// publishCreated is best effort; the saga already succeeded and a missing
// event never fails the submission.
func (uc *CreateLeadUseCase) publishCreated(ctx context.Context, lead *entity.Lead) {
	if uc.Events == nil {
		return
	}

	payload := queue.LeadCreatedPayload{
		LeadID:    lead.ID,
		FirstName: lead.FirstName,
		LastName:  lead.LastName,
		Email:     lead.Email,
		ResumeKey: lead.ResumeKey,
		CreatedAt: lead.CreatedAt,
	}

	if err := uc.Events.PublishLeadCreated(ctx, payload); err != nil {
		uc.Logger.Warn("failed to publish lead.created event",
			zap.String("lead_id", lead.ID),
			zap.Error(err),
		)
	}
}

func duplicateLeadError(email string) *DomainError {
	return &DomainError{
		Code:    CodeDuplicateLead,
		Message: "a lead with email " + email + " already exists",
	}
}

func mapStorageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrFileTooLarge):
		return &DomainError{Code: CodeFileTooLarge, Message: "resume exceeds the maximum allowed size"}
	case errors.Is(err, storage.ErrUnsupportedFileType):
		return &DomainError{Code: CodeValidation, Message: "resume must be a PDF, DOC or DOCX file"}
	case errors.Is(err, storage.ErrInvalidKey):
		return &DomainError{Code: CodeInvalidFileKey, Message: "invalid resume reference"}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return &TechnicalError{Code: CodeInternal, Message: "failed to store resume", Err: err}
	}
}

func mapNotificationError(err error) error {
	var deliveryErr *mail.DeliveryError

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, mail.ErrRenderFailed):
		return &TechnicalError{
			Code:    CodeRenderFailed,
			Message: "failed to render notification email",
			Err:     err,
		}
	case errors.As(err, &deliveryErr):
		return &TechnicalError{
			Code:    CodeDeliveryFailed,
			Message: "failed to deliver notification email",
			Err:     err,
		}
	default:
		return &TechnicalError{
			Code:    CodeNotificationFailed,
			Message: "failed to send notification email",
			Err:     err,
		}
	}
}
