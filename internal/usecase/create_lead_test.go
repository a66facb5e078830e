package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/mail"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
	"github.com/xavierca1/ligue-leads/internal/infra/storage"
)

// MockLeadRepository
type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

func (m *MockLeadRepository) GetByID(ctx context.Context, id string) (*entity.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockLeadRepository) List(ctx context.Context, offset, limit int) ([]*entity.Lead, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*entity.Lead), args.Int(1), args.Error(2)
}

func (m *MockLeadRepository) ListByStatus(ctx context.Context, status entity.LeadStatus, offset, limit int) ([]*entity.Lead, int, error) {
	args := m.Called(ctx, status, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*entity.Lead), args.Int(1), args.Error(2)
}

func (m *MockLeadRepository) CountByStatus(ctx context.Context, status entity.LeadStatus) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

func (m *MockLeadRepository) UpdateStatus(ctx context.Context, lead *entity.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

func (m *MockLeadRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendProspectConfirmation(ctx context.Context, to, prospectName, leadID string) error {
	args := m.Called(ctx, to, prospectName, leadID)
	return args.Error(0)
}

func (m *MockEmailService) SendTeamAlert(ctx context.Context, leadID, prospectName, prospectEmail, resumeKey string) error {
	args := m.Called(ctx, leadID, prospectName, prospectEmail, resumeKey)
	return args.Error(0)
}

// MockEventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishLeadCreated(ctx context.Context, payload queue.LeadCreatedPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

// FakeResumeStore keeps blobs in memory so tests can assert there are no
// orphans after a failed saga.
type FakeResumeStore struct {
	files    map[string][]byte
	storeErr error
}

func NewFakeResumeStore() *FakeResumeStore {
	return &FakeResumeStore{files: map[string][]byte{}}
}

func (f *FakeResumeStore) Store(ctx context.Context, r io.Reader, declaredName, declaredType string) (string, error) {
	if f.storeErr != nil {
		return "", f.storeErr
	}
	contents, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	key := "fake-" + declaredName
	f.files[key] = contents
	return key, nil
}

func (f *FakeResumeStore) Delete(ctx context.Context, key string) (bool, error) {
	if _, ok := f.files[key]; !ok {
		return false, nil
	}
	delete(f.files, key)
	return true, nil
}

func (f *FakeResumeStore) Resolve(key string) (string, error) {
	return "/uploads/" + key, nil
}

func (f *FakeResumeStore) Exists(key string) bool {
	_, ok := f.files[key]
	return ok
}

func validInput() CreateLeadInput {
	return CreateLeadInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "Ada@Example.com",
	}
}

func validResume() ResumeUpload {
	return ResumeUpload{
		Reader:      strings.NewReader("%PDF-1.4 fake resume body"),
		Filename:    "resume.pdf",
		ContentType: "application/pdf",
	}
}

func TestCreateLeadSuccess(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockLeadRepository)
	mockEmail := new(MockEmailService)
	mockEvents := new(MockEventPublisher)
	store := NewFakeResumeStore()

	mockRepo.On("ExistsByEmail", ctx, "ada@example.com").Return(false, nil)
	mockRepo.On("Create", ctx, mock.Anything).Return(nil)
	mockEmail.On("SendProspectConfirmation", mock.Anything, "ada@example.com", "Ada Lovelace", mock.Anything).Return(nil)
	mockEmail.On("SendTeamAlert", mock.Anything, mock.Anything, "Ada Lovelace", "ada@example.com", "fake-resume.pdf").Return(nil)
	mockEvents.On("PublishLeadCreated", mock.Anything, mock.Anything).Return(nil)

	uc := NewCreateLeadUseCase(mockRepo, store, mockEmail, mockEvents, nil)

	lead, err := uc.Execute(ctx, validInput(), validResume())

	require.NoError(t, err)
	require.NotNil(t, lead)
	assert.Equal(t, entity.StatusPending, lead.Status)
	assert.Equal(t, "ada@example.com", lead.Email)
	assert.Equal(t, "fake-resume.pdf", lead.ResumeKey)
	assert.True(t, store.Exists("fake-resume.pdf"))

	mockEmail.AssertNumberOfCalls(t, "SendProspectConfirmation", 1)
	mockEmail.AssertNumberOfCalls(t, "SendTeamAlert", 1)
	mockEvents.AssertNumberOfCalls(t, "PublishLeadCreated", 1)
	mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestCreateLeadValidationFailure(t *testing.T) {
	uc := NewCreateLeadUseCase(new(MockLeadRepository), NewFakeResumeStore(), new(MockEmailService), nil, nil)

	_, err := uc.Execute(context.Background(), CreateLeadInput{Email: "ada@example.com"}, validResume())

	de, ok := AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, CodeValidation, de.Code)
}

func TestCreateLeadDuplicatePreCheck(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockLeadRepository)
	store := NewFakeResumeStore()

	mockRepo.On("ExistsByEmail", ctx, "ada@example.com").Return(true, nil)

	uc := NewCreateLeadUseCase(mockRepo, store, new(MockEmailService), nil, nil)

	_, err := uc.Execute(ctx, validInput(), validResume())

	de, ok := AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, CodeDuplicateLead, de.Code)

	// Nothing was stored for the failed attempt.
	assert.Empty(t, store.files)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateLeadRaceLostOnUniqueConstraint(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockLeadRepository)
	store := NewFakeResumeStore()

	// Both racers pass the advisory check; this one loses at the insert.
	mockRepo.On("ExistsByEmail", ctx, "ada@example.com").Return(false, nil)
	mockRepo.On("Create", ctx, mock.Anything).Return(entity.ErrEmailAlreadyExists)

	uc := NewCreateLeadUseCase(mockRepo, store, new(MockEmailService), nil, nil)

	_, err := uc.Execute(ctx, validInput(), validResume())

	de, ok := AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, CodeDuplicateLead, de.Code)

	// The already-written artifact was compensated.
	assert.Empty(t, store.files)
	mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestCreateLeadFileTooLarge(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockLeadRepository)
	store := NewFakeResumeStore()
	store.storeErr = storage.ErrFileTooLarge

	mockRepo.On("ExistsByEmail", ctx, "ada@example.com").Return(false, nil)

	uc := NewCreateLeadUseCase(mockRepo, store, new(MockEmailService), nil, nil)

	_, err := uc.Execute(ctx, validInput(), validResume())

	de, ok := AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, CodeFileTooLarge, de.Code)

	assert.Empty(t, store.files)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateLeadUnsupportedFileType(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockLeadRepository)
	store := NewFakeResumeStore()
	store.storeErr = storage.ErrUnsupportedFileType

	mockRepo.On("ExistsByEmail", ctx, "ada@example.com").Return(false, nil)

	uc := NewCreateLeadUseCase(mockRepo, store, new(MockEmailService), nil, nil)

	_, err := uc.Execute(ctx, validInput(), validResume())

	de, ok := AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, CodeValidation, de.Code)
}

func TestCreateLeadConfirmationFailureCompensatesEverything(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockLeadRepository)
	mockEmail := new(MockEmailService)
	store := NewFakeResumeStore()

	var createdID string
	mockRepo.On("ExistsByEmail", ctx, "ada@example.com").Return(false, nil)
	mockRepo.On("Create", ctx, mock.Anything).Run(func(args mock.Arguments) {
		createdID = args.Get(1).(*entity.Lead).ID
	}).Return(nil)
	mockRepo.On("Delete", mock.Anything, mock.Anything).Return(nil)
	mockEmail.On("SendProspectConfirmation", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&mail.DeliveryError{Attempts: 3, Err: errors.New("smtp down")})

	uc := NewCreateLeadUseCase(mockRepo, store, mockEmail, nil, nil)

	_, err := uc.Execute(ctx, validInput(), validResume())

	te, ok := AsTechnicalError(err)
	require.True(t, ok)
	assert.Equal(t, CodeDeliveryFailed, te.Code)

	// Record and file both rolled back, alert never attempted.
	mockRepo.AssertCalled(t, "Delete", mock.Anything, createdID)
	assert.Empty(t, store.files)
	mockEmail.AssertNotCalled(t, "SendTeamAlert", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateLeadTeamAlertFailureCompensatesEverything(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockLeadRepository)
	mockEmail := new(MockEmailService)
	store := NewFakeResumeStore()

	mockRepo.On("ExistsByEmail", ctx, "ada@example.com").Return(false, nil)
	mockRepo.On("Create", ctx, mock.Anything).Return(nil)
	mockRepo.On("Delete", mock.Anything, mock.Anything).Return(nil)
	mockEmail.On("SendProspectConfirmation", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	mockEmail.On("SendTeamAlert", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("relay rejected message"))

	uc := NewCreateLeadUseCase(mockRepo, store, mockEmail, nil, nil)

	_, err := uc.Execute(ctx, validInput(), validResume())

	te, ok := AsTechnicalError(err)
	require.True(t, ok)
	assert.Equal(t, CodeNotificationFailed, te.Code)

	mockRepo.AssertCalled(t, "Delete", mock.Anything, mock.Anything)
	assert.Empty(t, store.files)
}

func TestCreateLeadRenderFailureIsNotRetriedAndCompensates(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockLeadRepository)
	mockEmail := new(MockEmailService)
	store := NewFakeResumeStore()

	mockRepo.On("ExistsByEmail", ctx, "ada@example.com").Return(false, nil)
	mockRepo.On("Create", ctx, mock.Anything).Return(nil)
	mockRepo.On("Delete", mock.Anything, mock.Anything).Return(nil)
	mockEmail.On("SendProspectConfirmation", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(mail.ErrRenderFailed)

	uc := NewCreateLeadUseCase(mockRepo, store, mockEmail, nil, nil)

	_, err := uc.Execute(ctx, validInput(), validResume())

	te, ok := AsTechnicalError(err)
	require.True(t, ok)
	assert.Equal(t, CodeRenderFailed, te.Code)
	assert.Empty(t, store.files)
}

func TestCreateLeadEventPublishFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockLeadRepository)
	mockEmail := new(MockEmailService)
	mockEvents := new(MockEventPublisher)
	store := NewFakeResumeStore()

	mockRepo.On("ExistsByEmail", ctx, "ada@example.com").Return(false, nil)
	mockRepo.On("Create", ctx, mock.Anything).Return(nil)
	mockEmail.On("SendProspectConfirmation", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	mockEmail.On("SendTeamAlert", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	mockEvents.On("PublishLeadCreated", mock.Anything, mock.Anything).Return(errors.New("broker unavailable"))

	uc := NewCreateLeadUseCase(mockRepo, store, mockEmail, mockEvents, nil)

	lead, err := uc.Execute(ctx, validInput(), validResume())

	require.NoError(t, err)
	assert.NotNil(t, lead)
	assert.True(t, store.Exists(lead.ResumeKey))
}

func TestCreateLeadCanonicalizesDecoratedEmail(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockLeadRepository)
	mockEmail := new(MockEmailService)
	store := NewFakeResumeStore()

	var created *entity.Lead
	// The duplicate check and the stored identifier both use the bare mailbox,
	// so a name-addr submission cannot sidestep uniqueness.
	mockRepo.On("ExistsByEmail", ctx, "ada@example.com").Return(false, nil)
	mockRepo.On("Create", ctx, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).(*entity.Lead)
	}).Return(nil)
	mockEmail.On("SendProspectConfirmation", mock.Anything, "ada@example.com", mock.Anything, mock.Anything).Return(nil)
	mockEmail.On("SendTeamAlert", mock.Anything, mock.Anything, mock.Anything, "ada@example.com", mock.Anything).Return(nil)

	uc := NewCreateLeadUseCase(mockRepo, store, mockEmail, nil, nil)

	input := validInput()
	input.Email = "Ada Lovelace <Ada@Example.com>"

	_, err := uc.Execute(ctx, input, validResume())

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "ada@example.com", created.Email)
	mockRepo.AssertCalled(t, "ExistsByEmail", ctx, "ada@example.com")
}

func TestCreateLeadSanitizesNames(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockLeadRepository)
	mockEmail := new(MockEmailService)
	store := NewFakeResumeStore()

	var created *entity.Lead
	mockRepo.On("ExistsByEmail", ctx, "ada@example.com").Return(false, nil)
	mockRepo.On("Create", ctx, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).(*entity.Lead)
	}).Return(nil)
	mockEmail.On("SendProspectConfirmation", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	mockEmail.On("SendTeamAlert", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	uc := NewCreateLeadUseCase(mockRepo, store, mockEmail, nil, nil)

	input := validInput()
	input.FirstName = "  Ada<script>alert()</script> "
	input.LastName = "Love  lace"

	_, err := uc.Execute(ctx, input, validResume())

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "Adaalert", created.FirstName)
	assert.Equal(t, "Love lace", created.LastName)
}
