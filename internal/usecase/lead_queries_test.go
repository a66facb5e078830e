package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

func pendingLead(t *testing.T) *entity.Lead {
	t.Helper()
	lead, err := entity.NewLead("Ada", "Lovelace", "ada@example.com", "abc_resume.pdf")
	require.NoError(t, err)
	return lead
}

func TestGetLeadNotFound(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockLeadRepository)
	mockRepo.On("GetByID", ctx, "missing").Return(nil, entity.ErrLeadNotFound)

	svc := NewLeadService(mockRepo, NewFakeResumeStore(), entity.StatusPolicy{}, nil)

	_, err := svc.GetLead(ctx, "missing")

	de, ok := AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, CodeNotFound, de.Code)
}

func TestListLeadsDefaultsAndPagination(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockLeadRepository)
	// Out-of-range paging inputs fall back to page 1, size 20.
	mockRepo.On("List", ctx, 0, 20).Return([]*entity.Lead{pendingLead(t)}, 45, nil)

	svc := NewLeadService(mockRepo, NewFakeResumeStore(), entity.StatusPolicy{}, nil)

	page, err := svc.ListLeads(ctx, ListLeadsInput{Page: -3, PageSize: 500})

	require.NoError(t, err)
	assert.Equal(t, 45, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasNext)
	assert.False(t, page.HasPrevious)
}

func TestListLeadsByStatus(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockLeadRepository)
	status := entity.StatusContactedOut
	mockRepo.On("ListByStatus", ctx, status, 20, 20).Return([]*entity.Lead{}, 21, nil)

	svc := NewLeadService(mockRepo, NewFakeResumeStore(), entity.StatusPolicy{}, nil)

	page, err := svc.ListLeads(ctx, ListLeadsInput{Page: 2, PageSize: 20, Status: &status})

	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	assert.False(t, page.HasNext)
	assert.True(t, page.HasPrevious)
	mockRepo.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateLeadStatusMarksContacted(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockLeadRepository)
	lead := pendingLead(t)

	mockRepo.On("GetByID", ctx, lead.ID).Return(lead, nil)
	mockRepo.On("UpdateStatus", ctx, lead).Return(nil)

	svc := NewLeadService(mockRepo, NewFakeResumeStore(), entity.StatusPolicy{}, nil)

	updated, err := svc.UpdateLeadStatus(ctx, lead.ID, entity.StatusContactedOut)

	require.NoError(t, err)
	assert.Equal(t, entity.StatusContactedOut, updated.Status)
	require.NotNil(t, updated.ContactedAt)
	assert.WithinDuration(t, time.Now().UTC(), *updated.ContactedAt, time.Minute)
}

func TestUpdateLeadStatusNoOp(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockLeadRepository)
	lead := pendingLead(t)
	mockRepo.On("GetByID", ctx, lead.ID).Return(lead, nil)

	svc := NewLeadService(mockRepo, NewFakeResumeStore(), entity.StatusPolicy{}, nil)

	_, err := svc.UpdateLeadStatus(ctx, lead.ID, entity.StatusPending)

	de, ok := AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, CodeNoOpTransition, de.Code)
	mockRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
}

func TestUpdateLeadStatusReopenRejectedByDefault(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockLeadRepository)
	lead := pendingLead(t)
	now := time.Now().UTC()
	require.NoError(t, lead.Transition(entity.StatusContactedOut, entity.StatusPolicy{}, now))
	mockRepo.On("GetByID", ctx, lead.ID).Return(lead, nil)

	svc := NewLeadService(mockRepo, NewFakeResumeStore(), entity.StatusPolicy{}, nil)

	_, err := svc.UpdateLeadStatus(ctx, lead.ID, entity.StatusPending)

	de, ok := AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, CodeInvalidTransition, de.Code)
}

func TestUpdateLeadStatusReopenAllowedByPolicy(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockLeadRepository)
	lead := pendingLead(t)
	now := time.Now().UTC()
	policy := entity.StatusPolicy{AllowReopen: true}
	require.NoError(t, lead.Transition(entity.StatusContactedOut, policy, now))
	firstContact := *lead.ContactedAt

	mockRepo.On("GetByID", ctx, lead.ID).Return(lead, nil)
	mockRepo.On("UpdateStatus", ctx, lead).Return(nil)

	svc := NewLeadService(mockRepo, NewFakeResumeStore(), policy, nil)

	updated, err := svc.UpdateLeadStatus(ctx, lead.ID, entity.StatusPending)

	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, updated.Status)
	// Reopening keeps the first-contact timestamp.
	require.NotNil(t, updated.ContactedAt)
	assert.Equal(t, firstContact, *updated.ContactedAt)
}

func TestDeleteLeadRemovesFileBestEffort(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockLeadRepository)
	store := NewFakeResumeStore()
	lead := pendingLead(t)
	store.files[lead.ResumeKey] = []byte("%PDF-")

	mockRepo.On("GetByID", ctx, lead.ID).Return(lead, nil)
	mockRepo.On("Delete", ctx, lead.ID).Return(nil)

	svc := NewLeadService(mockRepo, store, entity.StatusPolicy{}, nil)

	require.NoError(t, svc.DeleteLead(ctx, lead.ID))
	assert.False(t, store.Exists(lead.ResumeKey))
}

func TestDeleteLeadNotFound(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockLeadRepository)
	mockRepo.On("GetByID", ctx, "missing").Return(nil, entity.ErrLeadNotFound)

	svc := NewLeadService(mockRepo, NewFakeResumeStore(), entity.StatusPolicy{}, nil)

	err := svc.DeleteLead(ctx, "missing")

	de, ok := AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, CodeNotFound, de.Code)
	mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestResolveResume(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockLeadRepository)
	store := NewFakeResumeStore()
	lead := pendingLead(t)
	store.files[lead.ResumeKey] = []byte("%PDF-")

	mockRepo.On("GetByID", ctx, lead.ID).Return(lead, nil)

	svc := NewLeadService(mockRepo, store, entity.StatusPolicy{}, nil)

	path, key, err := svc.ResolveResume(ctx, lead.ID)

	require.NoError(t, err)
	assert.Equal(t, lead.ResumeKey, key)
	assert.Equal(t, "/uploads/"+lead.ResumeKey, path)
}

func TestResolveResumeMissingFile(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockLeadRepository)
	lead := pendingLead(t)
	mockRepo.On("GetByID", ctx, lead.ID).Return(lead, nil)

	svc := NewLeadService(mockRepo, NewFakeResumeStore(), entity.StatusPolicy{}, nil)

	_, _, err := svc.ResolveResume(ctx, lead.ID)

	de, ok := AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, CodeNotFound, de.Code)
}

func TestCountByStatus(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockLeadRepository)
	mockRepo.On("CountByStatus", ctx, entity.StatusPending).Return(7, nil)
	mockRepo.On("CountByStatus", ctx, entity.StatusContactedOut).Return(3, nil)

	svc := NewLeadService(mockRepo, NewFakeResumeStore(), entity.StatusPolicy{}, nil)

	counts, err := svc.CountByStatus(ctx)

	require.NoError(t, err)
	assert.Equal(t, 7, counts[entity.StatusPending])
	assert.Equal(t, 3, counts[entity.StatusContactedOut])
}

func TestCountByStatusRepositoryFailure(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockLeadRepository)
	mockRepo.On("CountByStatus", ctx, mock.Anything).Return(0, errors.New("connection reset"))

	svc := NewLeadService(mockRepo, NewFakeResumeStore(), entity.StatusPolicy{}, nil)

	_, err := svc.CountByStatus(ctx)

	require.True(t, IsTechnicalError(err))
}
