package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"quillform/internal/application/entitlement"
	"quillform/internal/domain/account"
	"quillform/internal/domain/organization"
	"quillform/internal/domain/survey"
	"quillform/internal/domain/team"
	"quillform/internal/domain/tier"
	"quillform/internal/shared/db"
	apperrors "quillform/internal/shared/errors"
	"quillform/internal/shared/logger"
)

type fakeAccounts struct {
	account.Repository
	byID map[uint]*account.Account
}

func (f *fakeAccounts) GetByID(ctx context.Context, id uint) (*account.Account, error) {
	return f.byID[id], nil
}

type fakeSurveys struct {
	survey.Repository
	bySID   map[string]*survey.Survey
	created []*survey.Survey
	updates int
}

func newFakeSurveys() *fakeSurveys {
	return &fakeSurveys{bySID: map[string]*survey.Survey{}}
}

func (f *fakeSurveys) Create(ctx context.Context, s *survey.Survey) error {
	if s.ID() == 0 {
		if err := s.SetID(uint(len(f.created) + 1)); err != nil {
			return err
		}
	}
	f.created = append(f.created, s)
	f.bySID[s.SID()] = s
	return nil
}

func (f *fakeSurveys) Update(ctx context.Context, s *survey.Survey) error {
	f.updates++
	return nil
}

func (f *fakeSurveys) GetBySID(ctx context.Context, sid string) (*survey.Survey, error) {
	return f.bySID[sid], nil
}

func (f *fakeSurveys) GetByID(ctx context.Context, id uint) (*survey.Survey, error) {
	for _, s := range f.bySID {
		if s.ID() == id {
			return s, nil
		}
	}
	return nil, nil
}

// CountOriginalByAccount counts from what the fake holds, so a test that
// seeds three surveys exercises the same arithmetic as the real repository.
func (f *fakeSurveys) CountOriginalByAccount(ctx context.Context, accountID uint) (int, error) {
	n := 0
	for _, s := range f.bySID {
		if s.AccountID() == accountID && !s.IsDuplicate() {
			n++
		}
	}
	return n, nil
}

type fakeCollaborators struct {
	survey.CollaboratorRepository
	added []*survey.Collaborator
}

func (f *fakeCollaborators) Add(ctx context.Context, c *survey.Collaborator) error {
	f.added = append(f.added, c)
	return nil
}

func (f *fakeCollaborators) CountBySurvey(ctx context.Context, surveyID uint) (int, error) {
	n := 0
	for _, c := range f.added {
		if c.SurveyID == surveyID {
			n++
		}
	}
	return n, nil
}

func newTxManager(t *testing.T) *db.TransactionManager {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)
	return db.NewTransactionManager(gdb)
}

type surveyFixture struct {
	accounts *fakeAccounts
	surveys  *fakeSurveys
	collabs  *fakeCollaborators
	gate     *entitlement.Gate
	tx       *db.TransactionManager
}

func newSurveyFixture(t *testing.T, ownerTier tier.Tier) *surveyFixture {
	t.Helper()
	now := time.Now().UTC()
	status := account.StatusActive
	if ownerTier == tier.Free {
		status = account.StatusNone
	}
	owner, err := account.Reconstruct(account.ReconstructParams{
		ID:        1,
		SID:       "act_test",
		Email:     "owner@example.com",
		Profile:   &account.Profile{DisplayName: "Owner"},
		Tier:      ownerTier,
		Status:    status,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)

	f := &surveyFixture{
		accounts: &fakeAccounts{byID: map[uint]*account.Account{1: owner}},
		surveys:  newFakeSurveys(),
		collabs:  &fakeCollaborators{},
		tx:       newTxManager(t),
	}
	f.gate = entitlement.NewGate(
		f.accounts, f.surveys, f.collabs,
		&stubTeams{}, &stubOrgs{},
		entitlement.NewResolver(false), logger.NewLogger())
	return f
}

type stubTeams struct{ team.Repository }

type stubOrgs struct{ organization.Repository }

func seedSurveys(t *testing.T, f *surveyFixture, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		s, err := survey.NewSurvey(1, "Seeded")
		require.NoError(t, err)
		require.NoError(t, f.surveys.Create(context.Background(), s))
	}
}

func TestCreateSurvey_FreeTierCeiling(t *testing.T) {
	f := newSurveyFixture(t, tier.Free)
	uc := NewCreateSurveyUseCase(f.surveys, f.gate, f.tx, logger.NewLogger())
	seedSurveys(t, f, 2)

	created, err := uc.Execute(context.Background(), CreateSurveyCommand{AccountID: 1, Title: "Third"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.SID())
	assert.True(t, created.IsOpen())

	_, err = uc.Execute(context.Background(), CreateSurveyCommand{AccountID: 1, Title: "Fourth"})
	require.Error(t, err)
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypeForbidden, appErr.Type)
	assert.Contains(t, appErr.Message, "upgrade")
	assert.Len(t, f.surveys.created, 3)
}

func TestCreateSurvey_TitleRequired(t *testing.T) {
	f := newSurveyFixture(t, tier.Pro)
	uc := NewCreateSurveyUseCase(f.surveys, f.gate, f.tx, logger.NewLogger())

	_, err := uc.Execute(context.Background(), CreateSurveyCommand{AccountID: 1, Title: ""})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidationError(err))
	assert.Empty(t, f.surveys.created)
}

func TestDuplicateSurvey_ExemptFromCeiling(t *testing.T) {
	f := newSurveyFixture(t, tier.Free)
	seedSurveys(t, f, 3)
	source := f.surveys.created[0]
	uc := NewDuplicateSurveyUseCase(f.surveys, logger.NewLogger())

	// The owner is at the free ceiling, but duplicates do not count.
	dup, err := uc.Execute(context.Background(), source.SID(), "")
	require.NoError(t, err)

	assert.True(t, dup.IsDuplicate())
	assert.Equal(t, "Seeded (copy)", dup.Title())
	assert.Equal(t, source.AccountID(), dup.AccountID())

	n, err := f.surveys.CountOriginalByAccount(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestDuplicateSurvey_SoftDeletedSourceRefused(t *testing.T) {
	f := newSurveyFixture(t, tier.Pro)
	seedSurveys(t, f, 1)
	source := f.surveys.created[0]
	require.NoError(t, source.Close(6))
	require.NoError(t, source.SoftDelete())
	uc := NewDuplicateSurveyUseCase(f.surveys, logger.NewLogger())

	_, err := uc.Execute(context.Background(), source.SID(), "")
	require.Error(t, err)
	assert.True(t, apperrors.IsPreconditionError(err))
}

func TestCloseSurvey_StartsRetentionClock(t *testing.T) {
	f := newSurveyFixture(t, tier.Pro)
	seedSurveys(t, f, 1)
	s := f.surveys.created[0]
	uc := NewCloseSurveyUseCase(f.surveys, logger.NewLogger())

	closed, err := uc.Execute(context.Background(), s.SID(), 0)
	require.NoError(t, err)

	assert.False(t, closed.IsOpen())
	assert.Equal(t, survey.DefaultRetentionMonths, closed.RetentionMonths())
	require.NotNil(t, closed.DeletionDate())
	assert.Equal(t, 1, f.surveys.updates)
}

func TestCloseSurvey_RejectsOutOfRangeRetention(t *testing.T) {
	f := newSurveyFixture(t, tier.Pro)
	seedSurveys(t, f, 1)
	s := f.surveys.created[0]
	uc := NewCloseSurveyUseCase(f.surveys, logger.NewLogger())

	_, err := uc.Execute(context.Background(), s.SID(), 3)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidationError(err))
	assert.True(t, s.IsOpen())
}

func TestAddCollaborator_ViewerNeedsOrganizationTier(t *testing.T) {
	f := newSurveyFixture(t, tier.Pro)
	seedSurveys(t, f, 1)
	s := f.surveys.created[0]
	uc := NewAddCollaboratorUseCase(f.surveys, f.collabs, f.gate, f.tx, logger.NewLogger())

	added, err := uc.Execute(context.Background(), AddCollaboratorCommand{
		SurveySID: s.SID(), AccountID: 2, Kind: survey.CollaboratorEditor, AddedBy: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, survey.CollaboratorEditor, added.Kind)

	_, err = uc.Execute(context.Background(), AddCollaboratorCommand{
		SurveySID: s.SID(), AccountID: 3, Kind: survey.CollaboratorViewer, AddedBy: 1,
	})
	require.Error(t, err)
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypeForbidden, appErr.Type)
	assert.Contains(t, appErr.Message, "Organization tier")
	assert.Len(t, f.collabs.added, 1)
}

func TestAddCollaborator_PerSurveyCeiling(t *testing.T) {
	f := newSurveyFixture(t, tier.Pro)
	seedSurveys(t, f, 1)
	s := f.surveys.created[0]
	uc := NewAddCollaboratorUseCase(f.surveys, f.collabs, f.gate, f.tx, logger.NewLogger())

	// Pro allows 5 collaborators per survey.
	for i := 0; i < 5; i++ {
		_, err := uc.Execute(context.Background(), AddCollaboratorCommand{
			SurveySID: s.SID(), AccountID: uint(10 + i), Kind: survey.CollaboratorEditor, AddedBy: 1,
		})
		require.NoError(t, err)
	}

	_, err := uc.Execute(context.Background(), AddCollaboratorCommand{
		SurveySID: s.SID(), AccountID: 99, Kind: survey.CollaboratorEditor, AddedBy: 1,
	})
	require.Error(t, err)
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypeForbidden, appErr.Type)
	assert.Len(t, f.collabs.added, 5)
}
