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

	"quillform/internal/domain/account"
	"quillform/internal/domain/survey"
	"quillform/internal/shared/biztime"
	"quillform/internal/shared/db"
	apperrors "quillform/internal/shared/errors"
	"quillform/internal/shared/logger"
)

type fakeSurveys struct {
	survey.Repository
	bySID       map[string]*survey.Survey
	candidates  []*survey.Survey
	updates     int
	hardDeleted []uint
}

func newFakeSurveys() *fakeSurveys {
	return &fakeSurveys{bySID: map[string]*survey.Survey{}}
}

func (f *fakeSurveys) GetBySID(ctx context.Context, sid string) (*survey.Survey, error) {
	return f.bySID[sid], nil
}

func (f *fakeSurveys) Update(ctx context.Context, s *survey.Survey) error {
	f.updates++
	return nil
}

func (f *fakeSurveys) FindRetentionCandidates(ctx context.Context, now time.Time) ([]*survey.Survey, error) {
	return f.candidates, nil
}

func (f *fakeSurveys) HardDelete(ctx context.Context, id uint) error {
	f.hardDeleted = append(f.hardDeleted, id)
	return nil
}

type fakeAccounts struct {
	account.Repository
	byID map[uint]*account.Account
}

func (f *fakeAccounts) GetByID(ctx context.Context, id uint) (*account.Account, error) {
	return f.byID[id], nil
}

type fakeExtensions struct {
	appended []*survey.RetentionExtension
}

func (f *fakeExtensions) Append(ctx context.Context, ext *survey.RetentionExtension) error {
	f.appended = append(f.appended, ext)
	return nil
}

func (f *fakeExtensions) ListBySurvey(ctx context.Context, surveyID uint) ([]*survey.RetentionExtension, error) {
	return f.appended, nil
}

type sentNotification struct {
	recipient string
	template  string
	data      map[string]any
}

type fakeNotifier struct {
	sent []sentNotification
}

func (f *fakeNotifier) Send(ctx context.Context, recipient, template string, data map[string]any) bool {
	f.sent = append(f.sent, sentNotification{recipient, template, data})
	return true
}

func newTxManager(t *testing.T) *db.TransactionManager {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)
	return db.NewTransactionManager(gdb)
}

func ownerAccount(t *testing.T, id uint) *account.Account {
	t.Helper()
	acct, err := account.NewAccount("owner@example.com", "hash", "Owner")
	require.NoError(t, err)
	require.NoError(t, acct.SetID(id))
	return acct
}

// closedSurveyAt builds a closed survey whose deletion date lands at the
// given instant, so sweep-stage assertions are deterministic against the
// wall clock.
func closedSurveyAt(t *testing.T, id uint, deletionDate time.Time, months int) *survey.Survey {
	t.Helper()
	closedAt := deletionDate.Add(-biztime.MonthsToDuration(months))
	s, err := survey.Reconstruct(survey.ReconstructParams{
		ID:              id,
		SID:             "srv_test",
		AccountID:       1,
		Title:           "Quarterly checkup",
		ClosedAt:        &closedAt,
		RetentionMonths: months,
		DeletionDate:    &deletionDate,
		Version:         1,
		CreatedAt:       closedAt.Add(-24 * time.Hour),
		UpdatedAt:       closedAt,
	})
	require.NoError(t, err)
	return s
}

type retentionFixture struct {
	surveys  *fakeSurveys
	accounts *fakeAccounts
	notifier *fakeNotifier
	sweep    *ProcessRetentionUseCase
}

func newRetentionFixture(t *testing.T) *retentionFixture {
	t.Helper()
	f := &retentionFixture{
		surveys:  newFakeSurveys(),
		accounts: &fakeAccounts{byID: map[uint]*account.Account{1: ownerAccount(t, 1)}},
		notifier: &fakeNotifier{},
	}
	f.sweep = NewProcessRetentionUseCase(f.surveys, f.accounts, f.notifier, logger.NewLogger())
	return f
}

func TestSweep_SendsDueWarningAndPersistsStageFirst(t *testing.T) {
	f := newRetentionFixture(t)
	now := time.Now().UTC()
	s := closedSurveyAt(t, 1, now.Add(30*biztime.Day), 6)
	f.surveys.candidates = []*survey.Survey{s}

	summary, err := f.sweep.Execute(context.Background(), RetentionSweepOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Candidates)
	assert.Equal(t, 1, summary.WarningsSent)
	assert.Zero(t, summary.SoftDeleted)

	// The stage is on the aggregate and was persisted.
	assert.Equal(t, survey.Warning30Days, s.WarningStage())
	assert.Equal(t, 1, f.surveys.updates)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "retention_warning_30d", f.notifier.sent[0].template)
	assert.Equal(t, "owner@example.com", f.notifier.sent[0].recipient)
}

func TestSweep_AlreadyWarnedStageDoesNotRepeat(t *testing.T) {
	f := newRetentionFixture(t)
	now := time.Now().UTC()
	s := closedSurveyAt(t, 1, now.Add(30*biztime.Day), 6)
	require.NoError(t, s.MarkWarningSent(survey.Warning30Days))
	f.surveys.candidates = []*survey.Survey{s}

	summary, err := f.sweep.Execute(context.Background(), RetentionSweepOptions{})
	require.NoError(t, err)

	assert.Zero(t, summary.WarningsSent)
	assert.Empty(t, f.notifier.sent)
}

func TestSweep_SoftDeletesPastDeletionDate(t *testing.T) {
	f := newRetentionFixture(t)
	now := time.Now().UTC()
	s := closedSurveyAt(t, 1, now.Add(-time.Hour), 6)
	f.surveys.candidates = []*survey.Survey{s}

	summary, err := f.sweep.Execute(context.Background(), RetentionSweepOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.SoftDeleted)
	assert.True(t, s.IsSoftDeleted())
	require.NotNil(t, s.HardDeletionDate())
	assert.Empty(t, f.surveys.hardDeleted)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "survey_soft_deleted", f.notifier.sent[0].template)
}

func TestSweep_HardDeletesAfterGraceWindow(t *testing.T) {
	f := newRetentionFixture(t)
	now := time.Now().UTC()
	s := closedSurveyAt(t, 7, now.Add(-40*biztime.Day), 6)
	require.NoError(t, s.SoftDelete())
	// Push the grace window into the past.
	deleted, err := survey.Reconstruct(survey.ReconstructParams{
		ID:               7,
		SID:              s.SID(),
		AccountID:        1,
		Title:            s.Title(),
		ClosedAt:         s.ClosedAt(),
		RetentionMonths:  6,
		DeletionDate:     s.DeletionDate(),
		DeletedAt:        timePtr(now.Add(-31 * biztime.Day)),
		HardDeletionDate: timePtr(now.Add(-biztime.Day)),
		WarningStage:     survey.Warning1Day,
		Version:          2,
		CreatedAt:        now.Add(-300 * biztime.Day),
		UpdatedAt:        now.Add(-31 * biztime.Day),
	})
	require.NoError(t, err)
	f.surveys.candidates = []*survey.Survey{deleted}

	summary, err := f.sweep.Execute(context.Background(), RetentionSweepOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.HardDeleted)
	assert.Equal(t, []uint{7}, f.surveys.hardDeleted)
	// Hard deletion is silent; the owner was told at soft-delete time.
	assert.Empty(t, f.notifier.sent)
}

func TestSweep_LegalHoldSkipCountedOnlyWhenStageDue(t *testing.T) {
	f := newRetentionFixture(t)
	now := time.Now().UTC()

	due := closedSurveyAt(t, 1, now.Add(-time.Hour), 6)
	require.NoError(t, due.ApplyLegalHold())
	notDue := closedSurveyAt(t, 2, now.Add(90*biztime.Day), 6)
	require.NoError(t, notDue.ApplyLegalHold())
	f.surveys.candidates = []*survey.Survey{due, notDue}

	summary, err := f.sweep.Execute(context.Background(), RetentionSweepOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.SkippedLegalHold)
	assert.Zero(t, summary.SoftDeleted)
	assert.Zero(t, summary.WarningsSent)
	assert.False(t, due.IsSoftDeleted())
	assert.Empty(t, f.notifier.sent)
}

func TestSweep_DryRunReportsWithoutMutating(t *testing.T) {
	f := newRetentionFixture(t)
	now := time.Now().UTC()
	warning := closedSurveyAt(t, 1, now.Add(7*biztime.Day), 6)
	overdue := closedSurveyAt(t, 2, now.Add(-time.Hour), 6)
	f.surveys.candidates = []*survey.Survey{warning, overdue}

	summary, err := f.sweep.Execute(context.Background(), RetentionSweepOptions{DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.WarningsSent)
	assert.Equal(t, 1, summary.SoftDeleted)

	assert.Equal(t, survey.WarningNone, warning.WarningStage())
	assert.False(t, overdue.IsSoftDeleted())
	assert.Zero(t, f.surveys.updates)
	assert.Empty(t, f.notifier.sent)
}

func TestExtendRetention_AppendsAuditRecord(t *testing.T) {
	f := newRetentionFixture(t)
	closedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := closedSurveyAt(t, 1, closedAt.Add(biztime.MonthsToDuration(6)), 6)
	f.surveys.bySID[s.SID()] = s
	extensions := &fakeExtensions{}
	uc := NewExtendRetentionUseCase(f.surveys, f.accounts, extensions, newTxManager(t), f.notifier, logger.NewLogger())

	result, err := uc.Execute(context.Background(), ExtendRetentionCommand{
		SurveySID:   s.SID(),
		Months:      6,
		RequestedBy: 1,
		ApprovedBy:  2,
		Reason:      "ongoing clinical audit",
	})
	require.NoError(t, err)

	assert.Equal(t, 12, result.RetentionMonths)
	assert.Equal(t, result.PreviousDeletionDate.Add(biztime.MonthsToDuration(6)), result.NewDeletionDate)

	require.Len(t, extensions.appended, 1)
	ext := extensions.appended[0]
	assert.Equal(t, uint(1), ext.SurveyID)
	assert.Equal(t, uint(2), ext.ApprovedBy)
	assert.Equal(t, "ongoing clinical audit", ext.Reason)

	// Requester is the owner, so exactly one notification.
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "retention_extended", f.notifier.sent[0].template)
}

func TestExtendRetention_RequiresReason(t *testing.T) {
	f := newRetentionFixture(t)
	uc := NewExtendRetentionUseCase(f.surveys, f.accounts, &fakeExtensions{}, newTxManager(t), f.notifier, logger.NewLogger())

	_, err := uc.Execute(context.Background(), ExtendRetentionCommand{
		SurveySID: "srv_test", Months: 6, RequestedBy: 1, ApprovedBy: 2,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidationError(err))
}

func TestExtendRetention_CapViolationLeavesNoAudit(t *testing.T) {
	f := newRetentionFixture(t)
	closedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := closedSurveyAt(t, 1, closedAt.Add(biztime.MonthsToDuration(21)), 21)
	f.surveys.bySID[s.SID()] = s
	extensions := &fakeExtensions{}
	uc := NewExtendRetentionUseCase(f.surveys, f.accounts, extensions, newTxManager(t), f.notifier, logger.NewLogger())

	_, err := uc.Execute(context.Background(), ExtendRetentionCommand{
		SurveySID: s.SID(), Months: 6, RequestedBy: 1, ApprovedBy: 2, Reason: "audit",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsPreconditionError(err))
	assert.Empty(t, extensions.appended)
	assert.Equal(t, 21, s.RetentionMonths())
}

func TestCancelSoftDeletion_RestoresWithinGrace(t *testing.T) {
	f := newRetentionFixture(t)
	now := time.Now().UTC()
	s := closedSurveyAt(t, 1, now.Add(-time.Hour), 6)
	require.NoError(t, s.SoftDelete())
	f.surveys.bySID[s.SID()] = s
	uc := NewCancelSoftDeletionUseCase(f.surveys, f.accounts, f.notifier, logger.NewLogger())

	restored, err := uc.Execute(context.Background(), s.SID())
	require.NoError(t, err)

	assert.False(t, restored.IsSoftDeleted())
	assert.Nil(t, restored.HardDeletionDate())
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "deletion_cancelled", f.notifier.sent[0].template)
}

func TestCancelSoftDeletion_RefusedWhenNotSoftDeleted(t *testing.T) {
	f := newRetentionFixture(t)
	now := time.Now().UTC()
	s := closedSurveyAt(t, 1, now.Add(30*biztime.Day), 6)
	f.surveys.bySID[s.SID()] = s
	uc := NewCancelSoftDeletionUseCase(f.surveys, f.accounts, f.notifier, logger.NewLogger())

	_, err := uc.Execute(context.Background(), s.SID())
	require.Error(t, err)
	assert.True(t, apperrors.IsPreconditionError(err))
}

func TestSetLegalHold_Toggle(t *testing.T) {
	f := newRetentionFixture(t)
	now := time.Now().UTC()
	s := closedSurveyAt(t, 1, now.Add(30*biztime.Day), 6)
	f.surveys.bySID[s.SID()] = s
	uc := NewSetLegalHoldUseCase(f.surveys, logger.NewLogger())

	held, err := uc.Execute(context.Background(), s.SID(), true)
	require.NoError(t, err)
	assert.True(t, held.LegalHold())

	released, err := uc.Execute(context.Background(), s.SID(), false)
	require.NoError(t, err)
	assert.False(t, released.LegalHold())
}

func TestSetLegalHold_OpenSurveyRefused(t *testing.T) {
	f := newRetentionFixture(t)
	s, err := survey.NewSurvey(1, "Intake form")
	require.NoError(t, err)
	require.NoError(t, s.SetID(1))
	f.surveys.bySID[s.SID()] = s
	uc := NewSetLegalHoldUseCase(f.surveys, logger.NewLogger())

	_, err = uc.Execute(context.Background(), s.SID(), true)
	require.Error(t, err)
	assert.True(t, apperrors.IsPreconditionError(err))
}

func timePtr(ts time.Time) *time.Time { return &ts }
