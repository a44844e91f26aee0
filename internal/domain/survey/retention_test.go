package survey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quillform/internal/shared/biztime"
)

func newOpenSurvey(t *testing.T) *Survey {
	t.Helper()
	s, err := NewSurvey(1, "Quarterly checkup")
	require.NoError(t, err)
	require.NoError(t, s.SetID(1))
	return s
}

// closedSurvey builds a survey closed at the given instant with the given
// retention period, bypassing the wall clock.
func closedSurvey(t *testing.T, closedAt time.Time, retentionMonths int) *Survey {
	t.Helper()
	deletion := closedAt.Add(biztime.MonthsToDuration(retentionMonths))
	s, err := Reconstruct(ReconstructParams{
		ID:              1,
		SID:             "srv_test",
		AccountID:       1,
		Title:           "Quarterly checkup",
		ClosedAt:        &closedAt,
		RetentionMonths: retentionMonths,
		DeletionDate:    &deletion,
		Version:         1,
		CreatedAt:       closedAt.Add(-24 * time.Hour),
		UpdatedAt:       closedAt,
	})
	require.NoError(t, err)
	return s
}

func TestClose_ThirtyDayMonths(t *testing.T) {
	s := newOpenSurvey(t)
	require.NoError(t, s.Close(6))

	require.NotNil(t, s.ClosedAt())
	require.NotNil(t, s.DeletionDate())
	// 6 months of retention is exactly 180 days, never calendar months.
	assert.Equal(t, s.ClosedAt().Add(180*24*time.Hour), *s.DeletionDate())
}

func TestClose_DefaultsAndBounds(t *testing.T) {
	s := newOpenSurvey(t)
	require.NoError(t, s.Close(0))
	assert.Equal(t, DefaultRetentionMonths, s.RetentionMonths())

	for _, months := range []int{1, 5, 25, -3} {
		s := newOpenSurvey(t)
		assert.Error(t, s.Close(months), "months=%d", months)
		assert.True(t, s.IsOpen())
	}
}

func TestClose_AlreadyClosedIsNoOp(t *testing.T) {
	closedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := closedSurvey(t, closedAt, 6)
	original := *s.DeletionDate()

	require.NoError(t, s.Close(12))
	assert.Equal(t, original, *s.DeletionDate())
	assert.Equal(t, 6, s.RetentionMonths())
}

func TestExtendRetention(t *testing.T) {
	closedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := closedSurvey(t, closedAt, 6)

	previous, next, err := s.ExtendRetention(6)
	require.NoError(t, err)
	assert.Equal(t, closedAt.Add(biztime.MonthsToDuration(6)), previous)
	// Recomputed from closure, not from the old deletion date.
	assert.Equal(t, closedAt.Add(biztime.MonthsToDuration(12)), next)
	assert.Equal(t, 12, s.RetentionMonths())
	assert.Equal(t, WarningNone, s.WarningStage())
}

func TestExtendRetention_TotalCap(t *testing.T) {
	closedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	s := closedSurvey(t, closedAt, 21)
	_, _, err := s.ExtendRetention(3)
	assert.NoError(t, err)
	assert.Equal(t, 24, s.RetentionMonths())

	s = closedSurvey(t, closedAt, 21)
	_, _, err = s.ExtendRetention(4)
	assert.Error(t, err)
	assert.Equal(t, 21, s.RetentionMonths())
}

func TestExtendRetention_Preconditions(t *testing.T) {
	open := newOpenSurvey(t)
	_, _, err := open.ExtendRetention(6)
	assert.Error(t, err)

	closedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := closedSurvey(t, closedAt, 6)
	_, _, err = s.ExtendRetention(0)
	assert.Error(t, err)

	require.NoError(t, s.SoftDelete())
	_, _, err = s.ExtendRetention(6)
	assert.Error(t, err)
}

func TestDueWarningStage_Windows(t *testing.T) {
	closedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := closedSurvey(t, closedAt, 6)
	deletion := *s.DeletionDate()

	tests := []struct {
		name string
		now  time.Time
		want WarningStage
	}{
		{"long before first window", deletion.Add(-45 * biztime.Day), WarningNone},
		{"30d on target", deletion.Add(-30 * biztime.Day), Warning30Days},
		{"30d eleven hours late", deletion.Add(-30 * biztime.Day).Add(11 * time.Hour), Warning30Days},
		{"30d thirteen hours late", deletion.Add(-30 * biztime.Day).Add(13 * time.Hour), WarningNone},
		{"between 30d and 7d windows", deletion.Add(-15 * biztime.Day), WarningNone},
		{"7d on target", deletion.Add(-7 * biztime.Day), Warning7Days},
		{"1d on target", deletion.Add(-1 * biztime.Day), Warning1Day},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.DueWarningStage(tt.now))
		})
	}
}

func TestDueWarningStage_LaterStageSupersedes(t *testing.T) {
	closedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := closedSurvey(t, closedAt, 6)
	deletion := *s.DeletionDate()

	// The 7-day warning was already sent; re-entering its window must not
	// fire again.
	require.NoError(t, s.MarkWarningSent(Warning7Days))
	assert.Equal(t, WarningNone, s.DueWarningStage(deletion.Add(-7*biztime.Day)))
	assert.Equal(t, Warning1Day, s.DueWarningStage(deletion.Add(-1*biztime.Day)))
}

func TestMarkWarningSent_RejectsRegression(t *testing.T) {
	closedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := closedSurvey(t, closedAt, 6)

	require.NoError(t, s.MarkWarningSent(Warning7Days))
	assert.Error(t, s.MarkWarningSent(Warning7Days))
	assert.Error(t, s.MarkWarningSent(Warning30Days))
}

func TestSoftDelete_SchedulesHardDeletion(t *testing.T) {
	closedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := closedSurvey(t, closedAt, 6)

	require.NoError(t, s.SoftDelete())
	require.NotNil(t, s.DeletedAt())
	require.NotNil(t, s.HardDeletionDate())
	assert.Equal(t, s.DeletedAt().Add(30*biztime.Day), *s.HardDeletionDate())

	assert.Error(t, s.SoftDelete())
}

func TestSoftDeleteDue(t *testing.T) {
	closedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := closedSurvey(t, closedAt, 6)
	deletion := *s.DeletionDate()

	assert.False(t, s.SoftDeleteDue(deletion.Add(-time.Hour)))
	assert.True(t, s.SoftDeleteDue(deletion))
	assert.True(t, s.SoftDeleteDue(deletion.Add(72*time.Hour)))
}

func TestCancelSoftDeletion_Boundary(t *testing.T) {
	closedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := closedSurvey(t, closedAt, 6)
	require.NoError(t, s.SoftDelete())
	hard := *s.HardDeletionDate()

	// Past the hard deletion date the data is gone.
	assert.Error(t, s.CancelSoftDeletion(hard))

	require.NoError(t, s.CancelSoftDeletion(hard.Add(-time.Hour)))
	assert.False(t, s.IsSoftDeleted())
	assert.Nil(t, s.HardDeletionDate())
	// The retention clock is untouched: the original deletion date stands.
	assert.Equal(t, closedAt.Add(biztime.MonthsToDuration(6)), *s.DeletionDate())
}

func TestCancelSoftDeletion_RequiresSoftDeleted(t *testing.T) {
	closedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := closedSurvey(t, closedAt, 6)
	assert.Error(t, s.CancelSoftDeletion(closedAt))
}

func TestLegalHold_BlocksEveryStage(t *testing.T) {
	closedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := closedSurvey(t, closedAt, 6)
	deletion := *s.DeletionDate()

	require.NoError(t, s.ApplyLegalHold())
	assert.True(t, s.LegalHold())

	assert.Equal(t, WarningNone, s.DueWarningStage(deletion.Add(-30*biztime.Day)))
	assert.False(t, s.SoftDeleteDue(deletion.Add(time.Hour)))
	assert.Error(t, s.SoftDelete())

	s.ReleaseLegalHold()
	assert.False(t, s.LegalHold())
	assert.True(t, s.SoftDeleteDue(deletion.Add(time.Hour)))
}

func TestApplyLegalHold_ClosedOnly(t *testing.T) {
	open := newOpenSurvey(t)
	assert.Error(t, open.ApplyLegalHold())
}

func TestSettingsLockedAfterClose(t *testing.T) {
	closedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := closedSurvey(t, closedAt, 6)

	assert.Error(t, s.SetPatientData(true))
	assert.Error(t, s.SetWebhookURL("https://example.com/hook"))
}
