package survey

import (
	"fmt"
	"time"

	"quillform/internal/shared/biztime"
)

// WarningStage tracks which staged deletion warning has already been sent,
// so a once-daily sweep neither misses nor double-sends a stage.
type WarningStage int

const (
	WarningNone   WarningStage = 0
	Warning30Days WarningStage = 1
	Warning7Days  WarningStage = 2
	Warning1Day   WarningStage = 3
)

// warningDaysBefore maps a stage to how many days before the deletion date
// it fires.
var warningDaysBefore = map[WarningStage]int{
	Warning30Days: 30,
	Warning7Days:  7,
	Warning1Day:   1,
}

// WarningWindow is the tolerance around a warning's target moment. The sweep
// runs once a day, so a ±12 hour window catches every stage exactly once.
const WarningWindow = 12 * time.Hour

// Close closes the survey and starts the retention clock:
// deletionDate = closedAt + retentionMonths * 30 days.
func (s *Survey) Close(retentionMonths int) error {
	if s.IsClosed() {
		return nil
	}
	if retentionMonths == 0 {
		retentionMonths = DefaultRetentionMonths
	}
	if retentionMonths < MinRetentionMonths || retentionMonths > MaxRetentionMonths {
		return fmt.Errorf("retention period must be between %d and %d months, got %d",
			MinRetentionMonths, MaxRetentionMonths, retentionMonths)
	}

	now := biztime.NowUTC()
	deletion := now.Add(biztime.MonthsToDuration(retentionMonths))
	s.closedAt = &now
	s.retentionMonths = retentionMonths
	s.deletionDate = &deletion
	s.warningStage = WarningNone
	s.touch()
	return nil
}

// ExtendRetention adds months to the retention period and recomputes the
// deletion date from the original closure time. The total retention period
// is capped at MaxRetentionMonths. Returns the previous and new deletion
// dates for the audit record.
func (s *Survey) ExtendRetention(months int) (previous, next time.Time, err error) {
	if months <= 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("extension months must be positive")
	}
	if !s.IsClosed() {
		return time.Time{}, time.Time{}, fmt.Errorf("retention can only be extended on a closed survey")
	}
	if s.IsSoftDeleted() {
		return time.Time{}, time.Time{}, fmt.Errorf("retention cannot be extended after soft deletion")
	}
	total := s.retentionMonths + months
	if total > MaxRetentionMonths {
		return time.Time{}, time.Time{}, fmt.Errorf(
			"retention cannot exceed %d months: current %d plus %d requested",
			MaxRetentionMonths, s.retentionMonths, months)
	}

	previous = *s.deletionDate
	next = s.closedAt.Add(biztime.MonthsToDuration(total))
	s.retentionMonths = total
	s.deletionDate = &next
	// Warnings restart for the new date.
	s.warningStage = WarningNone
	s.touch()
	return previous, next, nil
}

// DueWarningStage returns the next warning stage due at now, or WarningNone.
// A stage is due when now falls within ±WarningWindow of its target moment
// and no later stage has been sent yet. If the sweep was down long enough to
// skip a window entirely, the next stage picks up on its own schedule.
func (s *Survey) DueWarningStage(now time.Time) WarningStage {
	if !s.IsClosed() || s.IsSoftDeleted() || s.legalHold || s.deletionDate == nil {
		return WarningNone
	}
	for stage := Warning1Day; stage >= Warning30Days; stage-- {
		if s.warningStage >= stage {
			continue
		}
		target := s.deletionDate.Add(-time.Duration(warningDaysBefore[stage]) * biztime.Day)
		if now.After(target.Add(-WarningWindow)) && now.Before(target.Add(WarningWindow)) {
			return stage
		}
	}
	return WarningNone
}

// MarkWarningSent records that a warning stage went out.
func (s *Survey) MarkWarningSent(stage WarningStage) error {
	if stage <= s.warningStage {
		return fmt.Errorf("warning stage %d already sent", stage)
	}
	s.warningStage = stage
	s.touch()
	return nil
}

// SoftDeleteDue reports whether the sweep should soft-delete the survey now.
func (s *Survey) SoftDeleteDue(now time.Time) bool {
	return s.IsClosed() && !s.IsSoftDeleted() && !s.legalHold &&
		s.deletionDate != nil && !now.Before(*s.deletionDate)
}

// SoftDelete marks the survey deleted and schedules the hard deletion. The
// survey stays exportable until the hard deletion date.
func (s *Survey) SoftDelete() error {
	if !s.IsClosed() {
		return fmt.Errorf("only closed surveys can be deleted")
	}
	if s.IsSoftDeleted() {
		return fmt.Errorf("survey is already soft-deleted")
	}
	if s.legalHold {
		return fmt.Errorf("survey is under an active legal hold")
	}

	now := biztime.NowUTC()
	hard := now.Add(HardDeleteGraceDays * biztime.Day)
	s.deletedAt = &now
	s.hardDeletionDate = &hard
	s.touch()
	return nil
}

// HardDeleteDue reports whether the sweep should hard-delete the survey now.
func (s *Survey) HardDeleteDue(now time.Time) bool {
	return s.IsSoftDeleted() && !s.legalHold &&
		s.hardDeletionDate != nil && !now.Before(*s.hardDeletionDate)
}

// CancelSoftDeletion reverses a soft deletion before the hard deletion date.
func (s *Survey) CancelSoftDeletion(now time.Time) error {
	if !s.IsSoftDeleted() {
		return fmt.Errorf("survey was never soft-deleted")
	}
	if s.hardDeletionDate != nil && !now.Before(*s.hardDeletionDate) {
		return fmt.Errorf("hard deletion date has passed; the data is gone")
	}
	s.deletedAt = nil
	s.hardDeletionDate = nil
	s.touch()
	return nil
}

// ApplyLegalHold places the survey under a legal hold, suspending every
// automatic retention stage.
func (s *Survey) ApplyLegalHold() error {
	if !s.IsClosed() {
		return fmt.Errorf("legal hold applies to closed surveys only")
	}
	if s.legalHold {
		return nil
	}
	now := biztime.NowUTC()
	s.legalHold = true
	s.legalHoldSetAt = &now
	s.touch()
	return nil
}

// ReleaseLegalHold lifts the hold; the next sweep resumes retention
// processing from wherever the dates stand.
func (s *Survey) ReleaseLegalHold() {
	if !s.legalHold {
		return
	}
	s.legalHold = false
	s.legalHoldSetAt = nil
	s.touch()
}
