// Package usecases implements the retention lifecycle: the daily sweep over
// closed surveys (staged warnings, soft deletion, hard deletion) and the
// manual operations around it (extension, cancellation, legal holds).
package usecases

import (
	"context"
	"fmt"
	"time"

	"quillform/internal/application/notification"
	"quillform/internal/domain/account"
	"quillform/internal/domain/survey"
	"quillform/internal/shared/biztime"
	"quillform/internal/shared/logger"
)

// warningTemplates maps a warning stage to its email template.
var warningTemplates = map[survey.WarningStage]string{
	survey.Warning30Days: notification.TemplateRetentionWarning30d,
	survey.Warning7Days:  notification.TemplateRetentionWarning7d,
	survey.Warning1Day:   notification.TemplateRetentionWarning1d,
}

// RetentionSweepOptions control a retention sweep run.
type RetentionSweepOptions struct {
	DryRun  bool
	Verbose bool
}

// RetentionSweepSummary is what a sweep run did, or under dry-run would
// have done.
type RetentionSweepSummary struct {
	Candidates       int
	WarningsSent     int
	SoftDeleted      int
	HardDeleted      int
	SkippedLegalHold int
	Errors           int
}

// ProcessRetentionUseCase is the daily sweep over closed surveys. For each
// candidate it sends whichever staged warning is due, soft-deletes surveys
// whose deletion date has passed, and hard-deletes surveys whose grace
// window has ended. A legal hold freezes all three stages; the sweep counts
// the skip and moves on.
type ProcessRetentionUseCase struct {
	surveys  survey.Repository
	accounts account.Repository
	notifier notification.Notifier
	logger   logger.Interface
}

// NewProcessRetentionUseCase creates a ProcessRetentionUseCase.
func NewProcessRetentionUseCase(
	surveys survey.Repository,
	accounts account.Repository,
	notifier notification.Notifier,
	logger logger.Interface,
) *ProcessRetentionUseCase {
	return &ProcessRetentionUseCase{
		surveys:  surveys,
		accounts: accounts,
		notifier: notifier,
		logger:   logger,
	}
}

// Execute runs the sweep. Per-survey failures are counted and logged; the
// returned error covers only the candidate query itself.
func (uc *ProcessRetentionUseCase) Execute(ctx context.Context, opts RetentionSweepOptions) (*RetentionSweepSummary, error) {
	now := biztime.NowUTC()
	candidates, err := uc.surveys.FindRetentionCandidates(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to find retention candidates: %w", err)
	}

	summary := &RetentionSweepSummary{Candidates: len(candidates)}
	for _, s := range candidates {
		uc.processCandidate(ctx, s, now, opts, summary)
	}

	uc.logger.Infow("retention sweep finished",
		"dry_run", opts.DryRun,
		"candidates", summary.Candidates,
		"warnings_sent", summary.WarningsSent,
		"soft_deleted", summary.SoftDeleted,
		"hard_deleted", summary.HardDeleted,
		"skipped_legal_hold", summary.SkippedLegalHold,
		"errors", summary.Errors,
	)
	return summary, nil
}

func (uc *ProcessRetentionUseCase) processCandidate(
	ctx context.Context,
	s *survey.Survey,
	now time.Time,
	opts RetentionSweepOptions,
	summary *RetentionSweepSummary,
) {
	if s.LegalHold() {
		if deletionStageDue(s, now) {
			summary.SkippedLegalHold++
			if opts.Verbose {
				uc.logger.Infow("retention stage suspended by legal hold",
					"survey", s.SID(), "deletion_date", s.DeletionDate())
			}
		}
		return
	}

	if stage := s.DueWarningStage(now); stage != survey.WarningNone {
		if opts.DryRun {
			summary.WarningsSent++
			if opts.Verbose {
				uc.logger.Infow("dry-run: would send deletion warning",
					"survey", s.SID(), "stage", stage)
			}
		} else if err := uc.sendWarning(ctx, s, stage); err != nil {
			summary.Errors++
			uc.logger.Errorw("failed to record deletion warning",
				"survey", s.SID(), "stage", stage, "error", err)
		} else {
			summary.WarningsSent++
		}
	}

	switch {
	case s.SoftDeleteDue(now):
		if opts.DryRun {
			summary.SoftDeleted++
			if opts.Verbose {
				uc.logger.Infow("dry-run: would soft-delete survey", "survey", s.SID())
			}
			return
		}
		if err := uc.softDelete(ctx, s); err != nil {
			summary.Errors++
			uc.logger.Errorw("failed to soft-delete survey", "survey", s.SID(), "error", err)
			return
		}
		summary.SoftDeleted++

	case s.HardDeleteDue(now):
		if opts.DryRun {
			summary.HardDeleted++
			if opts.Verbose {
				uc.logger.Infow("dry-run: would hard-delete survey", "survey", s.SID())
			}
			return
		}
		if err := uc.surveys.HardDelete(ctx, s.ID()); err != nil {
			summary.Errors++
			uc.logger.Errorw("failed to hard-delete survey", "survey", s.SID(), "error", err)
			return
		}
		summary.HardDeleted++
		uc.logger.Infow("survey hard-deleted", "survey", s.SID())
	}
}

// sendWarning records the stage first, then sends. The persisted stage is
// the dedupe guard: a crash after the write costs one email at worst, a
// crash before it costs nothing.
func (uc *ProcessRetentionUseCase) sendWarning(ctx context.Context, s *survey.Survey, stage survey.WarningStage) error {
	if err := s.MarkWarningSent(stage); err != nil {
		return err
	}
	if err := uc.surveys.Update(ctx, s); err != nil {
		return fmt.Errorf("failed to persist warning stage: %w", err)
	}

	uc.notifyOwner(ctx, s, warningTemplates[stage], map[string]any{
		"survey_title":  s.Title(),
		"deletion_date": s.DeletionDate(),
	})
	return nil
}

func (uc *ProcessRetentionUseCase) softDelete(ctx context.Context, s *survey.Survey) error {
	if err := s.SoftDelete(); err != nil {
		return err
	}
	if err := uc.surveys.Update(ctx, s); err != nil {
		return fmt.Errorf("failed to persist soft deletion: %w", err)
	}

	uc.notifyOwner(ctx, s, notification.TemplateSurveySoftDeleted, map[string]any{
		"survey_title":       s.Title(),
		"hard_deletion_date": s.HardDeletionDate(),
	})
	return nil
}

// notifyOwner resolves the owner's email and sends best-effort. A missing
// owner or failed delivery is logged, never propagated.
func (uc *ProcessRetentionUseCase) notifyOwner(ctx context.Context, s *survey.Survey, template string, data map[string]any) {
	owner, err := uc.accounts.GetByID(ctx, s.AccountID())
	if err != nil || owner == nil {
		uc.logger.Warnw("cannot notify survey owner",
			"survey", s.SID(), "account_id", s.AccountID(), "error", err)
		return
	}
	data["survey_sid"] = s.SID()
	if !uc.notifier.Send(ctx, owner.Email(), template, data) {
		uc.logger.Warnw("retention notification not delivered",
			"survey", s.SID(), "template", template)
	}
}

// deletionStageDue reports whether a deletion stage would fire at now were
// the legal hold not in place. Warning stages do not count as skips.
func deletionStageDue(s *survey.Survey, now time.Time) bool {
	if s.IsSoftDeleted() {
		return s.HardDeletionDate() != nil && !now.Before(*s.HardDeletionDate())
	}
	return s.DeletionDate() != nil && !now.Before(*s.DeletionDate())
}
