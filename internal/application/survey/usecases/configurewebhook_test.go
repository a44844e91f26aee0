package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quillform/internal/domain/tier"
	apperrors "quillform/internal/shared/errors"
	"quillform/internal/shared/logger"
)

func TestConfigureWebhook_RequiresEntitlement(t *testing.T) {
	f := newSurveyFixture(t, tier.Free)
	seedSurveys(t, f, 1)
	s := f.surveys.created[0]
	uc := NewConfigureWebhookUseCase(f.surveys, f.gate, logger.NewLogger())

	_, err := uc.Execute(context.Background(), s.SID(), "https://hooks.example.com/responses")
	require.Error(t, err)
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypeForbidden, appErr.Type)
}

func TestConfigureWebhook_SetAndClear(t *testing.T) {
	f := newSurveyFixture(t, tier.Pro)
	seedSurveys(t, f, 1)
	s := f.surveys.created[0]
	uc := NewConfigureWebhookUseCase(f.surveys, f.gate, logger.NewLogger())

	updated, err := uc.Execute(context.Background(), s.SID(), "https://hooks.example.com/responses")
	require.NoError(t, err)
	assert.Equal(t, "https://hooks.example.com/responses", updated.WebhookURL())

	// Clearing needs no entitlement: a downgraded account can always
	// remove its webhook.
	updated, err = uc.Execute(context.Background(), s.SID(), "")
	require.NoError(t, err)
	assert.Empty(t, updated.WebhookURL())
}

func TestConfigureWebhook_RejectsInternalTargets(t *testing.T) {
	f := newSurveyFixture(t, tier.Pro)
	seedSurveys(t, f, 1)
	s := f.surveys.created[0]
	uc := NewConfigureWebhookUseCase(f.surveys, f.gate, logger.NewLogger())

	for _, target := range []string{
		"https://127.0.0.1/hook",
		"https://169.254.169.254/latest/meta-data",
		"https://192.168.1.10/hook",
		"http://localhost:8080/hook",
		"ftp://example.com/hook",
		"not a url",
	} {
		_, err := uc.Execute(context.Background(), s.SID(), target)
		assert.Error(t, err, "target %s", target)
		assert.True(t, apperrors.IsValidationError(err), "target %s", target)
	}
}
