package account

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quillform/internal/domain/tier"
)

func newTestAccount(t *testing.T) *Account {
	t.Helper()
	acct, err := NewAccount("owner@example.com", "hash", "Owner")
	require.NoError(t, err)
	return acct
}

func TestNewAccount_StartsFreeWithoutSubscription(t *testing.T) {
	acct := newTestAccount(t)

	assert.Equal(t, tier.Free, acct.Tier())
	assert.Equal(t, StatusNone, acct.Status())
	assert.Empty(t, acct.SubscriptionID())
	assert.NotEmpty(t, acct.SID())
	require.NotNil(t, acct.Profile())
	assert.Equal(t, "Owner", acct.Profile().DisplayName)
}

func TestApplyStatus_SameStatusIsNoOp(t *testing.T) {
	acct := newTestAccount(t)
	require.NoError(t, acct.ApplyStatus(StatusActive))
	versionAfterFirst := acct.Version()

	// Webhook replays deliver the same status again.
	require.NoError(t, acct.ApplyStatus(StatusActive))
	assert.Equal(t, StatusActive, acct.Status())
	assert.Equal(t, versionAfterFirst, acct.Version())
}

func TestApplyStatus_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    SubscriptionStatus
		to      SubscriptionStatus
		wantErr bool
	}{
		{"none to active", StatusNone, StatusActive, false},
		{"none to trialing", StatusNone, StatusTrialing, false},
		{"active to past_due", StatusActive, StatusPastDue, false},
		{"past_due to active", StatusPastDue, StatusActive, false},
		{"past_due to unpaid", StatusPastDue, StatusUnpaid, false},
		{"active to canceled", StatusActive, StatusCanceled, false},
		{"canceled resubscribe", StatusCanceled, StatusActive, false},
		{"none to past_due", StatusNone, StatusPastDue, true},
		{"unpaid to canceled", StatusUnpaid, StatusCanceled, true},
		{"trialing to unpaid", StatusTrialing, StatusUnpaid, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acct, err := Reconstruct(ReconstructParams{
				ID:        1,
				Email:     "owner@example.com",
				Profile:   &Profile{DisplayName: "Owner"},
				Tier:      tier.Pro,
				Status:    tt.from,
				Version:   1,
				CreatedAt: time.Now().UTC(),
				UpdatedAt: time.Now().UTC(),
			})
			require.NoError(t, err)

			err = acct.ApplyStatus(tt.to)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.from, acct.Status())
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.to, acct.Status())
			}
		})
	}
}

func TestApplyStatus_RejectsUnknownStatus(t *testing.T) {
	acct := newTestAccount(t)
	assert.Error(t, acct.ApplyStatus(SubscriptionStatus("paused")))
}

func TestChangeTier_RecordsTimestamp(t *testing.T) {
	acct := newTestAccount(t)
	assert.Nil(t, acct.LastTierChange())

	require.NoError(t, acct.ChangeTier(tier.Pro))
	assert.Equal(t, tier.Pro, acct.Tier())
	assert.NotNil(t, acct.LastTierChange())
}

func TestChangeTier_RejectsUnknownTier(t *testing.T) {
	acct := newTestAccount(t)
	assert.Error(t, acct.ChangeTier(tier.Tier("gold")))
	assert.Equal(t, tier.Free, acct.Tier())
}

func TestClearSubscription_KeepsCustomerAndMandate(t *testing.T) {
	acct := newTestAccount(t)
	end := time.Now().UTC().Add(30 * 24 * time.Hour)
	acct.AttachSubscription("cus_1", "sub_1", "mdt_1")
	acct.SetPeriodEnd(&end)

	acct.ClearSubscription()

	assert.Empty(t, acct.SubscriptionID())
	assert.Nil(t, acct.PeriodEnd())
	// Kept for reconciliation against the provider.
	assert.Equal(t, "cus_1", acct.CustomerID())
	assert.Equal(t, "mdt_1", acct.MandateID())
}

func TestValidate_FreeTierRequiredWithoutSubscription(t *testing.T) {
	acct := newTestAccount(t)
	require.NoError(t, acct.Validate())

	// status none + paid tier is malformed.
	require.NoError(t, acct.ChangeTier(tier.Pro))
	assert.Error(t, acct.Validate())

	require.NoError(t, acct.ApplyStatus(StatusActive))
	assert.NoError(t, acct.Validate())
}
