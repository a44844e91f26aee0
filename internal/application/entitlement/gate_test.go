package entitlement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quillform/internal/domain/account"
	"quillform/internal/domain/organization"
	"quillform/internal/domain/survey"
	"quillform/internal/domain/team"
	"quillform/internal/domain/tier"
	"quillform/internal/shared/logger"
)

type stubAccounts struct {
	account.Repository
	byID map[uint]*account.Account
}

func (s *stubAccounts) GetByID(ctx context.Context, id uint) (*account.Account, error) {
	return s.byID[id], nil
}

type stubSurveys struct {
	survey.Repository
	originalCount int
	byID          map[uint]*survey.Survey
}

func (s *stubSurveys) CountOriginalByAccount(ctx context.Context, accountID uint) (int, error) {
	return s.originalCount, nil
}

func (s *stubSurveys) GetByID(ctx context.Context, id uint) (*survey.Survey, error) {
	return s.byID[id], nil
}

type stubCollaborators struct {
	survey.CollaboratorRepository
	count int
}

func (s *stubCollaborators) CountBySurvey(ctx context.Context, surveyID uint) (int, error) {
	return s.count, nil
}

type stubTeams struct {
	team.Repository
	byID    map[uint]*team.Team
	members int
}

func (s *stubTeams) GetByID(ctx context.Context, id uint) (*team.Team, error) {
	return s.byID[id], nil
}

func (s *stubTeams) CountMembers(ctx context.Context, teamID uint) (int, error) {
	return s.members, nil
}

type stubOrgs struct {
	organization.Repository
	byID    map[uint]*organization.Organization
	members int
}

func (s *stubOrgs) GetByID(ctx context.Context, id uint) (*organization.Organization, error) {
	return s.byID[id], nil
}

func (s *stubOrgs) CountMembers(ctx context.Context, orgID uint) (int, error) {
	return s.members, nil
}

func testAccount(t *testing.T, id uint, tr tier.Tier) *account.Account {
	t.Helper()
	now := time.Now().UTC()
	status := account.StatusActive
	if tr == tier.Free {
		status = account.StatusNone
	}
	acct, err := account.Reconstruct(account.ReconstructParams{
		ID:        id,
		SID:       "act_test",
		Email:     "owner@example.com",
		Profile:   &account.Profile{DisplayName: "Owner"},
		Tier:      tr,
		Status:    status,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	return acct
}

type gateFixture struct {
	accounts *stubAccounts
	surveys  *stubSurveys
	collabs  *stubCollaborators
	teams    *stubTeams
	orgs     *stubOrgs
	gate     *Gate
}

func newGateFixture(t *testing.T, selfHosted bool) *gateFixture {
	t.Helper()
	f := &gateFixture{
		accounts: &stubAccounts{byID: map[uint]*account.Account{}},
		surveys:  &stubSurveys{byID: map[uint]*survey.Survey{}},
		collabs:  &stubCollaborators{},
		teams:    &stubTeams{byID: map[uint]*team.Team{}},
		orgs:     &stubOrgs{byID: map[uint]*organization.Organization{}},
	}
	f.gate = NewGate(f.accounts, f.surveys, f.collabs, f.teams, f.orgs,
		NewResolver(selfHosted), logger.NewLogger())
	return f
}

func TestEffectiveTier_SelfHostedOverridesEverything(t *testing.T) {
	r := NewResolver(true)
	assert.Equal(t, tier.Enterprise, r.EffectiveTier(testAccount(t, 1, tier.Free)))
	assert.Equal(t, tier.Enterprise, r.EffectiveTier(nil))

	r = NewResolver(false)
	assert.Equal(t, tier.Pro, r.EffectiveTier(testAccount(t, 1, tier.Pro)))
	assert.Equal(t, tier.Free, r.EffectiveTier(nil))
}

func TestCanCreateSurvey_FreeCeiling(t *testing.T) {
	f := newGateFixture(t, false)
	f.accounts.byID[1] = testAccount(t, 1, tier.Free)

	f.surveys.originalCount = 2
	d, err := f.gate.CanCreateSurvey(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	// Closed surveys still count toward the ceiling; only deletion frees
	// a slot.
	f.surveys.originalCount = 3
	d, err = f.gate.CanCreateSurvey(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "up to 3 surveys")
	assert.Contains(t, d.Reason, "upgrade")
}

func TestCanCreateSurvey_UnlimitedSkipsCount(t *testing.T) {
	f := newGateFixture(t, false)
	f.accounts.byID[1] = testAccount(t, 1, tier.Pro)
	f.surveys.originalCount = 5000

	d, err := f.gate.CanCreateSurvey(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestCanCreateSurvey_SelfHostedIgnoresTier(t *testing.T) {
	f := newGateFixture(t, true)
	f.accounts.byID[1] = testAccount(t, 1, tier.Free)
	f.surveys.originalCount = 100

	d, err := f.gate.CanCreateSurvey(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestCanCreateSurvey_MissingAccountDenied(t *testing.T) {
	f := newGateFixture(t, false)

	d, err := f.gate.CanCreateSurvey(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "contact support")
}

func TestCanAddCollaborator_KindsAreIndependent(t *testing.T) {
	f := newGateFixture(t, false)

	f.accounts.byID[1] = testAccount(t, 1, tier.Free)
	d, err := f.gate.CanAddCollaborator(context.Background(), 1, survey.CollaboratorEditor)
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	// Pro allows editors but still no viewers.
	f.accounts.byID[1] = testAccount(t, 1, tier.Pro)
	d, err = f.gate.CanAddCollaborator(context.Background(), 1, survey.CollaboratorEditor)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = f.gate.CanAddCollaborator(context.Background(), 1, survey.CollaboratorViewer)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "Organization tier")

	f.accounts.byID[1] = testAccount(t, 1, tier.Organization)
	d, err = f.gate.CanAddCollaborator(context.Background(), 1, survey.CollaboratorViewer)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestCheckCollaboratorLimit(t *testing.T) {
	f := newGateFixture(t, false)
	f.accounts.byID[1] = testAccount(t, 1, tier.Pro)

	s, err := survey.NewSurvey(1, "Feedback")
	require.NoError(t, err)
	require.NoError(t, s.SetID(7))
	f.surveys.byID[7] = s

	f.collabs.count = 4
	d, err := f.gate.CheckCollaboratorLimit(context.Background(), 7, 1)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	f.collabs.count = 5
	d, err = f.gate.CheckCollaboratorLimit(context.Background(), 7, 1)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "up to 5 collaborators")
}

func TestCheckTeamMemberLimit_PerSizeClass(t *testing.T) {
	now := time.Now().UTC()
	tests := []struct {
		ownerTier tier.Tier
		members   int
		allowed   bool
	}{
		{tier.TeamSmall, 4, true},
		{tier.TeamSmall, 5, false},
		{tier.TeamMedium, 14, true},
		{tier.TeamMedium, 15, false},
		{tier.TeamLarge, 29, true},
		{tier.TeamLarge, 30, false},
		{tier.Organization, 500, true},
	}

	for _, tt := range tests {
		f := newGateFixture(t, false)
		f.accounts.byID[1] = testAccount(t, 1, tt.ownerTier)
		tm, err := team.Reconstruct(3, "tea_test", 1, "Research", 1, now, now)
		require.NoError(t, err)
		f.teams.byID[3] = tm
		f.teams.members = tt.members

		d, err := f.gate.CheckTeamMemberLimit(context.Background(), 3, 1)
		require.NoError(t, err)
		assert.Equal(t, tt.allowed, d.Allowed, "tier %s with %d members", tt.ownerTier, tt.members)
	}
}

func TestCheckOrgMemberLimit(t *testing.T) {
	now := time.Now().UTC()
	f := newGateFixture(t, false)
	f.accounts.byID[1] = testAccount(t, 1, tier.Organization)
	org, err := organization.Reconstruct(9, "org_test", 1, nil, "Clinic", 1, now, now)
	require.NoError(t, err)
	f.orgs.byID[9] = org

	f.orgs.members = 49
	d, err := f.gate.CheckOrgMemberLimit(context.Background(), 9, 1)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	f.orgs.members = 50
	d, err = f.gate.CheckOrgMemberLimit(context.Background(), 9, 1)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "Enterprise")
}

func TestFeatureEntitlements(t *testing.T) {
	ctx := context.Background()

	f := newGateFixture(t, false)
	f.accounts.byID[1] = testAccount(t, 1, tier.Free)
	f.accounts.byID[2] = testAccount(t, 2, tier.Pro)
	f.accounts.byID[3] = testAccount(t, 3, tier.Organization)
	f.accounts.byID[4] = testAccount(t, 4, tier.Enterprise)

	d, _ := f.gate.CanCustomizeBranding(ctx, 1)
	assert.False(t, d.Allowed)
	d, _ = f.gate.CanCustomizeBranding(ctx, 2)
	assert.True(t, d.Allowed)

	d, _ = f.gate.CanUseWebhooks(ctx, 1)
	assert.False(t, d.Allowed)
	d, _ = f.gate.CanUseWebhooks(ctx, 2)
	assert.True(t, d.Allowed)

	d, _ = f.gate.CanCollectPatientData(ctx, 2)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "Organization tier")
	d, _ = f.gate.CanCollectPatientData(ctx, 3)
	assert.True(t, d.Allowed)

	d, _ = f.gate.CanCreateTeam(ctx, 2)
	assert.False(t, d.Allowed)

	d, _ = f.gate.CanCreateSubOrganization(ctx, 3)
	assert.False(t, d.Allowed)
	d, _ = f.gate.CanCreateSubOrganization(ctx, 4)
	assert.True(t, d.Allowed)
}
