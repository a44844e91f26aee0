package entitlement

import (
	"context"
	"fmt"

	"quillform/internal/domain/account"
	"quillform/internal/domain/organization"
	"quillform/internal/domain/survey"
	"quillform/internal/domain/team"
	"quillform/internal/domain/tier"
	"quillform/internal/shared/logger"
)

// Decision is the result of a permission check. A denial is not an error:
// the reason is a user-facing upgrade prompt rendered verbatim by callers.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(format string, args ...any) Decision {
	return Decision{Allowed: false, Reason: fmt.Sprintf(format, args...)}
}

// deniedNoAccount is the unconditional denial for a missing account record.
// Accounts and profiles are created in one transaction, so hitting this
// means malformed data, never a normal state.
func deniedNoAccount() Decision {
	return deny("no account record found for this user; please contact support")
}

// Gate performs tier-limit checks. Every check loads the account fresh from
// durable storage immediately before deciding: tiers change between
// requests, and a stale in-memory copy would over- or under-admit.
type Gate struct {
	accounts      account.Repository
	surveys       survey.Repository
	collaborators survey.CollaboratorRepository
	teams         team.Repository
	orgs          organization.Repository
	resolver      *Resolver
	logger        logger.Interface
}

// NewGate creates a permission gate.
func NewGate(
	accounts account.Repository,
	surveys survey.Repository,
	collaborators survey.CollaboratorRepository,
	teams team.Repository,
	orgs organization.Repository,
	resolver *Resolver,
	logger logger.Interface,
) *Gate {
	return &Gate{
		accounts:      accounts,
		surveys:       surveys,
		collaborators: collaborators,
		teams:         teams,
		orgs:          orgs,
		resolver:      resolver,
		logger:        logger,
	}
}

// loadAccount fetches the account and resolves its effective limits.
func (g *Gate) loadAccount(ctx context.Context, accountID uint) (*account.Account, tier.Tier, tier.Limits, error) {
	acct, err := g.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, "", tier.Limits{}, fmt.Errorf("failed to load account %d: %w", accountID, err)
	}
	if acct == nil || acct.Profile() == nil {
		return nil, "", tier.Limits{}, nil
	}
	effective := g.resolver.EffectiveTier(acct)
	return acct, effective, tier.LimitsFor(effective), nil
}

// CanCreateSurvey checks the owned-original-survey ceiling.
func (g *Gate) CanCreateSurvey(ctx context.Context, accountID uint) (Decision, error) {
	acct, effective, limits, err := g.loadAccount(ctx, accountID)
	if err != nil {
		return Decision{}, err
	}
	if acct == nil {
		return deniedNoAccount(), nil
	}
	if limits.MaxSurveys == nil {
		return allow(), nil
	}
	count, err := g.surveys.CountOriginalByAccount(ctx, accountID)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to count surveys for account %d: %w", accountID, err)
	}
	if count < *limits.MaxSurveys {
		return allow(), nil
	}
	return deny("the %s tier allows up to %d surveys; upgrade to the %s tier for unlimited surveys",
		effective, *limits.MaxSurveys, tier.Pro), nil
}

// CanAddCollaborator checks whether the owner's tier allows collaborators of
// the given kind. Editor and viewer rights are independent booleans in the
// capability table, not an ordering.
func (g *Gate) CanAddCollaborator(ctx context.Context, ownerID uint, kind survey.CollaboratorKind) (Decision, error) {
	acct, effective, limits, err := g.loadAccount(ctx, ownerID)
	if err != nil {
		return Decision{}, err
	}
	if acct == nil {
		return deniedNoAccount(), nil
	}
	switch kind {
	case survey.CollaboratorEditor:
		if limits.CanAddEditors {
			return allow(), nil
		}
		return deny("the %s tier does not allow editor collaborators; upgrade to the %s tier to invite editors",
			effective, tier.Pro), nil
	case survey.CollaboratorViewer:
		if limits.CanAddViewers {
			return allow(), nil
		}
		return deny("the %s tier does not allow viewer collaborators; upgrade to the Organization tier to invite viewers",
			effective), nil
	default:
		return deny("unknown collaborator kind %q", kind), nil
	}
}

// CheckCollaboratorLimit checks the per-survey collaborator ceiling for
// adding additional collaborators to the given survey. The owner's tier is
// re-read from storage here, not taken from the request.
func (g *Gate) CheckCollaboratorLimit(ctx context.Context, surveyID uint, additional int) (Decision, error) {
	s, err := g.surveys.GetByID(ctx, surveyID)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to load survey %d: %w", surveyID, err)
	}
	if s == nil {
		return deny("survey not found"), nil
	}
	acct, effective, limits, err := g.loadAccount(ctx, s.AccountID())
	if err != nil {
		return Decision{}, err
	}
	if acct == nil {
		return deniedNoAccount(), nil
	}
	if limits.MaxCollaboratorsPerSurvey == nil {
		return allow(), nil
	}
	current, err := g.collaborators.CountBySurvey(ctx, surveyID)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to count collaborators for survey %d: %w", surveyID, err)
	}
	if current+additional <= *limits.MaxCollaboratorsPerSurvey {
		return allow(), nil
	}
	return deny("the %s tier allows up to %d collaborators per survey; upgrade to the Organization tier for unlimited collaborators",
		effective, *limits.MaxCollaboratorsPerSurvey), nil
}

// CanCustomizeBranding checks the branding entitlement.
func (g *Gate) CanCustomizeBranding(ctx context.Context, accountID uint) (Decision, error) {
	acct, effective, limits, err := g.loadAccount(ctx, accountID)
	if err != nil {
		return Decision{}, err
	}
	if acct == nil {
		return deniedNoAccount(), nil
	}
	if limits.CanCustomizeBranding {
		return allow(), nil
	}
	return deny("the %s tier does not include branding customization; upgrade to the %s tier to customize branding",
		effective, tier.Pro), nil
}

// CanUseWebhooks checks the webhook entitlement.
func (g *Gate) CanUseWebhooks(ctx context.Context, accountID uint) (Decision, error) {
	acct, effective, limits, err := g.loadAccount(ctx, accountID)
	if err != nil {
		return Decision{}, err
	}
	if acct == nil {
		return deniedNoAccount(), nil
	}
	if limits.CanUseWebhooks {
		return allow(), nil
	}
	return deny("the %s tier does not include webhooks; upgrade to the %s tier to use webhooks",
		effective, tier.Pro), nil
}

// CanCollectPatientData checks the sensitive-data entitlement.
func (g *Gate) CanCollectPatientData(ctx context.Context, accountID uint) (Decision, error) {
	acct, effective, limits, err := g.loadAccount(ctx, accountID)
	if err != nil {
		return Decision{}, err
	}
	if acct == nil {
		return deniedNoAccount(), nil
	}
	if limits.CanCollectPatientData {
		return allow(), nil
	}
	return deny("collecting patient data requires the Organization tier; the %s tier does not include it",
		effective), nil
}

// CanCreateTeam checks the team-creation entitlement.
func (g *Gate) CanCreateTeam(ctx context.Context, accountID uint) (Decision, error) {
	acct, effective, limits, err := g.loadAccount(ctx, accountID)
	if err != nil {
		return Decision{}, err
	}
	if acct == nil {
		return deniedNoAccount(), nil
	}
	if limits.CanCreateTeam {
		return allow(), nil
	}
	return deny("the %s tier does not include teams; upgrade to a Team tier to create teams", effective), nil
}

// CanCreateOrganization checks the organization-creation entitlement.
func (g *Gate) CanCreateOrganization(ctx context.Context, accountID uint) (Decision, error) {
	acct, effective, limits, err := g.loadAccount(ctx, accountID)
	if err != nil {
		return Decision{}, err
	}
	if acct == nil {
		return deniedNoAccount(), nil
	}
	if limits.CanCreateOrganization {
		return allow(), nil
	}
	return deny("the %s tier does not include organizations; upgrade to the Organization tier to create one",
		effective), nil
}

// CanCreateSubOrganization checks the sub-organization entitlement.
func (g *Gate) CanCreateSubOrganization(ctx context.Context, accountID uint) (Decision, error) {
	acct, effective, limits, err := g.loadAccount(ctx, accountID)
	if err != nil {
		return Decision{}, err
	}
	if acct == nil {
		return deniedNoAccount(), nil
	}
	if limits.CanCreateSubOrganization {
		return allow(), nil
	}
	return deny("sub-organizations require the Enterprise tier; the %s tier does not include them",
		effective), nil
}

// CheckTeamMemberLimit checks the team-member ceiling against the team
// owner's effective tier. Ceilings are per team size class, taken from each
// tier's own MaxTeamMembers rather than a single global number.
func (g *Gate) CheckTeamMemberLimit(ctx context.Context, teamID uint, additional int) (Decision, error) {
	t, err := g.teams.GetByID(ctx, teamID)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to load team %d: %w", teamID, err)
	}
	if t == nil {
		return deny("team not found"), nil
	}
	acct, effective, limits, err := g.loadAccount(ctx, t.AccountID())
	if err != nil {
		return Decision{}, err
	}
	if acct == nil {
		return deniedNoAccount(), nil
	}
	if limits.MaxTeamMembers == nil {
		return allow(), nil
	}
	current, err := g.teams.CountMembers(ctx, teamID)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to count members for team %d: %w", teamID, err)
	}
	if current+additional <= *limits.MaxTeamMembers {
		return allow(), nil
	}
	return deny("the %s tier allows up to %d members per team; upgrade to the Organization tier for unlimited members",
		effective, *limits.MaxTeamMembers), nil
}

// CheckOrgMemberLimit checks the organization-member ceiling.
func (g *Gate) CheckOrgMemberLimit(ctx context.Context, orgID uint, additional int) (Decision, error) {
	o, err := g.orgs.GetByID(ctx, orgID)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to load organization %d: %w", orgID, err)
	}
	if o == nil {
		return deny("organization not found"), nil
	}
	acct, effective, limits, err := g.loadAccount(ctx, o.AccountID())
	if err != nil {
		return Decision{}, err
	}
	if acct == nil {
		return deniedNoAccount(), nil
	}
	if limits.MaxOrgMembers == nil {
		return allow(), nil
	}
	current, err := g.orgs.CountMembers(ctx, orgID)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to count members for organization %d: %w", orgID, err)
	}
	if current+additional <= *limits.MaxOrgMembers {
		return allow(), nil
	}
	return deny("the %s tier allows up to %d organization members; upgrade to the Enterprise tier for unlimited members",
		effective, *limits.MaxOrgMembers), nil
}
