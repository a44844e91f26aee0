// Package constants defines shared constants such as table names.
package constants

const (
	TableAccounts            = "accounts"
	TableProfiles            = "profiles"
	TableSurveys             = "surveys"
	TableCollaborators       = "survey_collaborators"
	TableTeams               = "teams"
	TableTeamMembers         = "team_members"
	TableOrganizations       = "organizations"
	TableOrgMembers          = "organization_members"
	TableBillingEvents       = "billing_events"
	TablePaymentLedger       = "payment_ledger"
	TableRetentionExtensions = "retention_extensions"
)
