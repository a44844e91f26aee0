package tier

// SupportLevel is the support channel a tier is entitled to.
type SupportLevel string

const (
	SupportCommunity SupportLevel = "community"
	SupportEmail     SupportLevel = "email"
	SupportPriority  SupportLevel = "priority"
	SupportDedicated SupportLevel = "dedicated"
)

// Limits is the immutable capability record for a tier. Nil pointer fields
// mean unlimited. Collaborator kinds are independent booleans: a tier that
// allows editors does not implicitly allow viewers.
type Limits struct {
	MaxSurveys                *int
	CanAddEditors             bool
	CanAddViewers             bool
	MaxCollaboratorsPerSurvey *int
	CanCreateTeam             bool
	MaxTeamMembers            *int
	CanCreateOrganization     bool
	CanCreateSubOrganization  bool
	MaxOrgMembers             *int
	CanCustomizeBranding      bool
	CanUseCustomDomain        bool
	CanWhiteLabel             bool
	CanUseAPI                 bool
	CanExportData             bool
	CanUseWebhooks            bool
	CanCollectPatientData     bool
	Support                   SupportLevel
}

func intPtr(n int) *int {
	v := n
	return &v
}

// catalog is the single source of truth for per-tier limits. Defined once at
// process start, never mutated.
var catalog = map[Tier]Limits{
	Free: {
		MaxSurveys:                intPtr(3),
		MaxCollaboratorsPerSurvey: intPtr(0),
		CanExportData:             true,
		Support:                   SupportCommunity,
	},
	Pro: {
		MaxSurveys:                nil,
		CanAddEditors:             true,
		MaxCollaboratorsPerSurvey: intPtr(5),
		CanCustomizeBranding:      true,
		CanUseAPI:                 true,
		CanExportData:             true,
		CanUseWebhooks:            true,
		Support:                   SupportEmail,
	},
	TeamSmall: {
		MaxSurveys:                nil,
		CanAddEditors:             true,
		MaxCollaboratorsPerSurvey: intPtr(10),
		CanCreateTeam:             true,
		MaxTeamMembers:            intPtr(5),
		CanCustomizeBranding:      true,
		CanUseAPI:                 true,
		CanExportData:             true,
		CanUseWebhooks:            true,
		Support:                   SupportEmail,
	},
	TeamMedium: {
		MaxSurveys:                nil,
		CanAddEditors:             true,
		MaxCollaboratorsPerSurvey: intPtr(15),
		CanCreateTeam:             true,
		MaxTeamMembers:            intPtr(15),
		CanCustomizeBranding:      true,
		CanUseAPI:                 true,
		CanExportData:             true,
		CanUseWebhooks:            true,
		Support:                   SupportPriority,
	},
	TeamLarge: {
		MaxSurveys:                nil,
		CanAddEditors:             true,
		MaxCollaboratorsPerSurvey: intPtr(25),
		CanCreateTeam:             true,
		MaxTeamMembers:            intPtr(30),
		CanCustomizeBranding:      true,
		CanUseAPI:                 true,
		CanExportData:             true,
		CanUseWebhooks:            true,
		Support:                   SupportPriority,
	},
	Organization: {
		MaxSurveys:                nil,
		CanAddEditors:             true,
		CanAddViewers:             true,
		MaxCollaboratorsPerSurvey: nil,
		CanCreateTeam:             true,
		MaxTeamMembers:            nil,
		CanCreateOrganization:     true,
		MaxOrgMembers:             intPtr(50),
		CanCustomizeBranding:      true,
		CanUseCustomDomain:        true,
		CanUseAPI:                 true,
		CanExportData:             true,
		CanUseWebhooks:            true,
		CanCollectPatientData:     true,
		Support:                   SupportPriority,
	},
	Enterprise: {
		MaxSurveys:                nil,
		CanAddEditors:             true,
		CanAddViewers:             true,
		MaxCollaboratorsPerSurvey: nil,
		CanCreateTeam:             true,
		MaxTeamMembers:            nil,
		CanCreateOrganization:     true,
		CanCreateSubOrganization:  true,
		MaxOrgMembers:             nil,
		CanCustomizeBranding:      true,
		CanUseCustomDomain:        true,
		CanWhiteLabel:             true,
		CanUseAPI:                 true,
		CanExportData:             true,
		CanUseWebhooks:            true,
		CanCollectPatientData:     true,
		Support:                   SupportDedicated,
	},
}

// LimitsFor returns the capability record for the given tier. Unknown tiers
// fall back to the free tier's limits: the safe default is the most
// restrictive set, never a permissive one.
func LimitsFor(t Tier) Limits {
	if limits, ok := catalog[t]; ok {
		return limits
	}
	return catalog[Free]
}
