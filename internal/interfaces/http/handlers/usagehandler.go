package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quillform/internal/application/entitlement"
	"quillform/internal/domain/account"
	"quillform/internal/domain/survey"
	"quillform/internal/domain/tier"
	"quillform/internal/infrastructure/cache"
	"quillform/internal/interfaces/http/middleware"
	"quillform/internal/shared/logger"
	"quillform/internal/shared/utils"
)

// UsageHandler reports the account's tier, limits, and current usage. This
// is a display surface: survey counts may come from the cache. Permission
// decisions never read from here.
type UsageHandler struct {
	accounts   account.Repository
	surveys    survey.Repository
	resolver   *entitlement.Resolver
	statsCache *cache.SurveyStatsCache
	logger     logger.Interface
}

// NewUsageHandler creates a new UsageHandler.
func NewUsageHandler(
	accounts account.Repository,
	surveys survey.Repository,
	resolver *entitlement.Resolver,
	statsCache *cache.SurveyStatsCache,
	logger logger.Interface,
) *UsageHandler {
	return &UsageHandler{
		accounts:   accounts,
		surveys:    surveys,
		resolver:   resolver,
		statsCache: statsCache,
		logger:     logger,
	}
}

type limitsResponse struct {
	MaxSurveys                *int   `json:"max_surveys"`
	CanAddEditors             bool   `json:"can_add_editors"`
	CanAddViewers             bool   `json:"can_add_viewers"`
	MaxCollaboratorsPerSurvey *int   `json:"max_collaborators_per_survey"`
	CanCreateTeam             bool   `json:"can_create_team"`
	MaxTeamMembers            *int   `json:"max_team_members"`
	CanCreateOrganization     bool   `json:"can_create_organization"`
	CanCreateSubOrganization  bool   `json:"can_create_sub_organization"`
	MaxOrgMembers             *int   `json:"max_org_members"`
	CanCustomizeBranding      bool   `json:"can_customize_branding"`
	CanUseWebhooks            bool   `json:"can_use_webhooks"`
	CanCollectPatientData     bool   `json:"can_collect_patient_data"`
	Support                   string `json:"support"`
}

func toLimitsResponse(l tier.Limits) limitsResponse {
	return limitsResponse{
		MaxSurveys:                l.MaxSurveys,
		CanAddEditors:             l.CanAddEditors,
		CanAddViewers:             l.CanAddViewers,
		MaxCollaboratorsPerSurvey: l.MaxCollaboratorsPerSurvey,
		CanCreateTeam:             l.CanCreateTeam,
		MaxTeamMembers:            l.MaxTeamMembers,
		CanCreateOrganization:     l.CanCreateOrganization,
		CanCreateSubOrganization:  l.CanCreateSubOrganization,
		MaxOrgMembers:             l.MaxOrgMembers,
		CanCustomizeBranding:      l.CanCustomizeBranding,
		CanUseWebhooks:            l.CanUseWebhooks,
		CanCollectPatientData:     l.CanCollectPatientData,
		Support:                   string(l.Support),
	}
}

// Usage handles GET /api/accounts/me/usage
func (h *UsageHandler) Usage(c *gin.Context) {
	accountID, ok := middleware.AccountIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	ctx := c.Request.Context()
	acct, err := h.accounts.GetByID(ctx, accountID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if acct == nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Account not found")
		return
	}

	surveyCount, hit := h.statsCache.Get(ctx, accountID)
	if !hit {
		surveyCount, err = h.surveys.CountOriginalByAccount(ctx, accountID)
		if err != nil {
			utils.ErrorResponseWithError(c, err)
			return
		}
		h.statsCache.Set(ctx, accountID, surveyCount)
	}

	effective := h.resolver.EffectiveTier(acct)
	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"tier":         effective.String(),
		"status":       string(acct.Status()),
		"period_end":   acct.PeriodEnd(),
		"limits":       toLimitsResponse(tier.LimitsFor(effective)),
		"survey_count": surveyCount,
	})
}
