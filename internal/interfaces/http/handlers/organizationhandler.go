package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	orgUsecases "quillform/internal/application/organization/usecases"
	"quillform/internal/interfaces/http/middleware"
	"quillform/internal/shared/logger"
	"quillform/internal/shared/utils"
)

// OrganizationHandler serves organization management.
type OrganizationHandler struct {
	createUC    *orgUsecases.CreateOrganizationUseCase
	addMemberUC *orgUsecases.AddOrgMemberUseCase
	logger      logger.Interface
}

// NewOrganizationHandler creates a new OrganizationHandler.
func NewOrganizationHandler(
	createUC *orgUsecases.CreateOrganizationUseCase,
	addMemberUC *orgUsecases.AddOrgMemberUseCase,
	logger logger.Interface,
) *OrganizationHandler {
	return &OrganizationHandler{
		createUC:    createUC,
		addMemberUC: addMemberUC,
		logger:      logger,
	}
}

type createOrganizationRequest struct {
	Name      string `json:"name" binding:"required,max=255"`
	ParentSID string `json:"parent_sid"`
}

type addOrgMemberRequest struct {
	AccountID uint   `json:"account_id" binding:"required"`
	Role      string `json:"role" binding:"required,oneof=owner admin member"`
}

// Create handles POST /api/organizations
func (h *OrganizationHandler) Create(c *gin.Context) {
	accountID, ok := middleware.AccountIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req createOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	org, err := h.createUC.Execute(c.Request.Context(), orgUsecases.CreateOrganizationCommand{
		AccountID: accountID,
		Name:      req.Name,
		ParentSID: req.ParentSID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"sid":        org.SID(),
		"name":       org.Name(),
		"is_sub_org": org.IsSubOrg(),
		"created_at": org.CreatedAt(),
	}, "Organization created successfully")
}

// AddMember handles POST /api/organizations/:sid/members
func (h *OrganizationHandler) AddMember(c *gin.Context) {
	var req addOrgMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	if err := h.addMemberUC.Execute(c.Request.Context(), c.Param("sid"), req.AccountID, req.Role); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, nil, "Organization member added successfully")
}
