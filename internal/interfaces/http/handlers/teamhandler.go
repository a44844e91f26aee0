package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	teamUsecases "quillform/internal/application/team/usecases"
	"quillform/internal/interfaces/http/middleware"
	"quillform/internal/shared/logger"
	"quillform/internal/shared/utils"
)

// TeamHandler serves team management.
type TeamHandler struct {
	createUC    *teamUsecases.CreateTeamUseCase
	addMemberUC *teamUsecases.AddTeamMemberUseCase
	logger      logger.Interface
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(
	createUC *teamUsecases.CreateTeamUseCase,
	addMemberUC *teamUsecases.AddTeamMemberUseCase,
	logger logger.Interface,
) *TeamHandler {
	return &TeamHandler{
		createUC:    createUC,
		addMemberUC: addMemberUC,
		logger:      logger,
	}
}

type createTeamRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

type addTeamMemberRequest struct {
	AccountID uint   `json:"account_id" binding:"required"`
	Role      string `json:"role" binding:"required,oneof=admin member"`
}

// Create handles POST /api/teams
func (h *TeamHandler) Create(c *gin.Context) {
	accountID, ok := middleware.AccountIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req createTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	t, err := h.createUC.Execute(c.Request.Context(), accountID, req.Name)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"sid":        t.SID(),
		"name":       t.Name(),
		"created_at": t.CreatedAt(),
	}, "Team created successfully")
}

// AddMember handles POST /api/teams/:sid/members
func (h *TeamHandler) AddMember(c *gin.Context) {
	var req addTeamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	if err := h.addMemberUC.Execute(c.Request.Context(), c.Param("sid"), req.AccountID, req.Role); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, nil, "Team member added successfully")
}
