package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	surveyUsecases "quillform/internal/application/survey/usecases"
	"quillform/internal/domain/survey"
	"quillform/internal/infrastructure/cache"
	"quillform/internal/interfaces/http/middleware"
	"quillform/internal/shared/logger"
	"quillform/internal/shared/utils"
)

// SurveyHandler serves survey authoring and collaborator management.
type SurveyHandler struct {
	createUC         *surveyUsecases.CreateSurveyUseCase
	closeUC          *surveyUsecases.CloseSurveyUseCase
	duplicateUC      *surveyUsecases.DuplicateSurveyUseCase
	addCollabUC      *surveyUsecases.AddCollaboratorUseCase
	setPatientDataUC *surveyUsecases.SetPatientDataUseCase
	configWebhookUC  *surveyUsecases.ConfigureWebhookUseCase
	surveys          survey.Repository
	collaborators    survey.CollaboratorRepository
	statsCache       *cache.SurveyStatsCache
	logger           logger.Interface
}

// NewSurveyHandler creates a new SurveyHandler.
func NewSurveyHandler(
	createUC *surveyUsecases.CreateSurveyUseCase,
	closeUC *surveyUsecases.CloseSurveyUseCase,
	duplicateUC *surveyUsecases.DuplicateSurveyUseCase,
	addCollabUC *surveyUsecases.AddCollaboratorUseCase,
	setPatientDataUC *surveyUsecases.SetPatientDataUseCase,
	configWebhookUC *surveyUsecases.ConfigureWebhookUseCase,
	surveys survey.Repository,
	collaborators survey.CollaboratorRepository,
	statsCache *cache.SurveyStatsCache,
	logger logger.Interface,
) *SurveyHandler {
	return &SurveyHandler{
		createUC:         createUC,
		closeUC:          closeUC,
		duplicateUC:      duplicateUC,
		addCollabUC:      addCollabUC,
		setPatientDataUC: setPatientDataUC,
		configWebhookUC:  configWebhookUC,
		surveys:          surveys,
		collaborators:    collaborators,
		statsCache:       statsCache,
		logger:           logger,
	}
}

type createSurveyRequest struct {
	Title  string `json:"title" binding:"required,max=255"`
	TeamID *uint  `json:"team_id"`
}

type closeSurveyRequest struct {
	RetentionMonths int `json:"retention_months" binding:"omitempty,min=6,max=24"`
}

type duplicateSurveyRequest struct {
	Title string `json:"title" binding:"omitempty,max=255"`
}

type addCollaboratorRequest struct {
	AccountID uint   `json:"account_id" binding:"required"`
	Kind      string `json:"kind" binding:"required,oneof=editor viewer"`
}

type setPatientDataRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type configureWebhookRequest struct {
	// Empty URL clears the webhook.
	URL string `json:"url" binding:"omitempty,url"`
}

type surveyResponse struct {
	SID              string     `json:"sid"`
	Title            string     `json:"title"`
	TeamID           *uint      `json:"team_id,omitempty"`
	IsDuplicate      bool       `json:"is_duplicate"`
	PatientData      bool       `json:"patient_data"`
	WebhookURL       string     `json:"webhook_url,omitempty"`
	ClosedAt         *time.Time `json:"closed_at,omitempty"`
	RetentionMonths  int        `json:"retention_months,omitempty"`
	DeletionDate     *time.Time `json:"deletion_date,omitempty"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty"`
	HardDeletionDate *time.Time `json:"hard_deletion_date,omitempty"`
	LegalHold        bool       `json:"legal_hold"`
	CreatedAt        time.Time  `json:"created_at"`
}

func toSurveyResponse(s *survey.Survey) surveyResponse {
	return surveyResponse{
		SID:              s.SID(),
		Title:            s.Title(),
		TeamID:           s.TeamID(),
		IsDuplicate:      s.IsDuplicate(),
		PatientData:      s.PatientData(),
		WebhookURL:       s.WebhookURL(),
		ClosedAt:         s.ClosedAt(),
		RetentionMonths:  s.RetentionMonths(),
		DeletionDate:     s.DeletionDate(),
		DeletedAt:        s.DeletedAt(),
		HardDeletionDate: s.HardDeletionDate(),
		LegalHold:        s.LegalHold(),
		CreatedAt:        s.CreatedAt(),
	}
}

// Create handles POST /api/surveys
func (h *SurveyHandler) Create(c *gin.Context) {
	accountID, ok := middleware.AccountIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req createSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	s, err := h.createUC.Execute(c.Request.Context(), surveyUsecases.CreateSurveyCommand{
		AccountID: accountID,
		Title:     req.Title,
		TeamID:    req.TeamID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.statsCache.Invalidate(c.Request.Context(), accountID)
	utils.CreatedResponse(c, toSurveyResponse(s), "Survey created successfully")
}

// List handles GET /api/surveys
func (h *SurveyHandler) List(c *gin.Context) {
	accountID, ok := middleware.AccountIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	surveys, err := h.surveys.ListByAccount(c.Request.Context(), accountID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	items := make([]surveyResponse, 0, len(surveys))
	for _, s := range surveys {
		items = append(items, toSurveyResponse(s))
	}
	utils.SuccessResponse(c, http.StatusOK, "", gin.H{"surveys": items})
}

// Get handles GET /api/surveys/:sid
func (h *SurveyHandler) Get(c *gin.Context) {
	s, ok := h.loadOwnedSurvey(c)
	if !ok {
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", toSurveyResponse(s))
}

// Close handles POST /api/surveys/:sid/close
func (h *SurveyHandler) Close(c *gin.Context) {
	if _, ok := h.loadOwnedSurvey(c); !ok {
		return
	}

	// Body is optional; an absent body means the default retention period.
	var req closeSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	s, err := h.closeUC.Execute(c.Request.Context(), c.Param("sid"), req.RetentionMonths)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Survey closed", toSurveyResponse(s))
}

// Duplicate handles POST /api/surveys/:sid/duplicate
func (h *SurveyHandler) Duplicate(c *gin.Context) {
	accountID, ok := middleware.AccountIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	if _, ok := h.loadOwnedSurvey(c); !ok {
		return
	}

	var req duplicateSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	dup, err := h.duplicateUC.Execute(c.Request.Context(), c.Param("sid"), req.Title)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.statsCache.Invalidate(c.Request.Context(), accountID)
	utils.CreatedResponse(c, toSurveyResponse(dup), "Survey duplicated successfully")
}

// AddCollaborator handles POST /api/surveys/:sid/collaborators
func (h *SurveyHandler) AddCollaborator(c *gin.Context) {
	accountID, ok := middleware.AccountIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	if _, ok := h.loadOwnedSurvey(c); !ok {
		return
	}

	var req addCollaboratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	collab, err := h.addCollabUC.Execute(c.Request.Context(), surveyUsecases.AddCollaboratorCommand{
		SurveySID: c.Param("sid"),
		AccountID: req.AccountID,
		Kind:      survey.CollaboratorKind(req.Kind),
		AddedBy:   accountID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"account_id": collab.AccountID,
		"kind":       string(collab.Kind),
		"added_at":   collab.CreatedAt,
	}, "Collaborator added successfully")
}

// ListCollaborators handles GET /api/surveys/:sid/collaborators
func (h *SurveyHandler) ListCollaborators(c *gin.Context) {
	s, ok := h.loadOwnedSurvey(c)
	if !ok {
		return
	}

	collabs, err := h.collaborators.ListBySurvey(c.Request.Context(), s.ID())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	items := make([]gin.H, 0, len(collabs))
	for _, collab := range collabs {
		items = append(items, gin.H{
			"account_id": collab.AccountID,
			"kind":       string(collab.Kind),
			"added_by":   collab.AddedBy,
			"added_at":   collab.CreatedAt,
		})
	}
	utils.SuccessResponse(c, http.StatusOK, "", gin.H{"collaborators": items})
}

// RemoveCollaborator handles DELETE /api/surveys/:sid/collaborators/:account_id
func (h *SurveyHandler) RemoveCollaborator(c *gin.Context) {
	s, ok := h.loadOwnedSurvey(c)
	if !ok {
		return
	}

	var uri struct {
		AccountID uint `uri:"account_id" binding:"required"`
	}
	if err := c.ShouldBindUri(&uri); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid account id")
		return
	}

	if err := h.collaborators.Remove(c.Request.Context(), s.ID(), uri.AccountID); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Collaborator removed", nil)
}

// SetPatientData handles PUT /api/surveys/:sid/patient-data
func (h *SurveyHandler) SetPatientData(c *gin.Context) {
	if _, ok := h.loadOwnedSurvey(c); !ok {
		return
	}

	var req setPatientDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	s, err := h.setPatientDataUC.Execute(c.Request.Context(), c.Param("sid"), *req.Enabled)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Patient data collection updated", toSurveyResponse(s))
}

// ConfigureWebhook handles PUT /api/surveys/:sid/webhook
func (h *SurveyHandler) ConfigureWebhook(c *gin.Context) {
	if _, ok := h.loadOwnedSurvey(c); !ok {
		return
	}

	var req configureWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	s, err := h.configWebhookUC.Execute(c.Request.Context(), c.Param("sid"), req.URL)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Webhook updated", toSurveyResponse(s))
}

// loadOwnedSurvey resolves :sid and enforces that the caller owns the
// survey. Writes the error response itself when it returns false.
func (h *SurveyHandler) loadOwnedSurvey(c *gin.Context) (*survey.Survey, bool) {
	accountID, ok := middleware.AccountIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}

	s, err := h.surveys.GetBySID(c.Request.Context(), c.Param("sid"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return nil, false
	}
	if s == nil || s.AccountID() != accountID {
		// Hide existence of other accounts' surveys.
		utils.ErrorResponse(c, http.StatusNotFound, "Survey not found")
		return nil, false
	}
	return s, true
}
