package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	retentionUsecases "quillform/internal/application/retention/usecases"
	"quillform/internal/interfaces/http/middleware"
	"quillform/internal/shared/logger"
	"quillform/internal/shared/utils"
)

// RetentionHandler serves the retention operations on closed surveys.
type RetentionHandler struct {
	extendUC       *retentionUsecases.ExtendRetentionUseCase
	cancelDeleteUC *retentionUsecases.CancelSoftDeletionUseCase
	legalHoldUC    *retentionUsecases.SetLegalHoldUseCase
	logger         logger.Interface
}

// NewRetentionHandler creates a new RetentionHandler.
func NewRetentionHandler(
	extendUC *retentionUsecases.ExtendRetentionUseCase,
	cancelDeleteUC *retentionUsecases.CancelSoftDeletionUseCase,
	legalHoldUC *retentionUsecases.SetLegalHoldUseCase,
	logger logger.Interface,
) *RetentionHandler {
	return &RetentionHandler{
		extendUC:       extendUC,
		cancelDeleteUC: cancelDeleteUC,
		legalHoldUC:    legalHoldUC,
		logger:         logger,
	}
}

type extendRetentionRequest struct {
	Months     int    `json:"months" binding:"required,min=1"`
	ApprovedBy uint   `json:"approved_by"`
	Reason     string `json:"reason" binding:"required"`
}

type legalHoldRequest struct {
	Hold *bool `json:"hold" binding:"required"`
}

// Extend handles POST /api/surveys/:sid/retention/extend
func (h *RetentionHandler) Extend(c *gin.Context) {
	accountID, ok := middleware.AccountIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req extendRetentionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	result, err := h.extendUC.Execute(c.Request.Context(), retentionUsecases.ExtendRetentionCommand{
		SurveySID:   c.Param("sid"),
		Months:      req.Months,
		RequestedBy: accountID,
		ApprovedBy:  req.ApprovedBy,
		Reason:      req.Reason,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Retention extended", gin.H{
		"previous_deletion_date": result.PreviousDeletionDate,
		"new_deletion_date":      result.NewDeletionDate,
		"retention_months":       result.RetentionMonths,
	})
}

// CancelDeletion handles POST /api/surveys/:sid/retention/cancel-deletion
func (h *RetentionHandler) CancelDeletion(c *gin.Context) {
	s, err := h.cancelDeleteUC.Execute(c.Request.Context(), c.Param("sid"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Deletion cancelled", gin.H{
		"sid":           s.SID(),
		"deletion_date": s.DeletionDate(),
	})
}

// SetLegalHold handles PUT /api/surveys/:sid/retention/legal-hold
func (h *RetentionHandler) SetLegalHold(c *gin.Context) {
	var req legalHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	s, err := h.legalHoldUC.Execute(c.Request.Context(), c.Param("sid"), *req.Hold)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Legal hold updated", gin.H{
		"sid":        s.SID(),
		"legal_hold": s.LegalHold(),
	})
}
