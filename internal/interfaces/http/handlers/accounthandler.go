// Package handlers contains the gin HTTP handlers. Handlers bind and
// validate transport payloads, delegate to use cases, and shape responses;
// no business rules live here.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	accountUsecases "quillform/internal/application/account/usecases"
	"quillform/internal/domain/account"
	"quillform/internal/infrastructure/auth"
	"quillform/internal/interfaces/http/middleware"
	"quillform/internal/shared/logger"
	"quillform/internal/shared/utils"
)

// AccountHandler serves registration, login, and account settings.
type AccountHandler struct {
	registerUC       *accountUsecases.RegisterUseCase
	loginUC          *accountUsecases.LoginUseCase
	updateBrandingUC *accountUsecases.UpdateBrandingUseCase
	jwtService       *auth.JWTService
	logger           logger.Interface
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(
	registerUC *accountUsecases.RegisterUseCase,
	loginUC *accountUsecases.LoginUseCase,
	updateBrandingUC *accountUsecases.UpdateBrandingUseCase,
	jwtService *auth.JWTService,
	logger logger.Interface,
) *AccountHandler {
	return &AccountHandler{
		registerUC:       registerUC,
		loginUC:          loginUC,
		updateBrandingUC: updateBrandingUC,
		jwtService:       jwtService,
		logger:           logger,
	}
}

type registerRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type updateBrandingRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type accountResponse struct {
	SID            string     `json:"sid"`
	Email          string     `json:"email"`
	DisplayName    string     `json:"display_name"`
	Tier           string     `json:"tier"`
	Status         string     `json:"status"`
	PeriodEnd      *time.Time `json:"period_end,omitempty"`
	CustomBranding bool       `json:"custom_branding"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toAccountResponse(acct *account.Account) accountResponse {
	resp := accountResponse{
		SID:            acct.SID(),
		Email:          acct.Email(),
		Tier:           acct.Tier().String(),
		Status:         string(acct.Status()),
		PeriodEnd:      acct.PeriodEnd(),
		CustomBranding: acct.CustomBranding(),
		CreatedAt:      acct.CreatedAt(),
	}
	if p := acct.Profile(); p != nil {
		resp.DisplayName = p.DisplayName
	}
	return resp
}

// Register handles POST /api/accounts
func (h *AccountHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	acct, err := h.registerUC.Execute(c.Request.Context(), accountUsecases.RegisterCommand{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, toAccountResponse(acct), "Account registered successfully")
}

// Login handles POST /api/auth/login
func (h *AccountHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	acct, err := h.loginUC.Execute(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	token, err := h.jwtService.Issue(acct.ID(), acct.SID())
	if err != nil {
		h.logger.Errorw("failed to issue token", "account", acct.SID(), "error", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Login successful", gin.H{
		"token":   token,
		"account": toAccountResponse(acct),
	})
}

// UpdateBranding handles PUT /api/accounts/me/branding
func (h *AccountHandler) UpdateBranding(c *gin.Context) {
	accountID, ok := middleware.AccountIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req updateBrandingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	if err := h.updateBrandingUC.Execute(c.Request.Context(), accountID, *req.Enabled); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Branding updated", nil)
}
