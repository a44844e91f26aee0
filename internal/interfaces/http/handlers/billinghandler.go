package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	billingUsecases "quillform/internal/application/billing/usecases"
	"quillform/internal/domain/account"
	"quillform/internal/domain/billing"
	"quillform/internal/interfaces/http/middleware"
	"quillform/internal/shared/logger"
	"quillform/internal/shared/utils"
)

// BillingHandler serves the webhook intake, self-service downgrades, and
// the payment ledger.
type BillingHandler struct {
	applyEventUC *billingUsecases.ApplyBillingEventUseCase
	downgradeUC  *billingUsecases.DowngradeUseCase
	ledger       billing.LedgerRepository
	logger       logger.Interface
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(
	applyEventUC *billingUsecases.ApplyBillingEventUseCase,
	downgradeUC *billingUsecases.DowngradeUseCase,
	ledger billing.LedgerRepository,
	logger logger.Interface,
) *BillingHandler {
	return &BillingHandler{
		applyEventUC: applyEventUC,
		downgradeUC:  downgradeUC,
		ledger:       ledger,
		logger:       logger,
	}
}

// webhookRequest is the normalized billing event. Signature verification
// happens at the gateway in front of this service; by the time a request
// reaches here its origin is trusted.
type webhookRequest struct {
	EventID        string     `json:"event_id" binding:"required"`
	ResourceType   string     `json:"resource_type" binding:"required,oneof=subscription payment"`
	Action         string     `json:"action" binding:"required,oneof=created updated cancelled confirmed"`
	SubscriptionID string     `json:"subscription_id" binding:"required"`
	CustomerID     string     `json:"customer_id"`
	MandateID      string     `json:"mandate_id"`
	Status         string     `json:"status"`
	PeriodEnd      *time.Time `json:"period_end"`
	Tier           string     `json:"tier"`
	AmountCents    int64      `json:"amount_cents"`
	Currency       string     `json:"currency"`
}

type downgradeRequest struct {
	Tier string `json:"tier" binding:"required"`
}

// Webhook handles POST /api/billing/webhook
func (h *BillingHandler) Webhook(c *gin.Context) {
	var req webhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	evt := billing.Event{
		EventID:        req.EventID,
		ResourceType:   billing.ResourceType(req.ResourceType),
		Action:         billing.Action(req.Action),
		SubscriptionID: req.SubscriptionID,
		CustomerID:     req.CustomerID,
		MandateID:      req.MandateID,
		Status:         account.SubscriptionStatus(req.Status),
		PeriodEnd:      req.PeriodEnd,
		Tier:           req.Tier,
		AmountCents:    req.AmountCents,
		Currency:       req.Currency,
	}

	if err := h.applyEventUC.Execute(c.Request.Context(), evt); err != nil {
		// Non-2xx makes the provider retry; only transient failures
		// should earn one. Validation failures will never succeed on
		// retry, and the use case already swallows duplicates.
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Event processed", nil)
}

// Downgrade handles POST /api/billing/downgrade
func (h *BillingHandler) Downgrade(c *gin.Context) {
	accountID, ok := middleware.AccountIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req downgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	applied, err := h.downgradeUC.Execute(c.Request.Context(), accountID, req.Tier)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Tier changed", gin.H{"tier": applied.String()})
}

// Ledger handles GET /api/billing/ledger
func (h *BillingHandler) Ledger(c *gin.Context) {
	accountID, ok := middleware.AccountIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	entries, err := h.ledger.ListByAccount(c.Request.Context(), accountID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	items := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		items = append(items, gin.H{
			"sid":          e.SID,
			"event_id":     e.EventID,
			"amount_cents": e.AmountCents,
			"currency":     e.Currency,
			"created_at":   e.CreatedAt,
		})
	}
	utils.SuccessResponse(c, http.StatusOK, "", gin.H{"entries": items})
}
