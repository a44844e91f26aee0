// Package http wires the gin engine: routes, middleware, and the handler
// dependency graph.
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	accountUsecases "quillform/internal/application/account/usecases"
	billingUsecases "quillform/internal/application/billing/usecases"
	"quillform/internal/application/entitlement"
	"quillform/internal/application/notification"
	orgUsecases "quillform/internal/application/organization/usecases"
	retentionUsecases "quillform/internal/application/retention/usecases"
	surveyUsecases "quillform/internal/application/survey/usecases"
	teamUsecases "quillform/internal/application/team/usecases"
	"quillform/internal/infrastructure/auth"
	"quillform/internal/infrastructure/cache"
	"quillform/internal/infrastructure/config"
	"quillform/internal/infrastructure/repository"
	"quillform/internal/interfaces/http/handlers"
	"quillform/internal/interfaces/http/middleware"
	"quillform/internal/shared/db"
	"quillform/internal/shared/logger"
)

// Router holds the configured engine and its route dependencies.
type Router struct {
	engine         *gin.Engine
	accountHandler *handlers.AccountHandler
	surveyHandler  *handlers.SurveyHandler
	billingHandler *handlers.BillingHandler
	retentionHdlr  *handlers.RetentionHandler
	teamHandler    *handlers.TeamHandler
	orgHandler     *handlers.OrganizationHandler
	usageHandler   *handlers.UsageHandler
	docsHandler    *handlers.DocsHandler
	authMiddleware *middleware.AuthMiddleware
	allowedOrigins []string
}

// NewRouter builds the full handler graph on top of the shared database,
// redis client, and notifier.
func NewRouter(
	database *gorm.DB,
	redisClient *redis.Client,
	notifier notification.Notifier,
	cfg *config.Config,
	log logger.Interface,
) *Router {
	engine := gin.New()

	accountRepo := repository.NewAccountRepository(database, log)
	surveyRepo := repository.NewSurveyRepository(database, log)
	collabRepo := repository.NewCollaboratorRepository(database, log)
	extensionRepo := repository.NewRetentionExtensionRepository(database, log)
	teamRepo := repository.NewTeamRepository(database, log)
	orgRepo := repository.NewOrganizationRepository(database, log)
	eventRepo := repository.NewBillingEventRepository(database, log)
	ledgerRepo := repository.NewPaymentLedgerRepository(database, log)

	txManager := db.NewTransactionManager(database)
	resolver := entitlement.NewResolver(cfg.Server.SelfHosted)
	gate := entitlement.NewGate(accountRepo, surveyRepo, collabRepo, teamRepo, orgRepo, resolver, log)
	statsCache := cache.NewSurveyStatsCache(redisClient, log)
	jwtService := auth.NewJWTService(cfg.Auth.JWT)

	registerUC := accountUsecases.NewRegisterUseCase(accountRepo, txManager, cfg.Auth.BcryptCost, log)
	loginUC := accountUsecases.NewLoginUseCase(accountRepo, log)
	updateBrandingUC := accountUsecases.NewUpdateBrandingUseCase(accountRepo, gate, log)

	createSurveyUC := surveyUsecases.NewCreateSurveyUseCase(surveyRepo, gate, txManager, log)
	closeSurveyUC := surveyUsecases.NewCloseSurveyUseCase(surveyRepo, log)
	duplicateSurveyUC := surveyUsecases.NewDuplicateSurveyUseCase(surveyRepo, log)
	addCollabUC := surveyUsecases.NewAddCollaboratorUseCase(surveyRepo, collabRepo, gate, txManager, log)
	setPatientDataUC := surveyUsecases.NewSetPatientDataUseCase(surveyRepo, gate, log)
	configWebhookUC := surveyUsecases.NewConfigureWebhookUseCase(surveyRepo, gate, log)

	applyEventUC := billingUsecases.NewApplyBillingEventUseCase(
		accountRepo, surveyRepo, eventRepo, ledgerRepo, notifier, txManager, log)
	downgradeUC := billingUsecases.NewDowngradeUseCase(accountRepo, surveyRepo, txManager, log)

	extendRetentionUC := retentionUsecases.NewExtendRetentionUseCase(
		surveyRepo, accountRepo, extensionRepo, txManager, notifier, log)
	cancelDeletionUC := retentionUsecases.NewCancelSoftDeletionUseCase(surveyRepo, accountRepo, notifier, log)
	legalHoldUC := retentionUsecases.NewSetLegalHoldUseCase(surveyRepo, log)

	createTeamUC := teamUsecases.NewCreateTeamUseCase(teamRepo, gate, log)
	addTeamMemberUC := teamUsecases.NewAddTeamMemberUseCase(teamRepo, gate, txManager, log)

	createOrgUC := orgUsecases.NewCreateOrganizationUseCase(orgRepo, gate, log)
	addOrgMemberUC := orgUsecases.NewAddOrgMemberUseCase(orgRepo, gate, txManager, log)

	return &Router{
		engine: engine,
		accountHandler: handlers.NewAccountHandler(
			registerUC, loginUC, updateBrandingUC, jwtService, log),
		surveyHandler: handlers.NewSurveyHandler(
			createSurveyUC, closeSurveyUC, duplicateSurveyUC, addCollabUC,
			setPatientDataUC, configWebhookUC, surveyRepo, collabRepo, statsCache, log),
		billingHandler: handlers.NewBillingHandler(applyEventUC, downgradeUC, ledgerRepo, log),
		retentionHdlr:  handlers.NewRetentionHandler(extendRetentionUC, cancelDeletionUC, legalHoldUC, log),
		teamHandler:    handlers.NewTeamHandler(createTeamUC, addTeamMemberUC, log),
		orgHandler:     handlers.NewOrganizationHandler(createOrgUC, addOrgMemberUC, log),
		usageHandler:   handlers.NewUsageHandler(accountRepo, surveyRepo, resolver, statsCache, log),
		docsHandler:    handlers.NewDocsHandler(cfg.Docs, log),
		authMiddleware: middleware.NewAuthMiddleware(jwtService, log),
		allowedOrigins: cfg.Server.AllowedOrigins,
	}
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes() {
	r.engine.Use(middleware.Logger(logger.NewLogger()))
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.CORS(r.allowedOrigins))

	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.engine.Group("/api")

	api.POST("/accounts", r.accountHandler.Register)
	api.POST("/auth/login", r.accountHandler.Login)

	// Provider webhook; authenticated upstream, not by account token.
	api.POST("/billing/webhook", r.billingHandler.Webhook)

	api.GET("/docs", r.docsHandler.List)
	api.GET("/docs/:page", r.docsHandler.Page)

	authed := api.Group("")
	authed.Use(r.authMiddleware.RequireAuth())
	{
		authed.PUT("/accounts/me/branding", r.accountHandler.UpdateBranding)
		authed.GET("/accounts/me/usage", r.usageHandler.Usage)

		authed.POST("/surveys", r.surveyHandler.Create)
		authed.GET("/surveys", r.surveyHandler.List)
		authed.GET("/surveys/:sid", r.surveyHandler.Get)
		authed.POST("/surveys/:sid/close", r.surveyHandler.Close)
		authed.POST("/surveys/:sid/duplicate", r.surveyHandler.Duplicate)
		authed.PUT("/surveys/:sid/patient-data", r.surveyHandler.SetPatientData)
		authed.PUT("/surveys/:sid/webhook", r.surveyHandler.ConfigureWebhook)
		authed.POST("/surveys/:sid/collaborators", r.surveyHandler.AddCollaborator)
		authed.GET("/surveys/:sid/collaborators", r.surveyHandler.ListCollaborators)
		authed.DELETE("/surveys/:sid/collaborators/:account_id", r.surveyHandler.RemoveCollaborator)

		authed.POST("/surveys/:sid/retention/extend", r.retentionHdlr.Extend)
		authed.POST("/surveys/:sid/retention/cancel-deletion", r.retentionHdlr.CancelDeletion)
		authed.PUT("/surveys/:sid/retention/legal-hold", r.retentionHdlr.SetLegalHold)

		authed.POST("/billing/downgrade", r.billingHandler.Downgrade)
		authed.GET("/billing/ledger", r.billingHandler.Ledger)

		authed.POST("/teams", r.teamHandler.Create)
		authed.POST("/teams/:sid/members", r.teamHandler.AddMember)

		authed.POST("/organizations", r.orgHandler.Create)
		authed.POST("/organizations/:sid/members", r.orgHandler.AddMember)
	}
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
