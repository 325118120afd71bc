// Package webhook provides the inbound CRM webhook bounded context module.
// This file defines the module that encapsulates all webhook setup and route registration.
package webhook

import (
	apphttp "areabutler_backend/internal/http"
	"areabutler_backend/platform/logger"
	"areabutler_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the webhook bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	repo    *Repository
}

// NewModule creates and initializes the webhook module with all its dependencies.
func NewModule(pool *pgxpool.Pool, importer ListingImporter, val *validator.Validator, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	service := NewService(repo, importer, log)
	handler := NewHandler(service, val)

	return &Module{
		handler: handler,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts webhook routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// CRM push endpoint (API key auth, no JWT)
	webhookGroup := ctx.V1.Group("/webhook")
	if ctx.IntakeRateLimiter != nil {
		webhookGroup.Use(ctx.IntakeRateLimiter.RateLimit())
	}
	webhookGroup.Use(APIKeyAuthMiddleware(m.repo))
	webhookGroup.POST("/propstack", m.handler.HandlePropstack)

	// Admin API key management (JWT auth + admin role)
	adminGroup := ctx.Admin.Group("/webhook/keys")
	adminGroup.POST("", m.handler.HandleCreateAPIKey)
	adminGroup.GET("", m.handler.HandleListAPIKeys)
	adminGroup.DELETE("/:keyId", m.handler.HandleRevokeAPIKey)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
