// Package realestate provides the real-estate listings bounded context module.
package realestate

import (
	"areabutler_backend/internal/events"
	apphttp "areabutler_backend/internal/http"
	"areabutler_backend/internal/realestate/domain"
	"areabutler_backend/internal/realestate/handler"
	"areabutler_backend/internal/realestate/repository"
	"areabutler_backend/internal/realestate/service"
	"areabutler_backend/platform/logger"
	"areabutler_backend/platform/secrets"
	"areabutler_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the real-estate bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the real-estate module with all its dependencies.
func NewModule(
	pool *pgxpool.Pool,
	eventBus events.Bus,
	resolver *domain.StatusResolver,
	box *secrets.Box,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, resolver, eventBus, box, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "realestate"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts listing routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/real-estates"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
