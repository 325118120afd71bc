// Package snapshot provides the snapshot bounded context module: saved
// searches, their map configuration, entity groups, exports and the public
// embed view.
package snapshot

import (
	"areabutler_backend/internal/adapters/storage"
	"areabutler_backend/internal/events"
	apphttp "areabutler_backend/internal/http"
	"areabutler_backend/internal/snapshot/handler"
	"areabutler_backend/internal/snapshot/repository"
	"areabutler_backend/internal/snapshot/service"
	"areabutler_backend/platform/config"
	"areabutler_backend/platform/httpkit"
	"areabutler_backend/platform/logger"
	"areabutler_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the snapshot bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// Deps groups the collaborators owned by other modules.
type Deps struct {
	Listings service.ListingReader
	Geocoder service.Geocoder
	// Storage is nil when MinIO is disabled.
	Storage storage.StorageService
}

// NewModule creates and initializes the snapshot module with all its dependencies.
func NewModule(
	pool *pgxpool.Pool,
	deps Deps,
	cfg interface {
		config.MinIOConfig
		config.ExportConfig
	},
	eventBus events.Bus,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, deps.Listings, deps.Geocoder, deps.Storage, cfg.GetMinioBucketSnapshotExports(), cfg, eventBus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "snapshot"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts snapshot routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/snapshots"))
	m.handler.RegisterSettingsRoutes(ctx.Protected.Group("/settings"))

	// Public embed for third-party iframes, addressed by the snapshot token.
	embed := ctx.V1.Group("/embed")
	embed.Use(httpkit.AllowFraming())
	if ctx.EmbedRateLimiter != nil {
		embed.Use(ctx.EmbedRateLimiter.RateLimit())
	}
	embed.GET("/:token", m.handler.Embed)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
