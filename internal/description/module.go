package description

import (
	apphttp "areabutler_backend/internal/http"
	"areabutler_backend/platform/validator"
)

// Module exposes description generation next to the snapshot routes.
type Module struct {
	handler *Handler
}

func NewModule(svc *Service, val *validator.Validator) *Module {
	return &Module{handler: NewHandler(svc, val)}
}

func (m *Module) Name() string {
	return "description"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/snapshots/:id/description", m.handler.Generate)
}

var _ apphttp.Module = (*Module)(nil)
