package maps

import (
	apphttp "areabutler_backend/internal/http"
)

// Module wires the maps address lookup HTTP routes.
type Module struct {
	handler *Handler
	svc     *Service
}

func NewModule(svc *Service) *Module {
	return &Module{handler: NewHandler(svc), svc: svc}
}

func (m *Module) Name() string {
	return "maps"
}

// Service exposes the geocoder for snapshot creation.
func (m *Module) Service() *Service {
	return m.svc
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/maps")
	group.GET("/address-lookup", m.handler.LookupAddress)
}

var _ apphttp.Module = (*Module)(nil)
