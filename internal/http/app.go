package http

import (
	"context"

	"areabutler_backend/platform/config"
	"areabutler_backend/platform/logger"
)

// RouterConfig is the configuration slice the router reads.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker backs GET /api/health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is what cmd/api hands to the router once every dependency is built.
type App struct {
	Config RouterConfig
	Logger *logger.Logger
	// Health is optional; without it the health endpoint always reports ok.
	Health HealthChecker
	// Metrics enables request instrumentation and GET /metrics.
	Metrics bool
	Modules []Module
}
