// Package http holds the contract between the router and the domain modules.
package http

import (
	"areabutler_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Module is a bounded context that mounts its own routes.
type Module interface {
	// Name identifies the module in logs.
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext carries the route groups and shared limiters a module may
// mount on.
type RouterContext struct {
	// V1 is the public /api/v1 group.
	V1 *gin.RouterGroup
	// Protected requires a valid access token.
	Protected *gin.RouterGroup
	// Admin requires the admin role.
	Admin *gin.RouterGroup
	// IntakeRateLimiter throttles CRM pushes per source IP.
	IntakeRateLimiter *httpkit.IPRateLimiter
	// EmbedRateLimiter throttles the public iframe endpoint per visitor IP.
	EmbedRateLimiter *httpkit.IPRateLimiter
}
