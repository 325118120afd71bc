package maps

import (
	"net/http"

	"areabutler_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// LookupAddress handles GET /api/v1/maps/address-lookup?q=...&limit=...
func (h *Handler) LookupAddress(c *gin.Context) {
	var req LookupRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "query 'q' needs 3 to 200 characters, 'limit' 1 to 10", nil)
		return
	}

	suggestions, err := h.svc.SearchAddress(c.Request.Context(), req.Query, req.Limit)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"suggestions": suggestions})
}
