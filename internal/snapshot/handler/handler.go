package handler

import (
	"net/http"

	"areabutler_backend/internal/exports"
	"areabutler_backend/internal/location"
	"areabutler_backend/internal/snapshot/domain"
	"areabutler_backend/internal/snapshot/service"
	"areabutler_backend/internal/snapshot/transport"
	"areabutler_backend/platform/httpkit"
	"areabutler_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest = "invalid request"
	msgInvalidID      = "invalid snapshot id"
)

// Handler handles HTTP requests for snapshots.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new snapshot handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the authenticated snapshot routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.GET("/:id/config", h.GetConfig)
	rg.PUT("/:id/config", h.UpdateConfig)
	rg.GET("/:id/entity-groups", h.EntityGroups)
	rg.POST("/:id/exports", h.Export)
}

// RegisterSettingsRoutes registers the user config defaults routes.
func (h *Handler) RegisterSettingsRoutes(rg *gin.RouterGroup) {
	rg.GET("/config-defaults", h.GetConfigDefaults)
	rg.PUT("/config-defaults", h.SaveConfigDefaults)
}

func (h *Handler) List(c *gin.Context) {
	var req transport.ListSnapshotsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if httpkit.HandleError(c, h.val.Struct(req)) {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.List(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.SnapshotSummary, 0, len(result.Items))
	for _, s := range result.Items {
		items = append(items, transport.ToSummary(s))
	}
	httpkit.OK(c, transport.ListSnapshotsResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	})
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateSnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if httpkit.HandleError(c, h.val.Struct(req)) {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	snapshot, err := h.svc.Create(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.ToResponse(snapshot))
}

func (h *Handler) GetByID(c *gin.Context) {
	userID, id, ok := ownerAndID(c)
	if !ok {
		return
	}

	snapshot, err := h.svc.Get(c.Request.Context(), userID, id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToResponse(snapshot))
}

func (h *Handler) Update(c *gin.Context) {
	userID, id, ok := ownerAndID(c)
	if !ok {
		return
	}

	var req transport.UpdateSnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if httpkit.HandleError(c, h.val.Struct(req)) {
		return
	}

	snapshot, err := h.svc.Update(c.Request.Context(), userID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToResponse(snapshot))
}

func (h *Handler) Delete(c *gin.Context) {
	userID, id, ok := ownerAndID(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), userID, id)) {
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) GetConfig(c *gin.Context) {
	userID, id, ok := ownerAndID(c)
	if !ok {
		return
	}

	snapshot, err := h.svc.Get(c.Request.Context(), userID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	effective, err := h.svc.EffectiveConfig(c.Request.Context(), snapshot)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ConfigResponse{Stored: snapshot.Config, Effective: effective})
}

func (h *Handler) UpdateConfig(c *gin.Context) {
	userID, id, ok := ownerAndID(c)
	if !ok {
		return
	}

	var cfg domain.SnapshotConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	snapshot, effective, err := h.svc.UpdateConfig(c.Request.Context(), userID, id, cfg)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ConfigResponse{Stored: snapshot.Config, Effective: effective})
}

func (h *Handler) EntityGroups(c *gin.Context) {
	userID, id, ok := ownerAndID(c)
	if !ok {
		return
	}

	var req transport.EntityGroupsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if httpkit.HandleError(c, h.val.Struct(req)) {
		return
	}

	groups, err := h.svc.EntityGroups(c.Request.Context(), userID, id, service.GroupOptions{
		Available: req.Available,
		Order:     req.GroupOrder(),
		ItemLimit: req.Limit,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.EntityGroupsResponse{Groups: groups})
}

// Export renders an export. Stored files are answered with a download link,
// everything else inline.
func (h *Handler) Export(c *gin.Context) {
	userID, id, ok := ownerAndID(c)
	if !ok {
		return
	}

	var req transport.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if httpkit.HandleError(c, h.val.Struct(req)) {
		return
	}

	result, err := h.svc.Export(c.Request.Context(), userID, id, domain.ExportFormat(req.Format), exports.Preset(req.Preset))
	if httpkit.HandleError(c, err) {
		return
	}

	switch {
	case result.Tables != nil:
		httpkit.OK(c, transport.ExportResponse{Format: req.Format, Tables: result.Tables, Pages: result.Pages})
	case result.Download != nil:
		expiresAt := result.Download.ExpiresAt
		httpkit.JSON(c, http.StatusCreated, transport.ExportResponse{
			Format:    req.Format,
			FileName:  result.FileName,
			URL:       result.Download.URL,
			ExpiresAt: &expiresAt,
		})
	default:
		c.Header("Content-Disposition", `attachment; filename="`+result.FileName+`"`)
		c.Data(http.StatusOK, result.ContentType, result.Content)
	}
}

func (h *Handler) GetConfigDefaults(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	cfg, err := h.svc.GetUserDefaults(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, cfg)
}

func (h *Handler) SaveConfigDefaults(c *gin.Context) {
	var cfg domain.SnapshotConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	if httpkit.HandleError(c, h.svc.SaveUserDefaults(c.Request.Context(), identity.UserID(), cfg)) {
		return
	}

	httpkit.OK(c, cfg)
}

// Embed serves the public map view addressed by token.
func (h *Handler) Embed(c *gin.Context) {
	token := c.Param("token")
	if len(token) < 16 || len(token) > 128 {
		httpkit.Error(c, http.StatusNotFound, "snapshot not found", nil)
		return
	}

	view, err := h.svc.Embed(c.Request.Context(), token)
	if httpkit.HandleError(c, err) {
		return
	}

	isochrones := make(map[location.TransportMode]location.Isochrone, len(view.Snapshot.SearchResponse))
	if view.Config.HideIsochrones == nil || !*view.Config.HideIsochrones {
		for mode, result := range view.Snapshot.SearchResponse {
			isochrones[mode] = result.Isochrone
		}
	}

	c.Header("Cache-Control", "public, max-age=60")
	httpkit.OK(c, transport.EmbedResponse{
		Location:    view.Snapshot.Location,
		Config:      view.Config,
		Groups:      view.Groups,
		Means:       view.Snapshot.SearchResponse.AvailableMeans(),
		Isochrones:  isochrones,
		Description: view.Snapshot.Description,
	})
}

// ownerAndID reads the caller and the :id param, answering the request on failure.
func ownerAndID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, uuid.Nil, false
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return uuid.Nil, uuid.Nil, false
	}
	return identity.UserID(), id, true
}
