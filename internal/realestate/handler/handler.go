package handler

import (
	"io"
	"net/http"
	"strings"

	"areabutler_backend/internal/crm"
	"areabutler_backend/internal/realestate/service"
	"areabutler_backend/internal/realestate/transport"
	"areabutler_backend/platform/httpkit"
	"areabutler_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest = "invalid request"
	msgUnknownVendor  = "unknown crm vendor"

	maxOpenImmoBytes = 20 << 20
)

// Handler handles HTTP requests for real-estate listings.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new real-estate handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers listing, import and CRM connection routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)

	rg.POST("/import", h.Import)
	rg.POST("/import/openimmo", h.ImportOpenImmo)
	rg.POST("/sync/propstack", h.SyncPropstack)

	rg.GET("/connections/:vendor", h.GetConnection)
	rg.PUT("/connections/:vendor", h.SaveConnection)
}

func (h *Handler) List(c *gin.Context) {
	var req transport.ListListingsRequest
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

	items := make([]transport.ListingResponse, 0, len(result.Items))
	for _, l := range result.Items {
		items = append(items, transport.ToResponse(l))
	}
	httpkit.OK(c, transport.ListListingsResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	})
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.ListingRequest
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

	listing, err := h.svc.Create(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.ToResponse(listing))
}

func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	listing, err := h.svc.Get(c.Request.Context(), identity.UserID(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToResponse(listing))
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.ListingRequest
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

	listing, err := h.svc.Update(c.Request.Context(), identity.UserID(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToResponse(listing))
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), identity.UserID(), id)) {
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) Import(c *gin.Context) {
	var req transport.ImportRequest
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

	result, err := h.svc.ImportRecords(c.Request.Context(), identity.UserID(), identity.Email(), crm.Vendor(req.Vendor), req.Payloads)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, importResponse(result))
}

func (h *Handler) ImportOpenImmo(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxOpenImmoBytes+1))
	if err != nil || len(body) == 0 {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if len(body) > maxOpenImmoBytes {
		httpkit.Error(c, http.StatusRequestEntityTooLarge, "document too large", nil)
		return
	}

	result, err := h.svc.ImportOpenImmo(c.Request.Context(), identity.UserID(), identity.Email(), body)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, importResponse(result))
}

func (h *Handler) SyncPropstack(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	if httpkit.HandleError(c, h.svc.RequestPropstackSync(c.Request.Context(), identity.UserID(), identity.Email())) {
		return
	}

	httpkit.JSON(c, http.StatusAccepted, transport.SyncResponse{Queued: true})
}

func (h *Handler) GetConnection(c *gin.Context) {
	vendor, ok := connectionVendor(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	conn, err := h.svc.GetConnection(c.Request.Context(), identity.UserID(), vendor)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ConnectionResponse{
		Vendor:       conn.Vendor,
		HasAPIKey:    conn.APIKey != "",
		LastSyncedAt: conn.LastSyncedAt,
	})
}

func (h *Handler) SaveConnection(c *gin.Context) {
	vendor, ok := connectionVendor(c)
	if !ok {
		return
	}

	var req transport.ConnectionRequest
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

	if httpkit.HandleError(c, h.svc.SaveConnection(c.Request.Context(), identity.UserID(), vendor, req)) {
		return
	}

	c.Status(http.StatusNoContent)
}

func connectionVendor(c *gin.Context) (crm.Vendor, bool) {
	vendor := crm.Vendor(strings.ToUpper(c.Param("vendor")))
	switch vendor {
	case crm.VendorPropstack, crm.VendorOnOffice:
		return vendor, true
	default:
		httpkit.Error(c, http.StatusBadRequest, msgUnknownVendor, nil)
		return "", false
	}
}

func importResponse(r service.ImportResult) transport.ImportResponse {
	return transport.ImportResponse{
		Imported:  r.Imported(),
		Created:   r.Created,
		Updated:   r.Updated,
		FailedIDs: r.FailedIDs,
	}
}
