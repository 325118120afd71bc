package webhook

import (
	"io"
	"net/http"
	"time"

	"areabutler_backend/platform/httpkit"
	"areabutler_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	errNoKeyContext   = "no API key context"
	errInvalidRequest = "invalid request body"

	maxWebhookBody = 1 << 20
)

type CreateAPIKeyRequest struct {
	UserID    uuid.UUID `json:"userId" validate:"required"`
	UserEmail string    `json:"userEmail" validate:"required,email"`
	Name      string    `json:"name" validate:"required,min=1,max=100"`
}

type APIKeyResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	UserEmail string    `json:"userEmail"`
	Name      string    `json:"name"`
	KeyPrefix string    `json:"keyPrefix"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateAPIKeyResponse struct {
	APIKeyResponse
	Key string `json:"key"`
}

// Handler handles webhook HTTP requests.
type Handler struct {
	service *Service
	val     *validator.Validator
}

// NewHandler creates a new webhook handler.
func NewHandler(service *Service, val *validator.Validator) *Handler {
	return &Handler{service: service, val: val}
}

// HandlePropstack processes a Propstack property push.
// POST /api/v1/webhook/propstack
// Authenticated via X-Webhook-API-Key header (set by middleware).
func (h *Handler) HandlePropstack(c *gin.Context) {
	userID, ok := c.Get(ctxUserID)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, errNoKeyContext, nil)
		return
	}
	email := c.GetString(ctxUserEmail)

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
	if err != nil || len(body) == 0 || len(body) > maxWebhookBody {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, nil)
		return
	}

	result, err := h.service.ProcessPropstack(c.Request.Context(), userID.(uuid.UUID), email, body)
	if httpkit.HandleError(c, err) {
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	httpkit.JSON(c, status, result)
}

// ---- Admin API Key Management (JWT authenticated) ----

func (h *Handler) HandleCreateAPIKey(c *gin.Context) {
	var req CreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, nil)
		return
	}
	if httpkit.HandleError(c, h.val.Struct(req)) {
		return
	}

	key, plaintext, err := h.service.CreateKey(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, CreateAPIKeyResponse{
		APIKeyResponse: toAPIKeyResponse(key),
		Key:            plaintext,
	})
}

func (h *Handler) HandleListAPIKeys(c *gin.Context) {
	userID, err := uuid.Parse(c.Query("userId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "userId query parameter is required", nil)
		return
	}

	keys, err := h.service.ListKeys(c.Request.Context(), userID)
	if httpkit.HandleError(c, err) {
		return
	}

	result := make([]APIKeyResponse, len(keys))
	for i, k := range keys {
		result[i] = toAPIKeyResponse(k)
	}

	httpkit.OK(c, result)
}

func (h *Handler) HandleRevokeAPIKey(c *gin.Context) {
	keyID, err := uuid.Parse(c.Param("keyId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid key ID", nil)
		return
	}

	if httpkit.HandleError(c, h.service.RevokeKey(c.Request.Context(), keyID)) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "API key revoked"})
}

func toAPIKeyResponse(key APIKey) APIKeyResponse {
	return APIKeyResponse{
		ID:        key.ID,
		UserID:    key.UserID,
		UserEmail: key.UserEmail,
		Name:      key.Name,
		KeyPrefix: key.KeyPrefix,
		IsActive:  key.IsActive,
		CreatedAt: key.CreatedAt,
	}
}
