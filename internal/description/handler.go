package description

import (
	"net/http"

	"areabutler_backend/platform/httpkit"
	"areabutler_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type GenerateRequest struct {
	Tonality      string `json:"tonality" validate:"omitempty,oneof=FORMAL NEUTRAL EMOTIONAL"`
	TargetGroup   string `json:"targetGroup" validate:"max=200"`
	MaxCharacters int    `json:"maxCharacters" validate:"omitempty,min=100,max=5000"`
}

type GenerateResponse struct {
	Description string `json:"description"`
}

type Handler struct {
	svc *Service
	val *validator.Validator
}

func NewHandler(svc *Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) Generate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid snapshot id", nil)
		return
	}

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if httpkit.HandleError(c, h.val.Struct(req)) {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	text, err := h.svc.Generate(c.Request.Context(), identity.UserID(), id, Options{
		Tonality:      Tonality(req.Tonality),
		TargetGroup:   req.TargetGroup,
		MaxCharacters: req.MaxCharacters,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, GenerateResponse{Description: text})
}
