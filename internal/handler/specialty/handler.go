package specialty

import (
	"github.com/gin-gonic/gin"

	"github.com/aslima544/consultorio-api/internal/handler"
	"github.com/aslima544/consultorio-api/internal/service/specialty"
)

type Handler struct {
	service *specialty.Service
}

func NewHandler(service *specialty.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/especialidades", h.List)
}

func (h *Handler) List(c *gin.Context) {
	specialties, err := h.service.List(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, specialties)
}
