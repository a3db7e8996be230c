package dashboard

import (
	"github.com/gin-gonic/gin"

	"github.com/aslima544/consultorio-api/internal/handler"
	"github.com/aslima544/consultorio-api/internal/service/view"
)

type Handler struct {
	views *view.Service
}

func NewHandler(views *view.Service) *Handler {
	return &Handler{views: views}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/dashboard/stats", h.Stats)
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.views.Dashboard(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, stats)
}
