package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/aslima544/consultorio-api/internal/handler"
	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/service/auth"
)

type Handler struct {
	svc *auth.Service
}

func NewHandler(svc *auth.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterPublicRoutes mounts the routes reachable without a token.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.POST("/auth/login", h.Login)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/auth/me", h.Me)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	token, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, token)
}

func (h *Handler) Me(c *gin.Context) {
	u, err := h.svc.Me(c.Request.Context(), handler.CurrentUserID(c))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, u)
}
