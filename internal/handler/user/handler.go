package user

import (
	"github.com/gin-gonic/gin"

	"github.com/aslima544/consultorio-api/internal/handler"
	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/service/user"
)

type Handler struct {
	service user.UserServicer
}

func NewHandler(service user.UserServicer) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the user management routes. Every route is admin only.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, admin gin.HandlerFunc) {
	users := r.Group("/users", admin)
	{
		users.POST("", h.CreateUser)
		users.GET("", h.ListUsers)
		users.DELETE("/:id", h.DeleteUser)
	}
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req model.CreateUserRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	u, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, u)
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.service.List(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, users)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Deactivate(c.Request.Context(), handler.CurrentUserID(c), id); err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, gin.H{"message": "user deactivated"})
}
