package room

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aslima544/consultorio-api/internal/handler"
	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/service/room"
	"github.com/aslima544/consultorio-api/internal/service/view"
)

type Handler struct {
	rooms *room.Service
	views *view.Service
}

func NewHandler(rooms *room.Service, views *view.Service) *Handler {
	return &Handler{rooms: rooms, views: views}
}

// RegisterRoutes mounts /consultorios. Room ids in paths accept either the
// uuid or the room code.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, admin gin.HandlerFunc) {
	rooms := r.Group("/consultorios")
	{
		rooms.GET("", h.List)
		rooms.POST("", admin, h.Create)
		rooms.GET("/weekly-schedule", h.WeeklySchedule)
		rooms.GET("/availability/:weekday", h.Availability)
		rooms.GET("/:id", h.Get)
		rooms.PUT("/:id", admin, h.Update)
		rooms.DELETE("/:id", admin, h.Delete)
		rooms.GET("/:id/disponibilidade", h.Day)
	}
}

func (h *Handler) List(c *gin.Context) {
	grouped, _ := strconv.ParseBool(c.DefaultQuery("agrupado", "false"))
	if grouped {
		out, err := h.rooms.ListGrouped(c.Request.Context())
		if err != nil {
			handler.RespondError(c, err)
			return
		}
		handler.OK(c, out)
		return
	}

	rooms, err := h.rooms.List(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, rooms)
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateRoomRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	created, err := h.rooms.Create(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, created)
}

func (h *Handler) Get(c *gin.Context) {
	found, err := h.rooms.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, found)
}

func (h *Handler) Update(c *gin.Context) {
	var req model.UpdateRoomRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	updated, err := h.rooms.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, updated)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.rooms.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, gin.H{"message": "room deactivated"})
}

func (h *Handler) WeeklySchedule(c *gin.Context) {
	grid, err := h.views.WeeklyGrid(c.Request.Context(), c.Query("semana"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, grid)
}

func (h *Handler) Availability(c *gin.Context) {
	out, err := h.views.Availability(c.Request.Context(), c.Param("weekday"), c.Query("semana"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, out)
}

func (h *Handler) Day(c *gin.Context) {
	day, err := h.views.RoomDay(c.Request.Context(), c.Param("id"), c.Query("data"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, day)
}
