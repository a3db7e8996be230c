package schedule

import (
	"github.com/gin-gonic/gin"

	"github.com/aslima544/consultorio-api/internal/handler"
	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/service/schedule"
	"github.com/aslima544/consultorio-api/internal/service/view"
)

type Handler struct {
	schedule *schedule.Service
	views    *view.Service
}

func NewHandler(sched *schedule.Service, views *view.Service) *Handler {
	return &Handler{schedule: sched, views: views}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, admin gin.HandlerFunc) {
	weekly := r.Group("/cronograma/semanal")
	{
		weekly.GET("", h.Week)
		weekly.PUT("", h.Upsert)
		weekly.GET("/:consultorio", h.RoomWeek)
		weekly.POST("/duplicar", admin, h.Duplicate)
		weekly.DELETE("/:week_ref", admin, h.Retire)
	}
}

func (h *Handler) Week(c *gin.Context) {
	week, err := h.views.WeekSchedule(c.Request.Context(), c.Query("semana"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, week)
}

// Upsert writes one (room, weekday, week) cell. Only the fields present in
// the body change.
func (h *Handler) Upsert(c *gin.Context) {
	var fields model.ScheduleEntryFields
	if !handler.BindJSON(c, &fields) {
		return
	}

	entry, err := h.schedule.UpsertEntry(c.Request.Context(),
		c.Query("consultorio"), c.Query("dia"), c.Query("semana"), fields)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, entry)
}

func (h *Handler) RoomWeek(c *gin.Context) {
	week, err := h.views.RoomWeek(c.Request.Context(), c.Param("consultorio"), c.Query("semana"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, week)
}

func (h *Handler) Duplicate(c *gin.Context) {
	res, err := h.schedule.DuplicateWeek(c.Request.Context(), c.Query("semana_origem"), c.Query("semana_destino"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, res)
}

func (h *Handler) Retire(c *gin.Context) {
	res, err := h.schedule.RetireWeek(c.Request.Context(), c.Param("week_ref"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, res)
}
