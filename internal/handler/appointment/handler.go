package appointment

import (
	stderrors "errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/aslima544/consultorio-api/internal/handler"
	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/service/appointment"
	"github.com/aslima544/consultorio-api/internal/service/view"
)

type Handler struct {
	service *appointment.Service
	views   *view.Service
}

func NewHandler(service *appointment.Service, views *view.Service) *Handler {
	return &Handler{service: service, views: views}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, admin gin.HandlerFunc) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.CreateAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/consultorio/:code/estatisticas", h.RoomStats)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PUT("/:id", h.UpdateAppointment)
		appointments.DELETE("/:id", admin, h.DeleteAppointment)
		appointments.PUT("/:id/cancel", h.CancelAppointment)
		appointments.POST("/:id/iniciar-atendimento", h.StartAppointment)
		appointments.POST("/:id/concluir-atendimento", h.CompleteAppointment)
	}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	created, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, created)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	var q appointment.ListQuery
	if !handler.BindQuery(c, &q) {
		return
	}

	appointments, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, appointments)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	found, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, found)
}

func (h *Handler) UpdateAppointment(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateAppointmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	updated, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, updated)
}

func (h *Handler) DeleteAppointment(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, gin.H{"message": "appointment deleted"})
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	canceled, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, canceled)
}

func (h *Handler) StartAppointment(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	started, err := h.service.Start(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, started)
}

// CompleteAppointment accepts an optional {notes} body.
func (h *Handler) CompleteAppointment(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.CompleteAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil && !stderrors.Is(err, io.EOF) {
		handler.RespondBindError(c, err)
		return
	}

	completed, err := h.service.Complete(c.Request.Context(), id, req.Notes)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, completed)
}

func (h *Handler) RoomStats(c *gin.Context) {
	stats, err := h.views.RoomStats(c.Request.Context(), c.Param("code"), c.Query("data_inicio"), c.Query("data_fim"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, stats)
}
