package doctor

import (
	"github.com/gin-gonic/gin"

	"github.com/aslima544/consultorio-api/internal/handler"
	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/service/doctor"
)

type Handler struct {
	service doctor.DoctorService
}

func NewHandler(service doctor.DoctorService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, admin gin.HandlerFunc) {
	doctors := r.Group("/doctors")
	{
		doctors.POST("", h.CreateDoctor)
		doctors.GET("", h.ListDoctors)
		doctors.GET("/:id", h.GetDoctor)
		doctors.PUT("/:id", h.UpdateDoctor)
		doctors.DELETE("/:id", admin, h.DeleteDoctor)
	}
}

func (h *Handler) CreateDoctor(c *gin.Context) {
	var req model.CreateDoctorRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	d, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, d)
}

func (h *Handler) ListDoctors(c *gin.Context) {
	var filter model.ListFilter
	if !handler.BindQuery(c, &filter) {
		return
	}

	doctors, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, doctors)
}

func (h *Handler) GetDoctor(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	d, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, d)
}

func (h *Handler) UpdateDoctor(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateDoctorRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	d, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, d)
}

func (h *Handler) DeleteDoctor(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, gin.H{"message": "doctor deactivated"})
}
