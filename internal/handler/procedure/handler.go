package procedure

import (
	"github.com/gin-gonic/gin"

	"github.com/aslima544/consultorio-api/internal/handler"
	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/service/procedure"
)

type Handler struct {
	service *procedure.Service
}

func NewHandler(service *procedure.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, admin gin.HandlerFunc) {
	procedures := r.Group("/procedimentos")
	{
		procedures.POST("", admin, h.Create)
		procedures.GET("", h.List)
		procedures.GET("/:id", h.Get)
		procedures.PUT("/:id", admin, h.Update)
		procedures.DELETE("/:id", admin, h.Delete)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateProcedureRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	p, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, p)
}

func (h *Handler) List(c *gin.Context) {
	var filter model.ListFilter
	if !handler.BindQuery(c, &filter) {
		return
	}
	procedures, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, procedures)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, p)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateProcedureRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	p, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, p)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, gin.H{"message": "procedure deactivated"})
}
