package alert

import (
	"github.com/gin-gonic/gin"

	"github.com/unihealth/care-api/internal/handler"
	"github.com/unihealth/care-api/internal/model"
	"github.com/unihealth/care-api/internal/service/alert"
)

type Handler struct {
	svc *alert.Service
}

func NewHandler(svc *alert.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	alerts := r.Group("/alerts")
	{
		alerts.GET("", h.ListAlerts)
		alerts.POST("", h.CreateAlert)
		alerts.GET("/:id", h.GetAlert)
		alerts.POST("/:id/assign", h.Assign)
		alerts.POST("/:id/status", h.SetStatus)
		alerts.GET("/:id/events", h.ListEvents)
		alerts.POST("/:id/events", h.AddEvent)
	}
}

func (h *Handler) CreateAlert(c *gin.Context) {
	actor, ok := handler.MustActor(c)
	if !ok {
		return
	}
	var req model.CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	a, err := h.svc.Create(c.Request.Context(), actor, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Created(c, a)
}

func (h *Handler) ListAlerts(c *gin.Context) {
	actor, ok := handler.MustActor(c)
	if !ok {
		return
	}
	alerts, err := h.svc.List(c.Request.Context(), actor)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, alerts)
}

func (h *Handler) GetAlert(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	a, err := h.svc.Get(c.Request.Context(), actor, id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, a)
}

func (h *Handler) Assign(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	var req model.AssignAlertRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			handler.BindError(c, err)
			return
		}
	}

	a, err := h.svc.Assign(c.Request.Context(), actor, id, req.AssigneeID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, a)
}

func (h *Handler) SetStatus(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	var req model.AlertStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	a, err := h.svc.SetStatus(c.Request.Context(), actor, id, req.Status)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, a)
}

func (h *Handler) ListEvents(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	events, err := h.svc.Events(c.Request.Context(), actor, id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, events)
}

func (h *Handler) AddEvent(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	var req model.AlertEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	ev, err := h.svc.AddEvent(c.Request.Context(), actor, id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Created(c, ev)
}

func actorAndID(c *gin.Context) (model.Actor, int64, bool) {
	actor, ok := handler.MustActor(c)
	if !ok {
		return model.Actor{}, 0, false
	}
	id, err := handler.ParamID(c, "id")
	if err != nil {
		handler.Error(c, err)
		return model.Actor{}, 0, false
	}
	return actor, id, true
}
