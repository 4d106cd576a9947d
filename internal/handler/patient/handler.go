package patient

import (
	"github.com/gin-gonic/gin"

	"github.com/unihealth/care-api/internal/handler"
	"github.com/unihealth/care-api/internal/model"
	"github.com/unihealth/care-api/internal/service/audit"
	"github.com/unihealth/care-api/internal/service/patient"
)

type Handler struct {
	svc *patient.Service
}

func NewHandler(svc *patient.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	me := r.Group("/me")
	{
		me.GET("/profile", h.GetProfile)
		me.PUT("/profile", h.UpsertProfile)
		me.GET("/consents", h.ListConsents)
		me.POST("/consents", h.AcceptConsent)
	}
}

func (h *Handler) GetProfile(c *gin.Context) {
	actor, ok := handler.MustActor(c)
	if !ok {
		return
	}
	profile, err := h.svc.GetProfile(c.Request.Context(), actor)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, profile)
}

func (h *Handler) UpsertProfile(c *gin.Context) {
	actor, ok := handler.MustActor(c)
	if !ok {
		return
	}
	var req model.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	profile, err := h.svc.UpsertProfile(c.Request.Context(), actor, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, profile)
}

func (h *Handler) ListConsents(c *gin.Context) {
	actor, ok := handler.MustActor(c)
	if !ok {
		return
	}
	consents, err := h.svc.ListConsents(c.Request.Context(), actor)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, consents)
}

func (h *Handler) AcceptConsent(c *gin.Context) {
	actor, ok := handler.MustActor(c)
	if !ok {
		return
	}
	var req model.ConsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	ip := audit.ClientFrom(c.Request.Context()).IP
	if ip == "" {
		ip = c.ClientIP()
	}
	consents, err := h.svc.AcceptConsent(c.Request.Context(), actor, &req, ip)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Created(c, consents)
}
