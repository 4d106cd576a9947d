package catalog

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/unihealth/care-api/internal/handler"
	"github.com/unihealth/care-api/internal/model"
	"github.com/unihealth/care-api/internal/service/catalog"
)

type Handler struct {
	svc *catalog.Service
}

func NewHandler(svc *catalog.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	catalogs := r.Group("/catalogs")
	{
		catalogs.GET("/:name", h.List)
		catalogs.PUT("/:name", h.Upsert)
	}
}

type upsertRequest struct {
	Code   string `json:"code" binding:"required,max=32"`
	Name   string `json:"name" binding:"required,max=100"`
	Active *bool  `json:"active"`
}

// catalogName maps URL names such as service-types to catalogs.
func catalogName(c *gin.Context) model.Catalog {
	return model.Catalog(strings.ReplaceAll(c.Param("name"), "-", "_"))
}

func (h *Handler) List(c *gin.Context) {
	entries, err := h.svc.List(c.Request.Context(), catalogName(c))
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, entries)
}

func (h *Handler) Upsert(c *gin.Context) {
	actor, ok := handler.MustActor(c)
	if !ok {
		return
	}
	var req upsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	entry := &model.CatalogEntry{Code: req.Code, Name: req.Name, Active: req.Active == nil || *req.Active}
	if err := h.svc.Upsert(c.Request.Context(), actor, catalogName(c), entry); err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, entry)
}
