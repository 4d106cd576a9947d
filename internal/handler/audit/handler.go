package audit

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/unihealth/care-api/internal/handler"
	"github.com/unihealth/care-api/internal/model"
	"github.com/unihealth/care-api/internal/service/audit"
)

type Handler struct {
	service *audit.Service
}

func NewHandler(service *audit.Service) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	logs := r.Group("/audit-logs")
	{
		logs.GET("", h.ListLogs)
		logs.GET("/export", h.ExportLogs)
	}
}

// ListLogs accepts actor_id, entity_type, limit and offset.
func (h *Handler) ListLogs(c *gin.Context) {
	actor, ok := handler.MustActor(c)
	if !ok {
		return
	}
	var filter model.AuditFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		handler.BindError(c, err)
		return
	}

	logs, err := h.service.List(c.Request.Context(), actor, &filter)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, logs)
}

func (h *Handler) ExportLogs(c *gin.Context) {
	actor, ok := handler.MustActor(c)
	if !ok {
		return
	}
	var filter model.AuditFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		handler.BindError(c, err)
		return
	}

	logs, err := h.service.List(c.Request.Context(), actor, &filter)
	if err != nil {
		handler.Error(c, err)
		return
	}

	filename := fmt.Sprintf("audit_logs_%s.csv", time.Now().UTC().Format("20060102_150405"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	if err := writeCSV(c.Writer, logs); err != nil {
		log.Ctx(c.Request.Context()).Warn().Err(err).Int("rows", len(logs)).Msg("failed to write audit export")
	}
}

var csvHeader = []string{"ID", "Actor ID", "Action", "Entity Type", "Entity ID", "IP Address", "User Agent", "Created At"}

func writeCSV(w io.Writer, logs []*model.AuditLog) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, l := range logs {
		actorID := ""
		if l.ActorID != nil {
			actorID = strconv.FormatInt(*l.ActorID, 10)
		}
		err := writer.Write([]string{
			strconv.FormatInt(l.ID, 10),
			actorID,
			csvCell(l.Action),
			csvCell(l.EntityType),
			strconv.FormatInt(l.EntityID, 10),
			csvCell(l.IPAddress),
			csvCell(l.UserAgent),
			l.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// csvCell keeps spreadsheets from evaluating client-controlled text as a formula.
func csvCell(v string) string {
	if v != "" && strings.ContainsRune("=+-@\t\r", rune(v[0])) {
		return "'" + v
	}
	return v
}
