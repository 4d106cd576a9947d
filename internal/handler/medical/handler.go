package medical

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/unihealth/care-api/internal/handler"
	"github.com/unihealth/care-api/internal/model"
	"github.com/unihealth/care-api/internal/service/medical"
	apperrors "github.com/unihealth/care-api/pkg/errors"
)

type Handler struct {
	svc *medical.Service
}

func NewHandler(svc *medical.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	records := r.Group("/records")
	{
		records.GET("", h.ListOwnRecords)
		records.POST("", h.CreateRecord)
		records.GET("/:patientID", h.ListRecords)
	}

	vitals := r.Group("/vitals")
	{
		vitals.GET("", h.ListOwnVitals)
		vitals.POST("", h.CreateVitals)
		vitals.GET("/:patientID", h.ListVitals)
	}

	attachments := r.Group("/attachments")
	{
		attachments.GET("", h.ListAttachments)
		attachments.POST("", h.UploadAttachment)
		attachments.GET("/:id", h.GetAttachment)
		attachments.GET("/:id/download", h.DownloadAttachment)
	}
}

func (h *Handler) CreateRecord(c *gin.Context) {
	actor, ok := handler.MustActor(c)
	if !ok {
		return
	}
	var req model.CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	record, err := h.svc.CreateRecord(c.Request.Context(), actor, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Created(c, record)
}

func (h *Handler) ListOwnRecords(c *gin.Context) {
	actor, ok := handler.MustActor(c)
	if !ok {
		return
	}
	h.listRecords(c, actor, actor.ID)
}

func (h *Handler) ListRecords(c *gin.Context) {
	actor, ok := handler.MustActor(c)
	if !ok {
		return
	}
	patientID, err := handler.ParamID(c, "patientID")
	if err != nil {
		handler.Error(c, err)
		return
	}
	h.listRecords(c, actor, patientID)
}

func (h *Handler) listRecords(c *gin.Context, actor model.Actor, patientID int64) {
	records, err := h.svc.ListRecords(c.Request.Context(), actor, patientID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, records)
}

func (h *Handler) CreateVitals(c *gin.Context) {
	actor, ok := handler.MustActor(c)
	if !ok {
		return
	}
	var req model.CreateVitalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	vitals, err := h.svc.CreateVitals(c.Request.Context(), actor, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Created(c, vitals)
}

func (h *Handler) ListOwnVitals(c *gin.Context) {
	actor, ok := handler.MustActor(c)
	if !ok {
		return
	}
	h.listVitals(c, actor, actor.ID)
}

func (h *Handler) ListVitals(c *gin.Context) {
	actor, ok := handler.MustActor(c)
	if !ok {
		return
	}
	patientID, err := handler.ParamID(c, "patientID")
	if err != nil {
		handler.Error(c, err)
		return
	}
	h.listVitals(c, actor, patientID)
}

func (h *Handler) listVitals(c *gin.Context, actor model.Actor, patientID int64) {
	vitals, err := h.svc.ListVitals(c.Request.Context(), actor, patientID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, vitals)
}

// UploadAttachment expects multipart fields owner_table, owner_id and file.
func (h *Handler) UploadAttachment(c *gin.Context) {
	actor, ok := handler.MustActor(c)
	if !ok {
		return
	}
	ownerID, err := strconv.ParseInt(c.PostForm("owner_id"), 10, 64)
	if err != nil || ownerID <= 0 {
		handler.Error(c, apperrors.Validation("owner_id is required"))
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		handler.Error(c, apperrors.Validation("file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		handler.Error(c, apperrors.BadRequest("failed to read upload", err))
		return
	}
	defer file.Close()

	att, err := h.svc.Upload(c.Request.Context(), actor,
		model.OwnerTable(c.PostForm("owner_table")), ownerID,
		header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Created(c, att)
}

// ListAttachments serves GET /attachments?owner_table=alerts&owner_id=3.
func (h *Handler) ListAttachments(c *gin.Context) {
	actor, ok := handler.MustActor(c)
	if !ok {
		return
	}
	ownerID, err := strconv.ParseInt(c.Query("owner_id"), 10, 64)
	if err != nil || ownerID <= 0 {
		handler.Error(c, apperrors.Validation("owner_id is required"))
		return
	}

	atts, err := h.svc.ListAttachments(c.Request.Context(), actor, model.OwnerTable(c.Query("owner_table")), ownerID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, atts)
}

func (h *Handler) GetAttachment(c *gin.Context) {
	att, ok := h.attachment(c)
	if !ok {
		return
	}
	handler.OK(c, att)
}

func (h *Handler) DownloadAttachment(c *gin.Context) {
	att, ok := h.attachment(c)
	if !ok {
		return
	}
	c.Header("Content-Type", att.Mime)
	c.FileAttachment(h.svc.FilePath(att), att.FileName)
}

func (h *Handler) attachment(c *gin.Context) (*model.Attachment, bool) {
	actor, ok := handler.MustActor(c)
	if !ok {
		return nil, false
	}
	id, err := handler.ParamID(c, "id")
	if err != nil {
		handler.Error(c, err)
		return nil, false
	}
	att, err := h.svc.GetAttachment(c.Request.Context(), actor, id)
	if err != nil {
		handler.Error(c, err)
		return nil, false
	}
	return att, true
}
