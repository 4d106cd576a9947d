package appointment

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/unihealth/care-api/internal/handler"
	"github.com/unihealth/care-api/internal/model"
	"github.com/unihealth/care-api/internal/service/appointment"
	apperrors "github.com/unihealth/care-api/pkg/errors"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.GET("", h.ListAppointments)
		appointments.POST("", h.BookAppointment)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PATCH("/:id/status", h.UpdateStatus)
	}

	r.GET("/slots", h.ListSlots)

	availability := r.Group("/availability")
	{
		availability.GET("", h.ListBlocks)
		availability.POST("", h.CreateBlock)
		availability.DELETE("/:id", h.DeleteBlock)
	}
}

func (h *Handler) BookAppointment(c *gin.Context) {
	actor, ok := handler.MustActor(c)
	if !ok {
		return
	}
	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	appt, err := h.service.Book(c.Request.Context(), actor, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Created(c, appt)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	actor, ok := handler.MustActor(c)
	if !ok {
		return
	}
	id, err := handler.ParamID(c, "id")
	if err != nil {
		handler.Error(c, err)
		return
	}

	appt, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, appt)
}

// ListAppointments accepts ?mine=true to restrict staff to their own schedule.
func (h *Handler) ListAppointments(c *gin.Context) {
	actor, ok := handler.MustActor(c)
	if !ok {
		return
	}
	mine, _ := strconv.ParseBool(c.DefaultQuery("mine", "false"))

	appointments, err := h.service.List(c.Request.Context(), actor, mine)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, appointments)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	actor, ok := handler.MustActor(c)
	if !ok {
		return
	}
	id, err := handler.ParamID(c, "id")
	if err != nil {
		handler.Error(c, err)
		return
	}
	var req model.UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	appt, err := h.service.UpdateStatus(c.Request.Context(), actor, id, req.Status)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, appt)
}

// ListSlots serves GET /slots?staff_id=1&date=2024-03-04&minutes=30.
func (h *Handler) ListSlots(c *gin.Context) {
	staffID, err := strconv.ParseInt(c.Query("staff_id"), 10, 64)
	if err != nil || staffID <= 0 {
		handler.Error(c, apperrors.Validation("staff_id is required"))
		return
	}
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		handler.Error(c, apperrors.Validation("date must be YYYY-MM-DD"))
		return
	}
	var minutes *int
	if m, ok := c.GetQuery("minutes"); ok {
		n, err := strconv.Atoi(m)
		if err != nil {
			handler.Error(c, apperrors.Validation("minutes must be an integer"))
			return
		}
		minutes = &n
	}

	slots, err := h.service.Slots(c.Request.Context(), staffID, date, minutes)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, slots)
}

func (h *Handler) ListBlocks(c *gin.Context) {
	staffID, err := strconv.ParseInt(c.Query("staff_id"), 10, 64)
	if err != nil || staffID <= 0 {
		handler.Error(c, apperrors.Validation("staff_id is required"))
		return
	}

	blocks, err := h.service.ListBlocks(c.Request.Context(), staffID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, blocks)
}

func (h *Handler) CreateBlock(c *gin.Context) {
	actor, ok := handler.MustActor(c)
	if !ok {
		return
	}
	var req model.CreateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	block, err := h.service.CreateBlock(c.Request.Context(), actor, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Created(c, block)
}

func (h *Handler) DeleteBlock(c *gin.Context) {
	actor, ok := handler.MustActor(c)
	if !ok {
		return
	}
	id, err := handler.ParamID(c, "id")
	if err != nil {
		handler.Error(c, err)
		return
	}

	if err := h.service.DeleteBlock(c.Request.Context(), actor, id); err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, gin.H{"deleted": id})
}
