package user

import (
	"github.com/gin-gonic/gin"

	"github.com/unihealth/care-api/internal/handler"
	"github.com/unihealth/care-api/internal/model"
	"github.com/unihealth/care-api/internal/service/user"
)

type Handler struct {
	svc *user.Service
}

func NewHandler(svc *user.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.POST("", h.CreateUser)
		users.PATCH("/:id/status", h.UpdateStatus)
	}
}

func (h *Handler) CreateUser(c *gin.Context) {
	actor, ok := handler.MustActor(c)
	if !ok {
		return
	}
	var req model.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	u, err := h.svc.CreateUser(c.Request.Context(), actor, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Created(c, u)
}

func (h *Handler) ListUsers(c *gin.Context) {
	actor, ok := handler.MustActor(c)
	if !ok {
		return
	}
	var filter model.UserFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		handler.BindError(c, err)
		return
	}

	users, err := h.svc.ListUsers(c.Request.Context(), actor, &filter)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, users)
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
	var req model.UpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	u, err := h.svc.SetActive(c.Request.Context(), actor, id, *req.Active)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, u)
}
