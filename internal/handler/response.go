package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/unihealth/care-api/internal/model"
	apperrors "github.com/unihealth/care-api/pkg/errors"
)

const actorKey = "actor"

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// Error writes err with the status of its AppError kind. Unclassified errors
// become 500 without leaking their text; all errors are attached for logging.
func Error(c *gin.Context, err error) {
	_ = c.Error(err)
	status := apperrors.HTTPStatus(err)
	message := "internal server error"
	if appErr, ok := apperrors.As(err); ok && status != http.StatusInternalServerError {
		message = appErr.Message
	}
	c.AbortWithStatusJSON(status, NewErrorResponse(message))
}

// BindError reports a request that failed binding or validation.
func BindError(c *gin.Context, err error) {
	_ = c.Error(err).SetType(gin.ErrorTypeBind)
	c.AbortWithStatusJSON(http.StatusBadRequest, NewErrorResponse(err.Error()))
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, NewSuccessResponse(data))
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, NewSuccessResponse(data))
}

// ParamID parses a positive int64 path parameter.
func ParamID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Validation("invalid " + name)
	}
	return id, nil
}

func SetActor(c *gin.Context, actor model.Actor) {
	c.Set(actorKey, actor)
}

// ActorFrom returns the authenticated actor; ok is false on public routes.
func ActorFrom(c *gin.Context) (model.Actor, bool) {
	v, exists := c.Get(actorKey)
	if !exists {
		return model.Actor{}, false
	}
	actor, ok := v.(model.Actor)
	return actor, ok
}

// MustActor returns the actor or writes 401 and returns false.
func MustActor(c *gin.Context) (model.Actor, bool) {
	actor, ok := ActorFrom(c)
	if !ok {
		Error(c, apperrors.Unauthorized(nil))
	}
	return actor, ok
}
