package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/unihealth/care-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func run(t *testing.T, h gin.HandlerFunc) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	h(c)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestErrorUsesAppErrorKind(t *testing.T) {
	w, resp := run(t, func(c *gin.Context) {
		Error(c, fmt.Errorf("failed to book: %w", apperrors.Conflict("slot taken", nil)))
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "slot taken", resp.Message)
}

func TestErrorHidesInternalDetails(t *testing.T) {
	w, resp := run(t, func(c *gin.Context) {
		Error(c, errors.New("pq: connection refused"))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", resp.Message)
}

func TestParamID(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	id, err := ParamID(c, "id")
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)

	c.Params = gin.Params{{Key: "id", Value: "-1"}}
	_, err = ParamID(c, "id")
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestMustActorWithoutAuth(t *testing.T) {
	w, _ := run(t, func(c *gin.Context) {
		_, ok := MustActor(c)
		assert.False(t, ok)
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
