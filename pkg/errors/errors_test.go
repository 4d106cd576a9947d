package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCodes(t *testing.T) {
	cases := []struct {
		err  *AppError
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{Forbidden(""), http.StatusForbidden},
		{NotFound("alert", nil), http.StatusNotFound},
		{Conflict("overlap", nil), http.StatusConflict},
		{Unauthorized(nil), http.StatusUnauthorized},
		{Internal(fmt.Errorf("boom")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.err.StatusCode(), tc.err.Error())
	}
}

func TestWrappedErrorKeepsKind(t *testing.T) {
	err := fmt.Errorf("failed to book appointment: %w", Conflict("slot taken", nil))

	assert.True(t, Is(err, ErrConflict))
	assert.False(t, Is(err, ErrNotFound))
	assert.Equal(t, http.StatusConflict, HTTPStatus(err))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(fmt.Errorf("plain")))
}

func TestForbiddenDefaultMessage(t *testing.T) {
	assert.Equal(t, "permission denied", Forbidden("").Error())
	assert.Equal(t, "nurses only", Forbidden("nurses only").Error())
}
