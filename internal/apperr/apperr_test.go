package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"coaching-site-backend/internal/apperr"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperr.Validation("text is required"), http.StatusBadRequest},
		{apperr.NotFound("banner %d not found", 4), http.StatusNotFound},
		{apperr.Conflict("email already registered"), http.StatusConflict},
		{apperr.Auth("invalid email or password"), http.StatusUnauthorized},
		{apperr.Forbidden("registration is disabled"), http.StatusForbidden},
		{apperr.Storage("failed to create banner", errors.New("disk full")), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, apperr.HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("handler: %w", apperr.NotFound("course 9 not found"))

	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.False(t, apperr.Is(nil, apperr.KindNotFound))
}

func TestPublicMessage_HidesStorageCause(t *testing.T) {
	err := apperr.Storage("failed to delete banner", errors.New("pq: connection refused"))

	assert.Equal(t, "failed to delete banner", apperr.PublicMessage(err))
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, "internal server error", apperr.PublicMessage(errors.New("x")))
	assert.Equal(t, "title is required", apperr.PublicMessage(apperr.Validation("title is required")))
}
