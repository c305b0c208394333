package apperr

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("page", "must be a positive integer"), http.StatusBadRequest},
		{Unauthorized("login required"), http.StatusUnauthorized},
		{Forbidden("not yours"), http.StatusForbidden},
		{NotFound("event"), http.StatusNotFound},
		{Conflict("already following"), http.StatusConflict},
		{Internal(sql.ErrConnDone), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Status(tc.err), tc.err.Error())
	}
}

func TestStatusFollowsWrapping(t *testing.T) {
	wrapped := fmt.Errorf("load event: %w", NotFound("event"))
	assert.Equal(t, http.StatusNotFound, Status(wrapped))
	assert.True(t, IsKind(wrapped, KindNotFound))
	assert.False(t, IsKind(wrapped, KindConflict))
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "page: must be a positive integer", Validation("page", "must be a positive integer").Public())
	assert.Equal(t, "event not found", NotFound("event").Public())

	internal := Internal(errors.New("dial tcp 10.0.0.3:3306: connection refused"))
	assert.Equal(t, "internal server error", internal.Public())
	assert.Contains(t, internal.Error(), "connection refused")

	e, ok := As(internal)
	require.True(t, ok)
	assert.EqualError(t, errors.Unwrap(e), "dial tcp 10.0.0.3:3306: connection refused")
}
