package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct code", func(t *testing.T) {
		err := New(CodeNotFound, "credential not found")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeUnauthorized))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("lookup: %w", New(CodeUnauthorized, "caller is not the owner"))
		assert.True(t, HasCode(err, CodeUnauthorized))
	})

	t.Run("matches nested domain errors", func(t *testing.T) {
		inner := New(CodeConflict, "id already allocated")
		err := Wrap(inner, CodeInternal, "failed to record credential")
		assert.True(t, HasCode(err, CodeInternal))
		assert.True(t, HasCode(err, CodeConflict))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "failed to load owner")
	require.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to load owner: connection refused", err.Error())
	assert.Nil(t, Wrap(nil, CodeInternal, "unused"))
}

func TestErrorIsComparesCodeAndMessage(t *testing.T) {
	err := New(CodeUnauthorized, "caller is not the owner")
	require.ErrorIs(t, err, New(CodeUnauthorized, "caller is not the owner"))
	assert.NotErrorIs(t, err, New(CodeUnauthorized, "different message"))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeUnauthorized: http.StatusUnauthorized,
		CodeForbidden:    http.StatusForbidden,
		CodeNotFound:     http.StatusNotFound,
		CodeInvalidInput: http.StatusBadRequest,
		CodeRateLimited:  http.StatusTooManyRequests,
		CodeInternal:     http.StatusInternalServerError,
		Code("unknown"):  http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, ToHTTPStatus(code), string(code))
	}
}
