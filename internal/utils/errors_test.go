package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid argument", E(CodeInvalidArgument, "op", "bad", nil), http.StatusBadRequest},
		{"already exists", E(CodeAlreadyExists, "op", "dup", nil), http.StatusBadRequest},
		{"not found", E(CodeNotFound, "op", "missing", nil), http.StatusNotFound},
		{"unavailable", E(CodeUnavailable, "op", "down", nil), http.StatusServiceUnavailable},
		{"bare sentinel", fmt.Errorf("wrapped: %w", ErrNotFound), http.StatusNotFound},
		{"bare conflict", ErrConflict, http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestWrapMapsSentinels(t *testing.T) {
	assert.True(t, IsCode(Wrap("op", "get job", ErrNotFound), CodeNotFound))
	assert.True(t, IsCode(Wrap("op", "link", ErrConflict), CodeAlreadyExists))
	assert.True(t, IsCode(Wrap("op", "save", errors.New("db down")), CodeInternal))

	coded := E(CodeForbidden, "inner", "nope", nil)
	assert.Same(t, coded, Wrap("outer", "ignored", coded))
	assert.Nil(t, Wrap("op", "nothing", nil))
}

func TestAppErrorString(t *testing.T) {
	assert.Equal(t, "JobService.Get: job: not found", E(CodeNotFound, "JobService.Get", "job", ErrNotFound).Error())
	assert.Equal(t, "bad input", E(CodeInvalidArgument, "", "bad input", nil).Error())
	assert.Equal(t, "error", (&AppError{}).Error())
}
