package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestFrom(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"validation", Validation("bad input"), http.StatusBadRequest, "bad input"},
		{"not found", NotFound("Badge"), http.StatusNotFound, "Badge not found"},
		{"conflict", Conflict("duplicate"), http.StatusConflict, "duplicate"},
		{"gorm record not found", gorm.ErrRecordNotFound, http.StatusNotFound, "Resource not found"},
		{"wrapped app error", fmt.Errorf("outer: %w", Forbidden("denied")), http.StatusForbidden, "denied"},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError, "Database error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := From(tt.err)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantMsg, got.Message)
		})
	}
}

func TestFromNil(t *testing.T) {
	assert.Nil(t, From(nil))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(gorm.ErrRecordNotFound))
	assert.True(t, IsNotFound(NotFound("User")))
	assert.False(t, IsNotFound(Conflict("x")))
	assert.False(t, IsNotFound(nil))
}

func TestStatus(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, Status(Unauthorized("no")))
	assert.Equal(t, http.StatusInternalServerError, Status(errors.New("boom")))
}
