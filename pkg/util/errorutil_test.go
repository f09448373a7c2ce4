package util

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestToDomainErrorPassesThrough(t *testing.T) {
	original := NewInvariantViolation("rating out of range", map[string]any{"rating": 9})
	mapped := ToDomainError(original)
	assert.Equal(t, "INVARIANT_VIOLATION", mapped.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, mapped.HTTPStatus)
}

func TestToDomainErrorMapsNoRows(t *testing.T) {
	mapped := ToDomainError(pgx.ErrNoRows)
	assert.Equal(t, "NOT_FOUND", mapped.Code)
	assert.Equal(t, http.StatusNotFound, mapped.HTTPStatus)
}

func TestToDomainErrorWrapsUnknown(t *testing.T) {
	mapped := ToDomainError(errors.New("boom"))
	assert.Equal(t, "INTERNAL_ERROR", mapped.Code)
	assert.ErrorContains(t, mapped, "boom")
}

func TestToDomainErrorNil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
}
