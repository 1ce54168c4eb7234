package services

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	conflict := &Error{Kind: KindConflict, Message: "exists"}
	wrapped := fmt.Errorf("create: %w", conflict)

	assert.Equal(t, KindConflict, KindOf(conflict))
	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestMessageOf(t *testing.T) {
	cause := errors.New("pq: deadlock detected")
	err := internalError(cause)

	assert.Equal(t, "Internal error has occurred.", MessageOf(err))
	assert.Equal(t, "Internal error has occurred.: pq: deadlock detected", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Internal error has occurred.", MessageOf(errors.New("raw")))
}

func TestKindHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, KindValidation.HTTPStatus())
	assert.Equal(t, http.StatusConflict, KindConflict.HTTPStatus())
	assert.Equal(t, http.StatusNotFound, KindNotFound.HTTPStatus())
	assert.Equal(t, http.StatusUnprocessableEntity, KindComputation.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, KindInternal.HTTPStatus())
	assert.Equal(t, "not_found", KindNotFound.String())
}
