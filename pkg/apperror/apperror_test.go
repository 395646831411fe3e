package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized},
		{code: CodeForbidden, status: http.StatusForbidden},
		{code: CodeNotFound, status: http.StatusNotFound},
		{code: CodeConflict, status: http.StatusConflict},
		{code: CodeInvalidState, status: http.StatusBadRequest, detailsOK: true},
		{code: CodeInvariantViolation, status: http.StatusBadRequest, detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			meta := MetadataFor(tt.code)
			assert.Equal(t, tt.status, meta.HTTPStatus)
			assert.Equal(t, tt.detailsOK, meta.DetailsAllowed)
			assert.NotEmpty(t, meta.PublicMessage)
		})
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, MetadataFor("SOMETHING_UNKNOWN").HTTPStatus)
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(CodeInternal, cause, "load order")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "INTERNAL_ERROR: load order: connection reset", err.Error())
}

func TestAsFindsTypedErrorThroughWrapping(t *testing.T) {
	base := NotFound("order not found").WithDetails(map[string]string{"id": "42"})
	wrapped := fmt.Errorf("service: %w", base)

	typed := As(wrapped)
	require.NotNil(t, typed)
	assert.Equal(t, CodeNotFound, typed.Code())
	assert.Equal(t, "order not found", typed.Message())
	assert.Equal(t, map[string]string{"id": "42"}, typed.Details())
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(nil))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
	assert.Equal(t, CodeInvalidState, CodeOf(InvalidState("already processed")))
	assert.True(t, IsCode(Forbidden("nope"), CodeForbidden))
	assert.False(t, IsCode(nil, CodeForbidden))
}

func TestNilErrorAccessors(t *testing.T) {
	var err *Error
	assert.Equal(t, CodeInternal, err.Code())
	assert.Empty(t, err.Message())
	assert.Nil(t, err.Details())
	assert.Nil(t, err.Unwrap())
}
