package status

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		code     StatusCode
		name     string
		httpCode int
	}{
		{CodeOK, "OK", http.StatusOK},
		{ErrCodeInvalidParam, "INVALID_PARAM", http.StatusBadRequest},
		{ErrCodeEmptyInput, "EMPTY_INPUT", http.StatusBadRequest},
		{ErrCodeModelNotFound, "MODEL_NOT_FOUND", http.StatusBadRequest},
		{ErrCodeNoTexts, "NO_TEXTS", http.StatusBadRequest},
		{ErrCodePayloadTooLarge, "PAYLOAD_TOO_LARGE", http.StatusBadRequest},
		{ErrCodeNotFound, "NOT_FOUND", http.StatusNotFound},
		{ErrCodeUnavailable, "UNAVAILABLE", http.StatusServiceUnavailable},
		{ErrCodeInternal, "INTERNAL_ERROR", http.StatusInternalServerError},
		{StatusCode(42), "UNKNOWN", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.code.String())
			assert.Equal(t, tt.httpCode, tt.code.HTTPStatus())
		})
	}
}
