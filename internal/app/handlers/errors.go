package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"review-sentiment/internal/domain/services"
	"review-sentiment/pkg/status"
)

// ErrorResponse 错误映射结果
type ErrorResponse struct {
	StatusCode int
	Code       status.StatusCode
	Message    string
}

// MapServiceError 将服务层错误映射为业务状态码和提示信息
// 校验类错误返回 400，其余返回 500，failurePrefix 用于 500 时的提示前缀
func MapServiceError(err error, modelID, failurePrefix string) ErrorResponse {
	var code status.StatusCode
	var message string

	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.Is(err, services.ErrEmptyInput):
		code, message = status.ErrCodeEmptyInput, "Text cannot be empty"
	case errors.Is(err, services.ErrNoTexts):
		code, message = status.ErrCodeNoTexts, "No texts provided"
	case errors.Is(err, services.ErrModelNotFound):
		code, message = status.ErrCodeModelNotFound, fmt.Sprintf("Model %s not found", modelID)
	case errors.Is(err, services.ErrTextTooLong), errors.Is(err, services.ErrBatchTooLarge):
		code, message = status.ErrCodePayloadTooLarge, err.Error()
	case errors.As(err, &maxBytesErr):
		code, message = status.ErrCodePayloadTooLarge, "Request body too large"
	default:
		code, message = status.ErrCodeInternal, fmt.Sprintf("%s: %s", failurePrefix, err.Error())
	}

	return ErrorResponse{
		StatusCode: code.HTTPStatus(),
		Code:       code,
		Message:    message,
	}
}
