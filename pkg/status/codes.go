package status

import "net/http"

// StatusCode 统一的业务状态码类型
// 0 表示成功，其余为错误状态

type StatusCode int

const (
	// CodeOK 成功
	CodeOK StatusCode = 0

	// ErrCodeInvalidParam 参数错误
	ErrCodeInvalidParam StatusCode = 1001
	// ErrCodeInternal 内部错误
	ErrCodeInternal StatusCode = 1002
	// ErrCodeUnavailable 服务不可用
	ErrCodeUnavailable StatusCode = 1003
	// ErrCodeNotFound 资源不存在
	ErrCodeNotFound StatusCode = 1004

	// ErrCodeEmptyInput 输入文本为空
	ErrCodeEmptyInput StatusCode = 2001
	// ErrCodeModelNotFound 模型不存在
	ErrCodeModelNotFound StatusCode = 2002
	// ErrCodeNoTexts 批量请求未提供文本
	ErrCodeNoTexts StatusCode = 2003
	// ErrCodePayloadTooLarge 文本或批量过大
	ErrCodePayloadTooLarge StatusCode = 2004
)

// String 将状态码转换为字符串标识
func (c StatusCode) String() string {
	switch c {
	case CodeOK:
		return "OK"
	case ErrCodeInvalidParam:
		return "INVALID_PARAM"
	case ErrCodeInternal:
		return "INTERNAL_ERROR"
	case ErrCodeUnavailable:
		return "UNAVAILABLE"
	case ErrCodeNotFound:
		return "NOT_FOUND"
	case ErrCodeEmptyInput:
		return "EMPTY_INPUT"
	case ErrCodeModelNotFound:
		return "MODEL_NOT_FOUND"
	case ErrCodeNoTexts:
		return "NO_TEXTS"
	case ErrCodePayloadTooLarge:
		return "PAYLOAD_TOO_LARGE"
	default:
		return "UNKNOWN"
	}
}

// HTTPStatus 返回状态码对应的HTTP状态
// 校验类错误统一为400，其余错误为500
func (c StatusCode) HTTPStatus() int {
	switch c {
	case CodeOK:
		return http.StatusOK
	case ErrCodeInvalidParam, ErrCodeEmptyInput, ErrCodeModelNotFound, ErrCodeNoTexts, ErrCodePayloadTooLarge:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
