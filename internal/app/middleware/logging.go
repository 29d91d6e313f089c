// Package middleware 提供 HTTP 中间件
package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"review-sentiment/pkg/logger"
)

// RequestIDKey 请求ID在 gin.Context 中的键名
const RequestIDKey = "request_id"

// RequestIDHeader 请求ID的HTTP头
const RequestIDHeader = "X-Request-ID"

type ctxKey string

// requestIDCtxKey 请求ID在 context.Context 中的键
const requestIDCtxKey ctxKey = RequestIDKey

// LoggingConfig 日志中间件配置
type LoggingConfig struct {
	// SkipPaths 跳过日志记录的路径（如健康检查接口）
	SkipPaths []string
	// Logger 日志器实例
	Logger logger.Logger
}

// LoggingMiddleware 返回HTTP日志记录中间件
// config: 中间件配置，如果为nil则使用默认配置
func LoggingMiddleware(config *LoggingConfig) gin.HandlerFunc {
	// 使用默认配置
	if config == nil {
		config = &LoggingConfig{
			SkipPaths: []string{"/api/health", "/metrics"},
			Logger:    logger.GetDefault(),
		}
	}

	// 如果没有指定Logger，使用默认Logger
	if config.Logger == nil {
		config.Logger = logger.GetDefault()
	}

	return func(c *gin.Context) {
		// 优先沿用上游传入的请求ID
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = generateRequestID()
		}
		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		// 创建带有请求ID的context
		ctx := WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		// 检查是否需要跳过日志记录
		if shouldSkipPath(c.Request.URL.Path, config.SkipPaths) {
			c.Next()
			return
		}

		// 记录请求开始时间
		startTime := time.Now()

		// 提取请求信息
		requestInfo := extractRequestInfo(c)

		// 记录请求开始日志
		config.Logger.InfoContext(ctx, "HTTP请求开始",
			"request_id", requestID,
			"method", requestInfo.Method,
			"path", requestInfo.Path,
			"client_ip", requestInfo.ClientIP,
			"user_agent", requestInfo.UserAgent,
			"content_length", requestInfo.ContentLength,
			"query_params", requestInfo.QueryParams,
			"content_type", requestInfo.ContentType,
		)

		// 执行请求处理
		c.Next()

		// 计算处理时间
		duration := time.Since(startTime)
		statusCode := c.Writer.Status()

		// 提取响应信息
		responseInfo := extractResponseInfo(c, duration)

		logFn := config.Logger.InfoContext
		switch {
		case statusCode >= 500:
			logFn = config.Logger.ErrorContext
		case statusCode >= 400:
			logFn = config.Logger.WarnContext
		}
		logFn(ctx, "HTTP请求完成",
			"request_id", requestID,
			"method", requestInfo.Method,
			"path", requestInfo.Path,
			"status_code", statusCode,
			"duration_ms", responseInfo.DurationMs,
			"response_size", responseInfo.ResponseSize,
			"client_ip", requestInfo.ClientIP,
		)

		// 如果有错误，记录详细错误信息
		if len(c.Errors) > 0 {
			for _, err := range c.Errors {
				config.Logger.ErrorContext(ctx, "HTTP请求处理错误",
					"request_id", requestID,
					"error", err.Error(),
					"error_type", err.Type,
				)
			}
		}
	}
}

// RequestInfo HTTP请求信息
type RequestInfo struct {
	Method        string            `json:"method"`
	Path          string            `json:"path"`
	ClientIP      string            `json:"client_ip"`
	UserAgent     string            `json:"user_agent"`
	ContentLength int64             `json:"content_length"`
	QueryParams   map[string]string `json:"query_params"`
	ContentType   string            `json:"content_type"`
}

// ResponseInfo HTTP响应信息
type ResponseInfo struct {
	StatusCode   int     `json:"status_code"`
	DurationMs   float64 `json:"duration_ms"`
	ResponseSize int     `json:"response_size"`
}

// generateRequestID 生成请求ID
func generateRequestID() string {
	return uuid.New().String()
}

// extractRequestInfo 提取请求信息
func extractRequestInfo(c *gin.Context) *RequestInfo {
	// 提取查询参数
	queryParams := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			queryParams[key] = values[0] // 只取第一个值
		}
	}

	return &RequestInfo{
		Method:        c.Request.Method,
		Path:          c.Request.URL.Path,
		ClientIP:      c.ClientIP(),
		UserAgent:     c.GetHeader("User-Agent"),
		ContentLength: c.Request.ContentLength,
		QueryParams:   queryParams,
		ContentType:   c.ContentType(),
	}
}

// extractResponseInfo 提取响应信息
// 未写入响应体时 gin 的 Size() 为 -1
func extractResponseInfo(c *gin.Context, duration time.Duration) *ResponseInfo {
	return &ResponseInfo{
		StatusCode:   c.Writer.Status(),
		DurationMs:   float64(duration.Nanoseconds()) / 1e6, // 转换为毫秒
		ResponseSize: max(c.Writer.Size(), 0),
	}
}

// shouldSkipPath 检查是否应该跳过某个路径的日志记录
func shouldSkipPath(path string, skipPaths []string) bool {
	for _, skipPath := range skipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}
	return false
}

// GetRequestID 从Context中获取请求ID
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// WithRequestID 将请求ID写入 context.Context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDCtxKey, requestID)
}

// RequestIDFromContext 从 context.Context 读取请求ID
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDCtxKey).(string)
	return id
}
