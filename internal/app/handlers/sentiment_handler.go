// Package handlers 提供 HTTP 处理器
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"review-sentiment/internal/app/middleware"
	"review-sentiment/internal/domain/models"
	"review-sentiment/internal/domain/services"
	einocallbacks "review-sentiment/internal/eino/callbacks"
	"review-sentiment/pkg/logger"
	"review-sentiment/pkg/status"
)

// StatsProvider 提供预测流程的运行统计
type StatsProvider interface {
	GetMetrics() map[string]interface{}
}

// Pinger 可做健康检查的依赖
type Pinger interface {
	Ping(ctx context.Context) error
	Name() string
}

// SentimentHandler 情感预测处理器
type SentimentHandler struct {
	service services.SentimentService
	cache   Pinger
	stats   StatsProvider
	logger  logger.Logger
	now     func() time.Time
}

// NewSentimentHandler 创建情感预测处理器，cache 与 stats 可以为 nil
func NewSentimentHandler(service services.SentimentService, cache Pinger, stats StatsProvider, log logger.Logger) *SentimentHandler {
	return &SentimentHandler{
		service: service,
		cache:   cache,
		stats:   stats,
		logger:  log,
		now:     time.Now,
	}
}

// PredictRequest 单条预测请求
type PredictRequest struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

// BatchPredictRequest 批量预测请求
type BatchPredictRequest struct {
	Texts []string `json:"texts"`
	Model string   `json:"model"`
}

// ErrorBody 统一的错误响应
type ErrorBody struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// PredictResponse 单条预测响应
type PredictResponse struct {
	Status     string                   `json:"status"`
	Prediction *models.PredictionResult `json:"prediction"`
	RequestID  string                   `json:"request_id,omitempty"`
}

// BatchPredictResponse 批量预测响应
type BatchPredictResponse struct {
	Status    string              `json:"status"`
	Results   []models.BatchItem  `json:"results"`
	Summary   models.BatchSummary `json:"summary"`
	RequestID string              `json:"request_id,omitempty"`
}

// ModelsResponse 模型列表响应，models 按注册顺序输出
type ModelsResponse struct {
	Status       string                                                  `json:"status"`
	Models       *orderedmap.OrderedMap[string, models.ModelDescriptor] `json:"models"`
	DefaultModel string                                                  `json:"default_model"`
}

// ComparisonResponse 模型对比响应
type ComparisonResponse struct {
	Status          string                 `json:"status"`
	ModelComparison []models.ComparisonRow `json:"model_comparison"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status          string            `json:"status"`
	Timestamp       string            `json:"timestamp"`
	ModelsLoaded    int               `json:"models_loaded"`
	AvailableModels []string          `json:"available_models"`
	DefaultModel    string            `json:"default_model"`
	Components      map[string]string `json:"components"`
}

// Predict 单条文本预测
// POST /api/predict
func (h *SentimentHandler) Predict(c *gin.Context) {
	ctx := h.traceContext(c)
	requestID := middleware.GetRequestID(c)

	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}
	modelID := h.modelOrDefault(req.Model)

	start := time.Now()
	result, err := h.service.Predict(ctx, req.Text, modelID)
	if err != nil {
		h.respondWithServiceError(c, err, modelID, "Prediction failed")
		return
	}

	h.logger.InfoContext(ctx, "单条预测完成",
		"request_id", requestID,
		"model_id", result.ModelID,
		"sentiment", result.Sentiment,
		"confidence", result.Confidence,
		"duration_ms", time.Since(start).Milliseconds())

	c.JSON(http.StatusOK, PredictResponse{
		Status:     "success",
		Prediction: result,
		RequestID:  requestID,
	})
}

// BatchPredict 批量预测
// POST /api/batch_predict
func (h *SentimentHandler) BatchPredict(c *gin.Context) {
	ctx := h.traceContext(c)

	var req BatchPredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}
	modelID := h.modelOrDefault(req.Model)

	result, err := h.service.PredictBatch(ctx, req.Texts, modelID)
	if err != nil {
		h.respondWithServiceError(c, err, modelID, "Batch prediction failed")
		return
	}

	c.JSON(http.StatusOK, BatchPredictResponse{
		Status:    "success",
		Results:   result.Results,
		Summary:   result.Summary,
		RequestID: middleware.GetRequestID(c),
	})
}

// Models 模型列表
// GET /api/models
func (h *SentimentHandler) Models(c *gin.Context) {
	om := orderedmap.New[string, models.ModelDescriptor]()
	for _, d := range h.service.Models() {
		om.Set(d.ID, d)
	}

	c.JSON(http.StatusOK, ModelsResponse{
		Status:       "success",
		Models:       om,
		DefaultModel: h.service.DefaultModel(),
	})
}

// ModelComparison 模型指标对比
// GET /api/analytics/model_comparison
func (h *SentimentHandler) ModelComparison(c *gin.Context) {
	c.JSON(http.StatusOK, ComparisonResponse{
		Status:          "success",
		ModelComparison: h.service.Compare(),
	})
}

// Health 健康检查，缓存不可用时返回 503
// GET /api/health
func (h *SentimentHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	descriptors := h.service.Models()
	ids := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		ids = append(ids, d.ID)
	}

	components := map[string]string{"models": "ok"}
	healthy := len(ids) > 0
	if !healthy {
		components["models"] = "no models loaded"
	}

	if h.cache == nil || h.cache.Name() == "none" {
		components["cache"] = "not configured"
	} else if err := h.cache.Ping(ctx); err != nil {
		components["cache"] = "error: " + err.Error()
		healthy = false
	} else {
		components["cache"] = "ok"
	}

	statusText, httpStatus := "healthy", http.StatusOK
	if !healthy {
		statusText, httpStatus = "unhealthy", http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthResponse{
		Status:          statusText,
		Timestamp:       h.now().Format(time.RFC3339),
		ModelsLoaded:    len(ids),
		AvailableModels: ids,
		DefaultModel:    h.service.DefaultModel(),
		Components:      components,
	})
}

// Stats 预测流程各节点的调用统计
// GET /api/stats
func (h *SentimentHandler) Stats(c *gin.Context) {
	if h.stats == nil {
		h.respondWithError(c, status.ErrCodeUnavailable, "Pipeline metrics are disabled")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"stats":  h.stats.GetMetrics(),
	})
}

// modelOrDefault 请求未指定模型时使用默认模型
func (h *SentimentHandler) modelOrDefault(model string) string {
	if model == "" {
		return h.service.DefaultModel()
	}
	return model
}

// traceContext 以请求ID作为链路追踪ID
func (h *SentimentHandler) traceContext(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	if requestID := middleware.RequestIDFromContext(ctx); requestID != "" {
		ctx = einocallbacks.WithTraceID(ctx, requestID)
	}
	return ctx
}

// respondBindError 请求体解析失败
func (h *SentimentHandler) respondBindError(c *gin.Context, err error) {
	mapped := MapServiceError(err, "", "")
	if mapped.Code != status.ErrCodePayloadTooLarge {
		mapped.Code = status.ErrCodeInvalidParam
		mapped.Message = "Invalid request body: " + err.Error()
	}

	h.logger.WarnContext(c.Request.Context(), "请求参数解析失败",
		"request_id", middleware.GetRequestID(c),
		"error", err.Error())
	h.respondWithError(c, mapped.Code, mapped.Message)
}

// respondWithServiceError 映射并返回服务层错误
func (h *SentimentHandler) respondWithServiceError(c *gin.Context, err error, modelID, failurePrefix string) {
	mapped := MapServiceError(err, modelID, failurePrefix)

	logFn := h.logger.WarnContext
	if mapped.StatusCode >= http.StatusInternalServerError {
		logFn = h.logger.ErrorContext
	}
	logFn(c.Request.Context(), "请求处理失败",
		"request_id", middleware.GetRequestID(c),
		"model_id", modelID,
		"code", mapped.Code.String(),
		"error", err.Error())

	h.respondWithError(c, mapped.Code, mapped.Message)
}

// respondWithError 返回错误响应
func (h *SentimentHandler) respondWithError(c *gin.Context, code status.StatusCode, message string) {
	c.JSON(code.HTTPStatus(), ErrorBody{
		Status:    "error",
		Message:   message,
		Code:      code.String(),
		RequestID: middleware.GetRequestID(c),
	})
}
