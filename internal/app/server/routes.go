package server

import (
	"github.com/gin-gonic/gin"

	"review-sentiment/internal/app/middleware"
)

// SetupRoutes 配置并注册 HTTP 服务器的所有路由规则。
// 它负责加载中间件，并将 URL 路径映射到相应的处理函数。
func (s *Server) SetupRoutes() {
	// 应用全局中间件
	s.setupMiddleware()

	api := s.engine.Group("/api")

	// 单条预测
	api.POST("/predict", s.sentimentHandler.Predict)
	// 批量预测，空白文本跳过但保留原始下标
	api.POST("/batch_predict", s.sentimentHandler.BatchPredict)
	// 模型列表，按注册顺序
	api.GET("/models", s.sentimentHandler.Models)
	// 模型指标对比
	api.GET("/analytics/model_comparison", s.sentimentHandler.ModelComparison)
	// 健康检查
	api.GET("/health", s.sentimentHandler.Health)
	// 预测流程节点统计
	api.GET("/stats", s.sentimentHandler.Stats)

	// Prometheus 指标
	if s.metrics != nil && s.metricsConfig.Enabled {
		s.engine.GET(s.metricsConfig.Path, gin.WrapH(s.metrics.Handler()))
	}
}

// setupMiddleware 设置全局中间件
func (s *Server) setupMiddleware() {
	// 设置恢复中间件 - 捕获panic并返回500错误
	s.engine.Use(gin.Recovery())

	// 设置日志中间件 - 记录请求日志并生成请求ID
	s.engine.Use(middleware.LoggingMiddleware(&middleware.LoggingConfig{
		// 跳过健康检查和指标路径的日志记录，减少日志噪音
		SkipPaths: []string{"/api/health", s.metricsConfig.Path},
		Logger:    s.logger,
	}))

	s.engine.Use(middleware.CORS())
	s.engine.Use(middleware.BodyLimit(s.config.MaxBodyBytes))

	if s.metrics != nil {
		s.engine.Use(middleware.Metrics(s.metrics))
	}
}
