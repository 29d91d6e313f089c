package callbacks

import (
	"github.com/cloudwego/eino/callbacks"

	"review-sentiment/internal/eino/config"
	"review-sentiment/internal/infrastructure/metrics"
	"review-sentiment/pkg/logger"
)

// Factory Callback 工厂
type Factory struct {
	cfg     *config.CallbacksConfig
	logger  logger.Logger
	metrics *MetricsHandler
}

// NewFactory 创建 Callback 工厂，prom 可以为 nil
func NewFactory(cfg *config.CallbacksConfig, log logger.Logger, prom *metrics.Metrics) *Factory {
	f := &Factory{
		cfg:    cfg,
		logger: log,
	}
	if cfg.Metrics.Enabled {
		f.metrics = NewMetricsHandler(&cfg.Metrics, prom)
	}
	return f
}

// CreateHandlers 创建所有启用的 Callback 处理器
// 指标处理器在工厂内共享，保证统计数据累积在同一个实例上
func (f *Factory) CreateHandlers() []callbacks.Handler {
	handlers := make([]callbacks.Handler, 0, 3)

	if f.cfg.Logging.Enabled {
		handlers = append(handlers, NewLoggingHandler(f.logger, &f.cfg.Logging))
	}

	if f.metrics != nil {
		handlers = append(handlers, f.metrics)
	}

	if f.cfg.Tracing.Enabled {
		handlers = append(handlers, NewTracingHandler(&f.cfg.Tracing, f.logger))
	}

	return handlers
}

// GetMetricsHandler 获取指标回调处理器，未启用时返回 nil
func (f *Factory) GetMetricsHandler() *MetricsHandler {
	return f.metrics
}
