package callbacks

import (
	"context"
	"sync"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/schema"

	"review-sentiment/internal/eino/config"
	"review-sentiment/internal/infrastructure/metrics"
)

// MetricsHandler 指标回调处理器
// 同时维护进程内统计（用于 /api/stats）和 Prometheus 指标
type MetricsHandler struct {
	cfg     *config.MetricsCallbackConfig
	prom    *metrics.Metrics
	metrics *MetricsCollector
}

// MetricsCollector 指标收集器
type MetricsCollector struct {
	mu sync.RWMutex

	// 调用计数
	TotalCalls      int64
	SuccessfulCalls int64
	FailedCalls     int64

	// 延迟统计
	TotalLatencyUs   int64
	ComponentLatency map[string]*LatencyStats

	// 节点调用计数
	ComponentCalls map[string]int64
}

// LatencyStats 延迟统计（微秒）
type LatencyStats struct {
	Count   int64
	TotalUs int64
	MinUs   int64
	MaxUs   int64
}

// NewMetricsHandler 创建指标回调处理器，prom 为 nil 时只统计进程内指标
func NewMetricsHandler(cfg *config.MetricsCallbackConfig, prom *metrics.Metrics) *MetricsHandler {
	return &MetricsHandler{
		cfg:  cfg,
		prom: prom,
		metrics: &MetricsCollector{
			ComponentLatency: make(map[string]*LatencyStats),
			ComponentCalls:   make(map[string]int64),
		},
	}
}

// OnStart 节点开始执行时调用
func (h *MetricsHandler) OnStart(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
	if !h.cfg.Enabled {
		return ctx
	}

	h.metrics.mu.Lock()
	h.metrics.TotalCalls++
	h.metrics.ComponentCalls[info.Name]++
	h.metrics.mu.Unlock()

	return context.WithValue(ctx, metricsStartTimeKey, time.Now())
}

// OnEnd 节点执行完成时调用
func (h *MetricsHandler) OnEnd(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
	if !h.cfg.Enabled {
		return ctx
	}

	startTime, ok := ctx.Value(metricsStartTimeKey).(time.Time)
	if !ok {
		return ctx
	}

	duration := time.Since(startTime)
	durationUs := duration.Microseconds()

	if h.prom != nil {
		h.prom.NodeDuration.WithLabelValues(info.Name).Observe(duration.Seconds())
	}

	h.metrics.mu.Lock()
	defer h.metrics.mu.Unlock()

	h.metrics.SuccessfulCalls++
	h.metrics.TotalLatencyUs += durationUs

	stats, exists := h.metrics.ComponentLatency[info.Name]
	if !exists {
		stats = &LatencyStats{
			MinUs: durationUs,
			MaxUs: durationUs,
		}
		h.metrics.ComponentLatency[info.Name] = stats
	}

	stats.Count++
	stats.TotalUs += durationUs
	if durationUs < stats.MinUs {
		stats.MinUs = durationUs
	}
	if durationUs > stats.MaxUs {
		stats.MaxUs = durationUs
	}

	return ctx
}

// OnError 节点执行出错时调用
func (h *MetricsHandler) OnError(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
	if !h.cfg.Enabled {
		return ctx
	}

	if h.prom != nil {
		h.prom.NodeErrors.WithLabelValues(info.Name).Inc()
	}

	h.metrics.mu.Lock()
	h.metrics.FailedCalls++
	h.metrics.mu.Unlock()

	return ctx
}

// OnStartWithStreamInput 流式输入开始时调用
func (h *MetricsHandler) OnStartWithStreamInput(ctx context.Context, info *callbacks.RunInfo, input *schema.StreamReader[callbacks.CallbackInput]) context.Context {
	if input != nil {
		input.Close()
	}
	return h.OnStart(ctx, info, nil)
}

// OnEndWithStreamOutput 流式输出结束时调用
func (h *MetricsHandler) OnEndWithStreamOutput(ctx context.Context, info *callbacks.RunInfo, output *schema.StreamReader[callbacks.CallbackOutput]) context.Context {
	if output != nil {
		output.Close()
	}
	return h.OnEnd(ctx, info, nil)
}

// GetMetrics 获取当前指标
func (h *MetricsHandler) GetMetrics() map[string]interface{} {
	h.metrics.mu.RLock()
	defer h.metrics.mu.RUnlock()

	avgLatency := int64(0)
	if h.metrics.SuccessfulCalls > 0 {
		avgLatency = h.metrics.TotalLatencyUs / h.metrics.SuccessfulCalls
	}

	componentStats := make(map[string]interface{}, len(h.metrics.ComponentLatency))
	for name, stats := range h.metrics.ComponentLatency {
		avgUs := int64(0)
		if stats.Count > 0 {
			avgUs = stats.TotalUs / stats.Count
		}
		componentStats[name] = map[string]interface{}{
			"count":  stats.Count,
			"avg_us": avgUs,
			"min_us": stats.MinUs,
			"max_us": stats.MaxUs,
		}
	}

	calls := make(map[string]int64, len(h.metrics.ComponentCalls))
	for name, n := range h.metrics.ComponentCalls {
		calls[name] = n
	}

	return map[string]interface{}{
		"total_calls":      h.metrics.TotalCalls,
		"successful_calls": h.metrics.SuccessfulCalls,
		"failed_calls":     h.metrics.FailedCalls,
		"avg_latency_us":   avgLatency,
		"component_stats":  componentStats,
		"component_calls":  calls,
	}
}

const (
	metricsStartTimeKey contextKey = "metrics_start_time"
)
