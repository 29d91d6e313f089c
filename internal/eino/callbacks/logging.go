// Package callbacks 提供 Eino Callback 处理器实现
package callbacks

import (
	"context"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/schema"

	"review-sentiment/internal/eino/config"
	"review-sentiment/pkg/logger"
)

// LoggingHandler 实现基于日志的 Callback 处理器。
// 它会在节点开始、结束或出错时记录日志。
type LoggingHandler struct {
	logger logger.Logger
	cfg    *config.LoggingCallbackConfig
}

// NewLoggingHandler 创建一个新的日志回调处理器。
func NewLoggingHandler(log logger.Logger, cfg *config.LoggingCallbackConfig) callbacks.Handler {
	return &LoggingHandler{
		logger: log,
		cfg:    cfg,
	}
}

// log 按配置级别输出，出错日志总是使用 Error 级别
func (h *LoggingHandler) log(ctx context.Context, msg string, args ...interface{}) {
	if h.cfg.Level == "info" {
		h.logger.InfoContext(ctx, msg, args...)
		return
	}
	h.logger.DebugContext(ctx, msg, args...)
}

// OnStart 记录节点开始执行，并将开始时间注入上下文以计算耗时。
func (h *LoggingHandler) OnStart(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
	if !h.cfg.Enabled {
		return ctx
	}

	ctx = context.WithValue(ctx, startTimeKey, time.Now())

	h.log(ctx, "节点开始执行",
		"component", info.Component,
		"name", info.Name,
		"type", info.Type,
	)

	return ctx
}

// OnEnd 记录节点执行耗时。
func (h *LoggingHandler) OnEnd(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
	if !h.cfg.Enabled {
		return ctx
	}

	h.log(ctx, "节点执行完成",
		"component", info.Component,
		"name", info.Name,
		"type", info.Type,
		"duration_ms", elapsedMs(ctx, startTimeKey),
	)

	return ctx
}

// OnError 记录错误详情和执行耗时。
func (h *LoggingHandler) OnError(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
	if !h.cfg.Enabled {
		return ctx
	}

	h.logger.ErrorContext(ctx, "节点执行出错",
		"component", info.Component,
		"name", info.Name,
		"type", info.Type,
		"duration_ms", elapsedMs(ctx, startTimeKey),
		"error", err.Error(),
	)

	return ctx
}

// OnStartWithStreamInput 预测流程不使用流式输入，仅记录开始时间。
func (h *LoggingHandler) OnStartWithStreamInput(ctx context.Context, info *callbacks.RunInfo, input *schema.StreamReader[callbacks.CallbackInput]) context.Context {
	if input != nil {
		input.Close()
	}
	return h.OnStart(ctx, info, nil)
}

// OnEndWithStreamOutput 预测流程不使用流式输出，仅记录耗时。
func (h *LoggingHandler) OnEndWithStreamOutput(ctx context.Context, info *callbacks.RunInfo, output *schema.StreamReader[callbacks.CallbackOutput]) context.Context {
	if output != nil {
		output.Close()
	}
	return h.OnEnd(ctx, info, nil)
}

// contextKey 定义了上下文键的类型，用于防止键名冲突。
type contextKey string

const (
	// startTimeKey 用于在上下文中存储节点开始执行的时间。
	startTimeKey contextKey = "callback_start_time"
)

// elapsedMs 计算从上下文中记录的开始时间到现在的毫秒数
func elapsedMs(ctx context.Context, key contextKey) float64 {
	start, ok := ctx.Value(key).(time.Time)
	if !ok {
		return 0
	}
	return float64(time.Since(start).Microseconds()) / 1000
}
