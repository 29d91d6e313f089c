// Package config 定义 Eino 预测流程的配置结构
package config

import "fmt"

// EinoConfig Eino 框架的总配置结构。
// 包含预测流程参数与回调系统配置。
type EinoConfig struct {
	Predict   PredictConfig   `yaml:"predict"`
	Callbacks CallbacksConfig `yaml:"callbacks"`
}

// PredictConfig 定义预测流程（Predict Graph）的配置。
type PredictConfig struct {
	// FallbackConfidence 模型无法给出概率时使用的置信度（0-100）
	FallbackConfidence float64 `yaml:"fallback_confidence"`

	// 节点开关
	PreprocessEnabled   bool `yaml:"preprocess_enabled"`
	TextAnalysisEnabled bool `yaml:"text_analysis_enabled"`

	// 输入限制，0 表示不限制
	MaxTextLength int `yaml:"max_text_length"`
	MaxBatchSize  int `yaml:"max_batch_size"`
}

// Validate 检查预测流程配置
func (p *PredictConfig) Validate() error {
	if p.FallbackConfidence < 0 || p.FallbackConfidence > 100 {
		return fmt.Errorf("fallback_confidence must be between 0 and 100")
	}
	if p.MaxTextLength < 0 {
		return fmt.Errorf("max_text_length must not be negative")
	}
	if p.MaxBatchSize < 0 {
		return fmt.Errorf("max_batch_size must not be negative")
	}
	return nil
}

// CallbacksConfig 定义 Eino 框架的回调系统配置。
type CallbacksConfig struct {
	Logging LoggingCallbackConfig `yaml:"logging"`
	Metrics MetricsCallbackConfig `yaml:"metrics"`
	Tracing TracingCallbackConfig `yaml:"tracing"`
}

// LoggingCallbackConfig 定义日志回调的配置。
type LoggingCallbackConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"` // debug, info
}

// MetricsCallbackConfig 定义指标回调的配置。
type MetricsCallbackConfig struct {
	Enabled bool `yaml:"enabled"`
}

// TracingCallbackConfig 定义链路追踪回调的配置。
type TracingCallbackConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Validate 检查 Eino 配置
func (c *EinoConfig) Validate() error {
	if err := c.Predict.Validate(); err != nil {
		return fmt.Errorf("predict config validation failed: %w", err)
	}

	switch c.Callbacks.Logging.Level {
	case "", "debug", "info":
	default:
		return fmt.Errorf("invalid callback logging level: %s", c.Callbacks.Logging.Level)
	}
	return nil
}

// DefaultEinoConfig 创建并返回一个包含默认值的 EinoConfig 对象。
func DefaultEinoConfig() *EinoConfig {
	return &EinoConfig{
		Predict: PredictConfig{
			FallbackConfidence:  85.0,
			PreprocessEnabled:   true,
			TextAnalysisEnabled: true,
			MaxTextLength:       10000,
			MaxBatchSize:        1000,
		},
		Callbacks: CallbacksConfig{
			Logging: LoggingCallbackConfig{
				Enabled: true,
				Level:   "debug",
			},
			Metrics: MetricsCallbackConfig{
				Enabled: true,
			},
			Tracing: TracingCallbackConfig{
				Enabled: false,
			},
		},
	}
}
