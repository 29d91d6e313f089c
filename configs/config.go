package configs

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/samber/lo"

	einoconfig "review-sentiment/internal/eino/config"
	"review-sentiment/internal/infrastructure/cache"
	"review-sentiment/internal/infrastructure/textanalysis"
)

// Config 主配置结构体，定义了应用程序的所有配置项。
// 包含服务器、日志、模型服务、文本分析、缓存、指标和 Eino 流程等模块的配置信息。
type Config struct {
	Server       ServerConfig          `yaml:"server"`
	Logging      LoggingConfig         `yaml:"logging"`
	Serving      ServingConfig         `yaml:"serving"`
	TextAnalysis textanalysis.Config   `yaml:"text_analysis"`
	Cache        cache.Config          `yaml:"cache"`
	Metrics      MetricsConfig         `yaml:"metrics"`
	Eino         einoconfig.EinoConfig `yaml:"eino"` // Eino 框架配置
}

// ServerConfig 定义服务器相关的配置参数。
// 包含监听地址、端口、运行模式和超时设置等。
type ServerConfig struct {
	Host                    string        `yaml:"host"`
	Port                    int           `yaml:"port"`
	Mode                    string        `yaml:"mode"` // debug, release, test
	ReadTimeout             time.Duration `yaml:"read_timeout"`
	WriteTimeout            time.Duration `yaml:"write_timeout"`
	IdleTimeout             time.Duration `yaml:"idle_timeout"`
	GracefulShutdownTimeout time.Duration `yaml:"graceful_shutdown_timeout"`
	MaxBodyBytes            int64         `yaml:"max_body_bytes"`
}

// LoggingConfig 定义日志系统的配置参数。
// 包含日志级别、输出目标（stdout/stderr/file）和格式（text/json）。
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
	Format   string `yaml:"format"`
}

// ServingConfig 定义模型服务的配置。
// 模型按列表顺序注册，该顺序即模型列表与对比表的输出顺序。
type ServingConfig struct {
	ModelsDir      string        `yaml:"models_dir"`
	VectorizerPath string        `yaml:"vectorizer_path"`
	DefaultModel   string        `yaml:"default_model"`
	Models         []ModelConfig `yaml:"models"`
}

// ModelConfig 单个模型的描述与导出文件
type ModelConfig struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Accuracy    float64 `yaml:"accuracy"`
	Precision   float64 `yaml:"precision"`
	Recall      float64 `yaml:"recall"`
	F1Score     float64 `yaml:"f1_score"`
	Artifact    string  `yaml:"artifact"`
}

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Validate 检查 Config 配置结构体的有效性。
// 依次调用各个子配置项的 Validate 方法，如果发现无效配置，返回相应的错误。
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config validation failed: %w", err)
	}

	if err := c.Serving.Validate(); err != nil {
		return fmt.Errorf("serving config validation failed: %w", err)
	}

	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config validation failed: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config validation failed: %w", err)
	}

	if err := c.Eino.Validate(); err != nil {
		return fmt.Errorf("eino config validation failed: %w", err)
	}

	return nil
}

// Validate 检查 ServerConfig 配置的有效性。
// 确保端口号在有效范围内，且超时设置为正数。
func (s *ServerConfig) Validate() error {
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("invalid port: %d", s.Port)
	}

	if s.ReadTimeout <= 0 {
		return fmt.Errorf("read_timeout must be positive")
	}

	if s.WriteTimeout <= 0 {
		return fmt.Errorf("write_timeout must be positive")
	}

	switch s.Mode {
	case "", "debug", "release", "test":
	default:
		return fmt.Errorf("invalid server mode: %s", s.Mode)
	}

	if s.MaxBodyBytes < 0 {
		return fmt.Errorf("max_body_bytes must not be negative")
	}

	return nil
}

// Validate 检查 LoggingConfig 配置的有效性。
// 确保日志级别、输出目标和格式有效，如果输出到文件，确保文件路径已指定。
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}

	if !validLevels[l.Level] {
		return fmt.Errorf("invalid log level: %s", l.Level)
	}

	validOutputs := map[string]bool{
		"stdout": true, "stderr": true, "file": true,
	}

	if !validOutputs[l.Output] {
		return fmt.Errorf("invalid log output: %s", l.Output)
	}

	if l.Output == "file" && l.FilePath == "" {
		return fmt.Errorf("file path is required when output is file")
	}

	// 验证日志格式，空值默认为 text
	validFormats := map[string]bool{
		"text": true, "json": true, "": true,
	}

	if !validFormats[l.Format] {
		return fmt.Errorf("invalid log format: %s", l.Format)
	}

	return nil
}

// Validate 检查 ServingConfig 配置的有效性。
// 至少需要一个模型，ID 不能重复，默认模型必须在列表中。
func (s *ServingConfig) Validate() error {
	if s.VectorizerPath == "" {
		return fmt.Errorf("vectorizer_path is required")
	}

	if len(s.Models) == 0 {
		return fmt.Errorf("at least one model is required")
	}

	for i := range s.Models {
		if err := s.Models[i].Validate(); err != nil {
			return fmt.Errorf("models[%d]: %w", i, err)
		}
	}

	ids := lo.Map(s.Models, func(m ModelConfig, _ int) string { return m.ID })
	if dup := lo.FindDuplicates(ids); len(dup) > 0 {
		return fmt.Errorf("duplicate model id: %s", dup[0])
	}

	if s.DefaultModel == "" {
		s.DefaultModel = ids[0]
	}
	if !lo.Contains(ids, s.DefaultModel) {
		return fmt.Errorf("default model %s is not configured", s.DefaultModel)
	}

	return nil
}

// Validate 检查单个模型配置
func (m *ModelConfig) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("model id is required")
	}
	if m.Artifact == "" {
		return fmt.Errorf("model %s: artifact is required", m.ID)
	}
	for name, v := range map[string]float64{
		"accuracy":  m.Accuracy,
		"precision": m.Precision,
		"recall":    m.Recall,
		"f1_score":  m.F1Score,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("model %s: %s must be between 0 and 1", m.ID, name)
		}
	}
	if m.Name == "" {
		m.Name = m.ID
	}
	return nil
}

// Validate 检查 MetricsConfig
func (m *MetricsConfig) Validate() error {
	if m.Enabled && m.Path == "" {
		m.Path = "/metrics"
	}
	return nil
}

// ResolveArtifact 将相对路径解析到 models_dir 下
func (s *ServingConfig) ResolveArtifact(path string) string {
	if path == "" || filepath.IsAbs(path) || s.ModelsDir == "" {
		return path
	}
	return filepath.Join(s.ModelsDir, path)
}

// GetAddr 获取服务器的完整监听地址。
// 返回格式为 "Host:Port" 的字符串。
func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
