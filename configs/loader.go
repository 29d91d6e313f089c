package configs

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"review-sentiment/internal/domain/models"
	einoconfig "review-sentiment/internal/eino/config"
	"review-sentiment/internal/infrastructure/cache"
	"review-sentiment/internal/infrastructure/registry"
	"review-sentiment/internal/infrastructure/textanalysis"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "SENTIMENT"

// searchPaths 未指定配置文件时依次尝试的路径
var searchPaths = []string{
	"configs/config.yaml",
	"config.yaml",
	"/etc/review-sentiment/config.yaml",
}

// Load 加载并验证应用程序配置。
// 它按照以下优先级顺序加载配置：
// 1. 默认配置
// 2. 配置文件（config.yaml，支持多个搜索路径）
// 3. 环境变量（SENTIMENT_ 前缀，覆盖配置文件中的值）
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, "")
}

// LoadFrom 与 Load 相同，但 path 非空时只读取该文件，且文件必须存在。
// .env 与环境变量覆盖在两种情况下都会生效。
func LoadFrom(ctx context.Context, path string) (*Config, error) {
	// 加载 .env 文件（如果存在）
	// 忽略错误，因为 .env 文件是可选的
	_ = godotenv.Load()

	config := DefaultConfig()

	if path != "" {
		if err := LoadFile(path, config); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	} else {
		// 尝试加载配置文件
		for _, p := range searchPaths {
			if err := LoadFile(p, config); err == nil {
				break
			} else if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	// 从环境变量覆盖配置
	if err := loadFromEnv(config); err != nil {
		return nil, err
	}

	// 验证配置
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadFile 读取 YAML 配置文件并合并到 config 中
// 文件不存在时返回的错误满足 os.IsNotExist
func LoadFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// DefaultConfig 创建并返回一个包含默认值的 Config 对象。
// 默认注册六个情感模型，与训练阶段导出的模型一致。
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:                    "0.0.0.0",
			Port:                    5000,
			Mode:                    "release",
			ReadTimeout:             30 * time.Second,
			WriteTimeout:            30 * time.Second,
			IdleTimeout:             60 * time.Second,
			GracefulShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:            8 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stdout",
		},
		Serving: ServingConfig{
			ModelsDir:      "models",
			VectorizerPath: "tfidf_vectorizer.json",
			DefaultModel:   "logistic_regression",
			Models:         defaultModels(),
		},
		TextAnalysis: textanalysis.Config{
			DetectLanguage:        true,
			MinLanguageConfidence: 0.5,
		},
		Cache: cache.Config{
			Enabled:      false,
			Addr:         "localhost:6379",
			Prefix:       "sentiment:pred",
			TTL:          time.Hour,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Eino: *einoconfig.DefaultEinoConfig(),
	}
}

func defaultModels() []ModelConfig {
	return []ModelConfig{
		{
			ID:          "logistic_regression",
			Name:        "Logistic Regression",
			Description: "Linear classification model with good interpretability",
			Accuracy:    0.90, Precision: 0.90, Recall: 1.00, F1Score: 0.95,
			Artifact: "logistic_regression.json",
		},
		{
			ID:          "random_forest",
			Name:        "Random Forest",
			Description: "Ensemble method with multiple decision trees",
			Accuracy:    0.90, Precision: 0.93, Recall: 0.96, F1Score: 0.95,
			Artifact: "random_forest.json",
		},
		{
			ID:          "xgboost",
			Name:        "XGBoost",
			Description: "Gradient boosting framework for high performance",
			Accuracy:    0.88, Precision: 0.95, Recall: 0.92, F1Score: 0.93,
			Artifact: "xgboost.json",
		},
		{
			ID:          "naive_bayes",
			Name:        "Naive Bayes",
			Description: "Probabilistic classifier based on Bayes theorem",
			Accuracy:    0.83, Precision: 0.95, Recall: 0.85, F1Score: 0.90,
			Artifact: "naive_bayes.json",
		},
		{
			ID:          "logistic_regression_smote",
			Name:        "Logistic Regression (SMOTE)",
			Description: "Logistic regression with SMOTE for balanced dataset",
			Accuracy:    0.87, Precision: 0.96, Recall: 0.89, F1Score: 0.93,
			Artifact: "logistic_regression_smote.json",
		},
		{
			ID:          "xgboost_tuned",
			Name:        "XGBoost (Tuned)",
			Description: "Hyperparameter-tuned XGBoost model",
			Accuracy:    0.88, Precision: 0.95, Recall: 0.92, F1Score: 0.93,
			Artifact: "xgboost_tuned.json",
		},
	}
}

// envOverrides 支持的环境变量，未设置的字段保持 nil
type envOverrides struct {
	Port         *int    `envconfig:"PORT"`
	Host         *string `envconfig:"HOST"`
	LogLevel     *string `envconfig:"LOG_LEVEL"`
	ModelsDir    *string `envconfig:"MODELS_DIR"`
	DefaultModel *string `envconfig:"DEFAULT_MODEL"`
	RedisAddr    *string `envconfig:"REDIS_ADDR"`
	CacheEnabled *bool   `envconfig:"CACHE_ENABLED"`
}

// loadFromEnv 从环境变量中读取配置并覆盖 Config 中的值。
// 支持 SENTIMENT_PORT, SENTIMENT_MODELS_DIR, SENTIMENT_REDIS_ADDR 等环境变量。
func loadFromEnv(config *Config) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	if env.Port != nil {
		config.Server.Port = *env.Port
	}
	if env.Host != nil {
		config.Server.Host = *env.Host
	}
	if env.LogLevel != nil {
		config.Logging.Level = *env.LogLevel
	}
	if env.ModelsDir != nil {
		config.Serving.ModelsDir = *env.ModelsDir
	}
	if env.DefaultModel != nil {
		config.Serving.DefaultModel = *env.DefaultModel
	}
	if env.RedisAddr != nil {
		config.Cache.Addr = *env.RedisAddr
	}
	if env.CacheEnabled != nil {
		config.Cache.Enabled = *env.CacheEnabled
	}
	return nil
}

// Sources 按配置顺序生成模型加载列表，相对路径解析到 models_dir
func (s *ServingConfig) Sources() []registry.Source {
	return lo.Map(s.Models, func(m ModelConfig, _ int) registry.Source {
		return registry.Source{
			Descriptor: models.ModelDescriptor{
				ID:          m.ID,
				Name:        m.Name,
				Description: m.Description,
				Accuracy:    m.Accuracy,
				Precision:   m.Precision,
				Recall:      m.Recall,
				F1Score:     m.F1Score,
			},
			ArtifactPath: s.ResolveArtifact(m.Artifact),
		}
	})
}

// VectorizerArtifact 返回解析后的向量化器导出文件路径
func (s *ServingConfig) VectorizerArtifact() string {
	return s.ResolveArtifact(s.VectorizerPath)
}
