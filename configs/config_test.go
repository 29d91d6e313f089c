package configs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidation(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "logistic_regression", cfg.Serving.DefaultModel)
	assert.Len(t, cfg.Serving.Models, 6)
	assert.Equal(t, 85.0, cfg.Eino.Predict.FallbackConfidence)
	assert.False(t, cfg.Cache.Enabled)
}

func TestServingConfigValidation(t *testing.T) {
	model := func(id string) ModelConfig {
		return ModelConfig{ID: id, Artifact: id + ".json", Accuracy: 0.9}
	}

	tests := []struct {
		name    string
		config  ServingConfig
		wantErr bool
	}{
		{
			name:    "valid",
			config:  ServingConfig{VectorizerPath: "v.json", Models: []ModelConfig{model("a"), model("b")}, DefaultModel: "b"},
			wantErr: false,
		},
		{
			name:    "missing vectorizer",
			config:  ServingConfig{Models: []ModelConfig{model("a")}},
			wantErr: true,
		},
		{
			name:    "no models",
			config:  ServingConfig{VectorizerPath: "v.json"},
			wantErr: true,
		},
		{
			name:    "duplicate ids",
			config:  ServingConfig{VectorizerPath: "v.json", Models: []ModelConfig{model("a"), model("a")}},
			wantErr: true,
		},
		{
			name:    "unknown default model",
			config:  ServingConfig{VectorizerPath: "v.json", Models: []ModelConfig{model("a")}, DefaultModel: "z"},
			wantErr: true,
		},
		{
			name:    "missing artifact",
			config:  ServingConfig{VectorizerPath: "v.json", Models: []ModelConfig{{ID: "a"}}},
			wantErr: true,
		},
		{
			name: "metric out of range",
			config: ServingConfig{VectorizerPath: "v.json", Models: []ModelConfig{
				{ID: "a", Artifact: "a.json", Recall: 1.5},
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestServingConfig_Defaults(t *testing.T) {
	cfg := ServingConfig{VectorizerPath: "v.json", Models: []ModelConfig{{ID: "only", Artifact: "only.json"}}}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "only", cfg.DefaultModel)
	assert.Equal(t, "only", cfg.Models[0].Name)
}

func TestServingConfig_Sources(t *testing.T) {
	cfg := DefaultConfig().Serving
	cfg.ModelsDir = "/srv/models"

	sources := cfg.Sources()
	require.Len(t, sources, 6)
	assert.Equal(t, "logistic_regression", sources[0].Descriptor.ID)
	assert.Equal(t, "xgboost_tuned", sources[5].Descriptor.ID)
	assert.Equal(t, filepath.Join("/srv/models", "random_forest.json"), sources[1].ArtifactPath)
	assert.Equal(t, 0.95, sources[1].Descriptor.F1Score)
	assert.Equal(t, filepath.Join("/srv/models", "tfidf_vectorizer.json"), cfg.VectorizerArtifact())

	assert.Equal(t, "/abs/x.json", cfg.ResolveArtifact("/abs/x.json"))
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SENTIMENT_PORT", "9090")
	t.Setenv("SENTIMENT_MODELS_DIR", "/data/models")
	t.Setenv("SENTIMENT_CACHE_ENABLED", "true")
	t.Setenv("SENTIMENT_REDIS_ADDR", "redis:6379")

	cfg := DefaultConfig()
	require.NoError(t, loadFromEnv(cfg))

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/data/models", cfg.Serving.ModelsDir)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "redis:6379", cfg.Cache.Addr)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoadFromEnv_InvalidValue(t *testing.T) {
	t.Setenv("SENTIMENT_PORT", "not-a-number")

	assert.Error(t, loadFromEnv(DefaultConfig()))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 8081
serving:
  default_model: naive_bayes
  models:
    - id: naive_bayes
      name: Naive Bayes
      artifact: nb.json
eino:
  predict:
    fallback_confidence: 70
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg := DefaultConfig()
	require.NoError(t, LoadFile(path, cfg))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Len(t, cfg.Serving.Models, 1)
	assert.Equal(t, "naive_bayes", cfg.Serving.DefaultModel)
	assert.Equal(t, 70.0, cfg.Eino.Predict.FallbackConfidence)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
}

func TestLoadFrom_ExplicitPathKeepsEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 8081
serving:
  default_model: naive_bayes
  models:
    - id: naive_bayes
      artifact: nb.json
    - id: xgboost
      artifact: xgb.json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("SENTIMENT_PORT", "9191")
	t.Setenv("SENTIMENT_DEFAULT_MODEL", "xgboost")

	cfg, err := LoadFrom(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "xgboost", cfg.Serving.DefaultModel)
	assert.Len(t, cfg.Serving.Models, 2)
}

func TestLoadFrom_Errors(t *testing.T) {
	_, err := LoadFrom(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("serving:\n  default_model: missing\n"), 0o600))
	_, err = LoadFrom(context.Background(), path)
	assert.Error(t, err)
}

func TestLoadFile_Missing(t *testing.T) {
	err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"), DefaultConfig())
	assert.True(t, os.IsNotExist(err))
}
