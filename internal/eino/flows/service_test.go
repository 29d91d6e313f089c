package flows

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"review-sentiment/internal/domain/models"
	"review-sentiment/internal/domain/services"
	"review-sentiment/internal/eino/config"
	"review-sentiment/internal/infrastructure/registry"
	"review-sentiment/pkg/logger"
)

// stubVectorizer 第一维为文本中 "good" 的次数，第二维为 "bad" 的次数
type stubVectorizer struct{}

func (stubVectorizer) Transform(text string) (mat.Vector, error) {
	lower := strings.ToLower(text)
	return mat.NewVecDense(2, []float64{
		float64(strings.Count(lower, "good")),
		float64(strings.Count(lower, "bad")),
	}), nil
}

func (stubVectorizer) Dimensions() int { return 2 }

type brokenVectorizer struct{}

func (brokenVectorizer) Transform(string) (mat.Vector, error) {
	return nil, services.ErrVectorizerNotInitialized
}

func (brokenVectorizer) Dimensions() int { return 2 }

// labelOnly 不支持概率的分类器
type labelOnly struct{}

func (labelOnly) PredictLabel(x mat.Vector) (int, error) {
	switch {
	case x.AtVec(0) > x.AtVec(1):
		return 2, nil
	case x.AtVec(1) > x.AtVec(0):
		return 0, nil
	}
	return 1, nil
}

func (labelOnly) Dimensions() int { return 2 }

// withProbs 支持概率的分类器
type withProbs struct{ labelOnly }

func (withProbs) PredictProbabilities(x mat.Vector) ([]float64, error) {
	if x.AtVec(0) > x.AtVec(1) {
		return []float64{0.1, 0.2, 0.7}, nil
	}
	return []float64{0.6, 0.3, 0.1}, nil
}

// fixedLabel 总是返回同一个标签
type fixedLabel int

func (f fixedLabel) PredictLabel(mat.Vector) (int, error) { return int(f), nil }

func (fixedLabel) Dimensions() int { return 2 }

// wideModel 期望 5 维特征
type wideModel struct{ labelOnly }

func (wideModel) Dimensions() int { return 5 }

// stubAnalyzer 只统计单词数
type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(_ context.Context, text string) (*models.TextAnalysis, error) {
	return &models.TextAnalysis{WordCount: len(strings.Fields(text))}, nil
}

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New()
	require.NoError(t, r.Register(models.ModelDescriptor{ID: "probabilistic", Name: "Probabilistic"}, withProbs{}))
	require.NoError(t, r.Register(models.ModelDescriptor{ID: "margin", Name: "Margin"}, labelOnly{}))
	require.NoError(t, r.Register(models.ModelDescriptor{ID: "broken", Name: "Broken"}, fixedLabel(7)))
	r.Seal()
	return r
}

func newTestService(t *testing.T, vec services.Vectorizer) *PredictionService {
	t.Helper()
	cfg := config.DefaultEinoConfig().Predict
	cfg.MaxBatchSize = 10
	svc, err := NewPredictionService(context.Background(), ServiceOptions{
		Registry:   newTestRegistry(t),
		Vectorizer: vec,
		Analyzer:   stubAnalyzer{},
		Config:     &cfg,
		Logger:     logger.Discard(),
	})
	require.NoError(t, err)
	return svc
}

func TestPredict_WithProbabilities(t *testing.T) {
	svc := newTestService(t, stubVectorizer{})

	res, err := svc.Predict(context.Background(), "good good food", "probabilistic")
	require.NoError(t, err)

	assert.Equal(t, "Positive", res.Sentiment)
	assert.Equal(t, models.SentimentPositive, res.SentimentCode)
	assert.Equal(t, "😊", res.Emoji)
	assert.InDelta(t, 70.0, res.Confidence, 1e-9)
	assert.Equal(t, models.ConfidenceFromModel, res.ConfidenceSource)
	assert.Equal(t, models.ProbabilityBreakdown{Negative: 0.1, Neutral: 0.2, Positive: 0.7}, res.Probabilities)
	assert.Equal(t, "probabilistic", res.ModelID)
	assert.Equal(t, "Probabilistic", res.ModelUsed)
	require.NotNil(t, res.TextAnalysis)
	assert.Equal(t, 3, res.TextAnalysis.WordCount)
}

func TestPredict_FallbackConfidence(t *testing.T) {
	svc := newTestService(t, stubVectorizer{})

	res, err := svc.Predict(context.Background(), "bad service", "margin")
	require.NoError(t, err)

	assert.Equal(t, "Negative", res.Sentiment)
	assert.Equal(t, 85.0, res.Confidence)
	assert.Equal(t, models.ConfidenceFallback, res.ConfidenceSource)
	assert.Equal(t, models.ProbabilityBreakdown{}, res.Probabilities)
}

func TestPredict_DefaultModel(t *testing.T) {
	svc := newTestService(t, stubVectorizer{})
	assert.Equal(t, "probabilistic", svc.DefaultModel())

	res, err := svc.Predict(context.Background(), "okay", "")
	require.NoError(t, err)
	assert.Equal(t, "probabilistic", res.ModelID)
}

func TestPredict_ValidationErrors(t *testing.T) {
	svc := newTestService(t, stubVectorizer{})

	tests := []struct {
		name    string
		text    string
		model   string
		wantErr error
	}{
		{"empty text", "", "margin", services.ErrEmptyInput},
		{"whitespace text", "  \n\t ", "margin", services.ErrEmptyInput},
		{"empty text wins over unknown model", " ", "nope", services.ErrEmptyInput},
		{"unknown model", "good", "nope", services.ErrModelNotFound},
		{"too long", strings.Repeat("a", 10001), "margin", services.ErrTextTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Predict(context.Background(), tt.text, tt.model)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPredict_UnknownLabel(t *testing.T) {
	svc := newTestService(t, stubVectorizer{})

	res, err := svc.Predict(context.Background(), "anything", "broken")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, services.ErrUnknownLabel)
	assert.Equal(t, NodeNormalize, FailedNode(err))
	assert.Equal(t, "predict with broken: unknown sentiment label: 7", err.Error())
}

func TestPredict_VectorizerFailure(t *testing.T) {
	svc := newTestService(t, brokenVectorizer{})

	res, err := svc.Predict(context.Background(), "good", "margin")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, services.ErrVectorizerNotInitialized)
	assert.Equal(t, NodeVectorize, FailedNode(err))
	assert.NotContains(t, err.Error(), "node path")
}

func TestPredictBatch(t *testing.T) {
	svc := newTestService(t, stubVectorizer{})

	texts := []string{"good", "", "bad", "   ", "plain"}
	res, err := svc.PredictBatch(context.Background(), texts, "margin")
	require.NoError(t, err)

	require.Len(t, res.Results, 3)
	assert.Equal(t, []int{0, 2, 4}, []int{res.Results[0].Index, res.Results[1].Index, res.Results[2].Index})
	assert.Equal(t, "Positive", res.Results[0].Sentiment)
	assert.Equal(t, "Negative", res.Results[1].Sentiment)
	assert.Equal(t, "Neutral", res.Results[2].Sentiment)
	assert.Equal(t, "bad", res.Results[1].Text)

	for _, item := range res.Results {
		assert.Equal(t, 85.0, item.Confidence)
		assert.Equal(t, models.ConfidenceFallback, item.ConfidenceSource)
		assert.Empty(t, item.Error)
	}

	assert.Equal(t, models.BatchSummary{
		TotalProcessed: 3,
		Positive:       1,
		Negative:       1,
		Neutral:        1,
		ModelID:        "margin",
		ModelUsed:      "Margin",
	}, res.Summary)
}

func TestPredictBatch_ItemFailureDoesNotAbort(t *testing.T) {
	svc := newTestService(t, stubVectorizer{})

	res, err := svc.PredictBatch(context.Background(), []string{"one", "two"}, "broken")
	require.NoError(t, err)

	require.Len(t, res.Results, 2)
	for _, item := range res.Results {
		assert.Nil(t, item.SentimentCode)
		assert.Empty(t, item.Sentiment)
		assert.Equal(t, 85.0, item.Confidence)
		assert.Equal(t, "unknown sentiment label: 7", item.Error)
	}
	assert.Equal(t, 2, res.Summary.TotalProcessed)
	assert.Equal(t, 2, res.Summary.Failed)
	assert.Zero(t, res.Summary.Positive+res.Summary.Negative+res.Summary.Neutral)
}

func TestPredictBatch_Errors(t *testing.T) {
	svc := newTestService(t, stubVectorizer{})

	_, err := svc.PredictBatch(context.Background(), nil, "margin")
	assert.ErrorIs(t, err, services.ErrNoTexts)

	_, err = svc.PredictBatch(context.Background(), []string{"good"}, "nope")
	assert.ErrorIs(t, err, services.ErrModelNotFound)

	_, err = svc.PredictBatch(context.Background(), make([]string, 11), "margin")
	assert.ErrorIs(t, err, services.ErrBatchTooLarge)
}

func TestPredictBatch_AllBlank(t *testing.T) {
	svc := newTestService(t, stubVectorizer{})

	res, err := svc.PredictBatch(context.Background(), []string{"", " "}, "margin")
	require.NoError(t, err)
	assert.Empty(t, res.Results)
	assert.Equal(t, 0, res.Summary.TotalProcessed)
}

func TestPredictBatch_Canceled(t *testing.T) {
	svc := newTestService(t, stubVectorizer{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.PredictBatch(ctx, []string{"good"}, "margin")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestModelsAndCompare(t *testing.T) {
	svc := newTestService(t, stubVectorizer{})

	ids := make([]string, 0)
	for _, d := range svc.Models() {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"probabilistic", "margin", "broken"}, ids)

	rows := svc.Compare()
	require.Len(t, rows, 3)
	assert.Equal(t, "Probabilistic", rows[0].Model)
}

func TestNewPredictionService_Errors(t *testing.T) {
	cfg := config.DefaultEinoConfig().Predict

	_, err := NewPredictionService(context.Background(), ServiceOptions{
		Registry:   registry.New(),
		Vectorizer: stubVectorizer{},
		Config:     &cfg,
	})
	assert.Error(t, err)

	_, err = NewPredictionService(context.Background(), ServiceOptions{
		Registry:     newTestRegistry(t),
		Vectorizer:   stubVectorizer{},
		Config:       &cfg,
		DefaultModel: "missing",
	})
	assert.ErrorIs(t, err, services.ErrModelNotFound)
}

func TestNewPredictionService_DimensionMismatch(t *testing.T) {
	cfg := config.DefaultEinoConfig().Predict
	r := registry.New()
	require.NoError(t, r.Register(models.ModelDescriptor{ID: "margin"}, labelOnly{}))
	require.NoError(t, r.Register(models.ModelDescriptor{ID: "wide"}, wideModel{}))
	r.Seal()

	svc, err := NewPredictionService(context.Background(), ServiceOptions{
		Registry:   r,
		Vectorizer: stubVectorizer{},
		Config:     &cfg,
	})
	assert.Nil(t, svc)
	assert.ErrorIs(t, err, services.ErrDimensionMismatch)
	assert.ErrorContains(t, err, "model wide expects 5 features, vectorizer produces 2")
}

// memoryCache 内存缓存，用于验证缓存命中路径
type memoryCache struct {
	items map[string]*models.PredictionResult
	sets  int
}

func (c *memoryCache) Get(_ context.Context, modelID, text string) (*models.PredictionResult, bool, error) {
	r, ok := c.items[modelID+"|"+text]
	return r, ok, nil
}

func (c *memoryCache) Set(_ context.Context, modelID, text string, r *models.PredictionResult) error {
	c.items[modelID+"|"+text] = r
	c.sets++
	return nil
}

func (c *memoryCache) Ping(context.Context) error { return nil }
func (c *memoryCache) Name() string               { return "memory" }

func TestPredict_CacheHit(t *testing.T) {
	cfg := config.DefaultEinoConfig().Predict
	mc := &memoryCache{items: map[string]*models.PredictionResult{}}
	svc, err := NewPredictionService(context.Background(), ServiceOptions{
		Registry:   newTestRegistry(t),
		Vectorizer: stubVectorizer{},
		Cache:      mc,
		Config:     &cfg,
	})
	require.NoError(t, err)

	first, err := svc.Predict(context.Background(), "good", "")
	require.NoError(t, err)
	second, err := svc.Predict(context.Background(), "good", "")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, mc.sets)
	assert.Equal(t, "memory", svc.CacheName())
}
