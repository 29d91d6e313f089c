package flows

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/samber/lo"

	"review-sentiment/internal/domain/models"
	"review-sentiment/internal/domain/services"
	"review-sentiment/internal/eino/config"
	"review-sentiment/internal/eino/nodes"
	"review-sentiment/internal/infrastructure/cache"
	"review-sentiment/internal/infrastructure/metrics"
	"review-sentiment/internal/infrastructure/registry"
	"review-sentiment/pkg/logger"
)

// PredictionService 基于 Eino Graph 的情感预测服务
type PredictionService struct {
	registry     services.ModelRegistry
	cache        services.PredictionCache
	guard        *nodes.InputGuard
	full         *PredictGraph
	core         *PredictGraph
	cfg          *config.PredictConfig
	defaultModel string
	logger       logger.Logger
	metrics      *metrics.Metrics
}

var _ services.SentimentService = (*PredictionService)(nil)

// ServiceOptions 服务依赖
type ServiceOptions struct {
	Registry     services.ModelRegistry
	Vectorizer   services.Vectorizer
	Analyzer     services.TextAnalyzer
	Cache        services.PredictionCache
	Config       *config.PredictConfig
	DefaultModel string
	Logger       logger.Logger
	Metrics      *metrics.Metrics
	Callbacks    []callbacks.Handler
}

// NewPredictionService 创建预测服务并编译预测 Graph
// 单条预测使用完整 Graph，批量预测使用不含文本分析的核心 Graph
func NewPredictionService(ctx context.Context, opts ServiceOptions) (*PredictionService, error) {
	if opts.Registry == nil || opts.Registry.Len() == 0 {
		return nil, fmt.Errorf("model registry is empty")
	}
	if opts.Vectorizer == nil {
		return nil, services.ErrVectorizerNotInitialized
	}
	if opts.Config == nil {
		return nil, fmt.Errorf("predict config is required")
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.Cache == nil {
		opts.Cache = cache.Noop{}
	}

	defaultModel := opts.DefaultModel
	if defaultModel == "" {
		defaultModel = opts.Registry.IDs()[0]
	}
	if _, err := opts.Registry.Lookup(defaultModel); err != nil {
		return nil, fmt.Errorf("default model: %w", err)
	}
	if err := checkDimensions(opts.Registry, opts.Vectorizer.Dimensions()); err != nil {
		return nil, err
	}

	full := NewPredictGraph(opts.Vectorizer, opts.Analyzer, opts.Config, opts.Config.TextAnalysisEnabled, opts.Callbacks...)
	if err := full.Compile(ctx); err != nil {
		return nil, fmt.Errorf("compile predict graph: %w", err)
	}
	core := NewPredictGraph(opts.Vectorizer, nil, opts.Config, false, opts.Callbacks...)
	if err := core.Compile(ctx); err != nil {
		return nil, fmt.Errorf("compile batch graph: %w", err)
	}

	if opts.Metrics != nil {
		opts.Metrics.ModelsAvailable.Set(float64(opts.Registry.Len()))
	}

	return &PredictionService{
		registry:     opts.Registry,
		cache:        opts.Cache,
		guard:        nodes.NewInputGuard(opts.Config.MaxTextLength),
		full:         full,
		core:         core,
		cfg:          opts.Config,
		defaultModel: defaultModel,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
	}, nil
}

// checkDimensions 确认每个模型的输入维度与向量化器输出一致
func checkDimensions(reg services.ModelRegistry, dims int) error {
	for _, id := range reg.IDs() {
		entry, err := reg.Lookup(id)
		if err != nil {
			return err
		}
		if want := entry.Classifier.Dimensions(); want != dims {
			return fmt.Errorf("%w: model %s expects %d features, vectorizer produces %d",
				services.ErrDimensionMismatch, id, want, dims)
		}
	}
	return nil
}

// Predict 预测单条文本
// 校验顺序：文本 -> 模型；任一失败都不会产生部分结果
func (s *PredictionService) Predict(ctx context.Context, text, modelID string) (*models.PredictionResult, error) {
	if err := s.guard.CheckText(text); err != nil {
		return nil, err
	}

	entry, err := s.resolve(modelID)
	if err != nil {
		return nil, err
	}
	modelID = entry.Descriptor.ID

	if cached, hit := s.cacheGet(ctx, modelID, text); hit {
		s.observePrediction(cached)
		return cached, nil
	}

	result, err := s.full.Run(ctx, &PredictInput{Text: text, Entry: entry})
	if err != nil {
		s.logger.ErrorContext(ctx, "预测失败", "model_id", modelID, "node", FailedNode(err), "error", err)
		return nil, fmt.Errorf("predict with %s: %w", modelID, err)
	}

	if err := s.cache.Set(ctx, modelID, text, result); err != nil {
		s.logger.WarnContext(ctx, "写入预测缓存失败", "cache", s.cache.Name(), "error", err)
	}

	s.observePrediction(result)
	return result, nil
}

// PredictBatch 批量预测
// 模型只校验一次；空白文本被跳过但保留原始下标；单条失败使用默认置信度
func (s *PredictionService) PredictBatch(ctx context.Context, texts []string, modelID string) (*models.BatchResult, error) {
	if len(texts) == 0 {
		return nil, services.ErrNoTexts
	}
	if s.cfg.MaxBatchSize > 0 && len(texts) > s.cfg.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d > %d", services.ErrBatchTooLarge, len(texts), s.cfg.MaxBatchSize)
	}

	entry, err := s.resolve(modelID)
	if err != nil {
		return nil, err
	}
	d := entry.Descriptor

	start := time.Now()
	results := make([]models.BatchItem, 0, len(texts))
	for i, text := range texts {
		if nodes.IsBlank(text) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, s.predictItem(ctx, entry, i, text))
	}

	summary := summarize(results)
	summary.ModelID = d.ID
	summary.ModelUsed = d.Name

	s.logger.InfoContext(ctx, "批量预测完成",
		"model_id", d.ID,
		"total", len(texts),
		"processed", summary.TotalProcessed,
		"failed", summary.Failed,
		"duration_ms", time.Since(start).Milliseconds())

	return &models.BatchResult{Results: results, Summary: summary}, nil
}

// predictItem 预测批量中的一条，失败时返回带错误信息的条目
func (s *PredictionService) predictItem(ctx context.Context, entry *services.ModelEntry, index int, text string) models.BatchItem {
	item := models.BatchItem{Index: index, Text: text}

	var (
		res *models.PredictionResult
		err error
	)
	if err = s.guard.CheckText(text); err == nil {
		res, err = s.core.Run(ctx, &PredictInput{Text: text, Entry: entry})
	}

	if err != nil {
		s.logger.WarnContext(ctx, "批量预测单条失败",
			"model_id", entry.Descriptor.ID,
			"index", index,
			"node", FailedNode(err),
			"error", err)
		item.Confidence = s.cfg.FallbackConfidence
		item.ConfidenceSource = models.ConfidenceFallback
		item.Error = err.Error()
		s.observeBatchItem(entry.Descriptor.ID, "failed")
		return item
	}

	code := res.SentimentCode
	probs := res.Probabilities
	item.Sentiment = res.Sentiment
	item.SentimentCode = &code
	item.Emoji = res.Emoji
	item.Confidence = res.Confidence
	item.ConfidenceSource = res.ConfidenceSource
	item.Probabilities = &probs
	s.observeBatchItem(entry.Descriptor.ID, "ok")
	return item
}

// summarize 统计批量结果，失败条目计入总数但不计入任何情感类别
func summarize(items []models.BatchItem) models.BatchSummary {
	counts := lo.CountValuesBy(items, func(it models.BatchItem) string {
		if it.SentimentCode == nil {
			return "failed"
		}
		return it.Sentiment
	})
	return models.BatchSummary{
		TotalProcessed: len(items),
		Positive:       counts[models.SentimentPositive.Label()],
		Negative:       counts[models.SentimentNegative.Label()],
		Neutral:        counts[models.SentimentNeutral.Label()],
		Failed:         counts["failed"],
	}
}

// Models 按注册顺序返回模型描述
func (s *PredictionService) Models() []models.ModelDescriptor {
	return s.registry.Descriptors()
}

// Compare 返回模型对比表
func (s *PredictionService) Compare() []models.ComparisonRow {
	return registry.Compare(s.registry)
}

// DefaultModel 返回默认模型ID
func (s *PredictionService) DefaultModel() string {
	return s.defaultModel
}

// CacheName 返回缓存后端名称
func (s *PredictionService) CacheName() string {
	return s.cache.Name()
}

// resolve 解析模型ID，空ID使用默认模型
func (s *PredictionService) resolve(modelID string) (*services.ModelEntry, error) {
	if modelID == "" {
		modelID = s.defaultModel
	}
	return s.registry.Lookup(modelID)
}

// cacheGet 读取缓存，缓存错误视为未命中
func (s *PredictionService) cacheGet(ctx context.Context, modelID, text string) (*models.PredictionResult, bool) {
	res, hit, err := s.cache.Get(ctx, modelID, text)
	result := "miss"
	switch {
	case err != nil:
		s.logger.WarnContext(ctx, "读取预测缓存失败", "cache", s.cache.Name(), "error", err)
		result = "error"
		hit = false
	case hit:
		result = "hit"
	}
	if s.metrics != nil && s.cache.Name() != "none" {
		s.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
	return res, hit
}

func (s *PredictionService) observePrediction(r *models.PredictionResult) {
	if s.metrics == nil {
		return
	}
	s.metrics.Predictions.WithLabelValues(r.ModelID, r.Sentiment, string(r.ConfidenceSource)).Inc()
}

func (s *PredictionService) observeBatchItem(modelID, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.BatchItems.WithLabelValues(modelID, outcome).Inc()
}
