package services

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"review-sentiment/internal/domain/models"
)

// Vectorizer 文本特征提取接口
// 启动时加载一次，之后对每次调用无状态
type Vectorizer interface {
	// Transform 将文本转换为特征向量，空文本返回全零向量
	Transform(text string) (mat.Vector, error)

	// Dimensions 返回特征维度
	Dimensions() int
}

// Classifier 情感分类器接口，所有模型都必须支持标签预测
type Classifier interface {
	// PredictLabel 返回原始类别标签
	PredictLabel(x mat.Vector) (int, error)

	// Dimensions 返回模型期望的特征维度，必须与向量化器一致
	Dimensions() int
}

// ProbabilityPredictor 可选能力：输出各类别概率
// 调用方通过类型断言检测，无法给出概率时返回 ErrProbabilityUnavailable
type ProbabilityPredictor interface {
	// PredictProbabilities 返回按类别顺序排列的概率
	PredictProbabilities(x mat.Vector) ([]float64, error)
}

// ModelEntry 注册表中的一项
type ModelEntry struct {
	Descriptor models.ModelDescriptor
	Classifier Classifier
}

// ModelRegistry 模型注册表的只读视图
type ModelRegistry interface {
	// Lookup 按ID查找模型，未知ID返回 ErrModelNotFound
	Lookup(id string) (*ModelEntry, error)

	// Descriptors 按注册顺序返回所有模型描述
	Descriptors() []models.ModelDescriptor

	// IDs 按注册顺序返回所有模型ID
	IDs() []string

	// Len 返回已注册模型数量
	Len() int
}

// TextAnalyzer 文本统计分析接口
type TextAnalyzer interface {
	Analyze(ctx context.Context, text string) (*models.TextAnalysis, error)
}

// PredictionCache 单条预测结果缓存
// 仅用于加速重复请求，不作为持久化存储
type PredictionCache interface {
	// Get 读取缓存，未命中时返回 (nil, false, nil)
	Get(ctx context.Context, modelID, text string) (*models.PredictionResult, bool, error)

	// Set 写入缓存
	Set(ctx context.Context, modelID, text string, result *models.PredictionResult) error

	// Ping 检查缓存后端是否可用
	Ping(ctx context.Context) error

	// Name 缓存后端名称
	Name() string
}

// SentimentService 情感预测服务接口
type SentimentService interface {
	// Predict 预测单条文本
	Predict(ctx context.Context, text, modelID string) (*models.PredictionResult, error)

	// PredictBatch 批量预测，单条失败不会中断整个批次
	PredictBatch(ctx context.Context, texts []string, modelID string) (*models.BatchResult, error)

	// Models 按注册顺序返回模型描述
	Models() []models.ModelDescriptor

	// Compare 返回模型对比表
	Compare() []models.ComparisonRow

	// DefaultModel 返回默认模型ID
	DefaultModel() string
}
