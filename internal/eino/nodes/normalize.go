package nodes

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"review-sentiment/internal/domain/models"
	"review-sentiment/internal/domain/services"
)

// DefaultFallbackConfidence 模型不支持概率时的默认置信度
const DefaultFallbackConfidence = 85.0

// Prediction 归一化后的预测片段
type Prediction struct {
	Code             models.SentimentCode
	Confidence       float64
	ConfidenceSource models.ConfidenceSource
	Probabilities    models.ProbabilityBreakdown
}

// Normalizer 将分类器原始输出转换为统一的预测片段
type Normalizer struct {
	fallback float64
}

// NewNormalizer 创建归一化器
func NewNormalizer(fallbackConfidence float64) *Normalizer {
	return &Normalizer{fallback: fallbackConfidence}
}

// Normalize 归一化原始标签与可选概率。
// 概率按位置映射：两项为 [negative, positive]，三项为 [negative, neutral, positive]。
// 概率缺失、获取失败或长度不符时使用默认置信度，概率全部为 0。
func (n *Normalizer) Normalize(rawLabel int, probs []float64, probsErr error) (*Prediction, error) {
	code, ok := models.ParseSentimentCode(rawLabel)
	if !ok {
		return nil, fmt.Errorf("%w: %d", services.ErrUnknownLabel, rawLabel)
	}

	out := &Prediction{
		Code:             code,
		Confidence:       n.fallback,
		ConfidenceSource: models.ConfidenceFallback,
	}

	if probsErr != nil {
		return out, nil
	}

	switch len(probs) {
	case 2:
		out.Probabilities = models.ProbabilityBreakdown{
			Negative: probs[0],
			Positive: probs[1],
		}
	case 3:
		out.Probabilities = models.ProbabilityBreakdown{
			Negative: probs[0],
			Neutral:  probs[1],
			Positive: probs[2],
		}
	default:
		return out, nil
	}

	out.Confidence = 100 * floats.Max(probs)
	out.ConfidenceSource = models.ConfidenceFromModel
	return out, nil
}

// Probabilities 以能力检测的方式获取概率
// 分类器不支持概率时返回 ErrProbabilityUnavailable
func Probabilities(clf services.Classifier, x mat.Vector) ([]float64, error) {
	pp, ok := clf.(services.ProbabilityPredictor)
	if !ok {
		return nil, services.ErrProbabilityUnavailable
	}
	return pp.PredictProbabilities(x)
}
