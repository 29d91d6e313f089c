// Package textanalysis 计算与模型无关的文本统计信息
package textanalysis

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"
	"github.com/tsawler/prose/v3"

	"review-sentiment/internal/domain/models"
	"review-sentiment/internal/domain/services"
)

// Config 文本分析配置
type Config struct {
	// DetectLanguage 是否识别语言
	DetectLanguage bool `yaml:"detect_language"`
	// MinLanguageConfidence 语言识别置信度下限，低于该值时不返回语言
	MinLanguageConfidence float64 `yaml:"min_language_confidence"`
}

// Analyzer 基于词典的极性与主观性分析
type Analyzer struct {
	cfg       Config
	sentiment *prose.SentimentAnalyzer
}

var _ services.TextAnalyzer = (*Analyzer)(nil)

// New 创建文本分析器
func New(cfg Config) *Analyzer {
	return &Analyzer{
		cfg:       cfg,
		sentiment: prose.NewSentimentAnalyzer(prose.English, prose.DefaultSentimentConfig()),
	}
}

// Analyze 返回词数、字符数、极性与主观性
// 词数按空白切分，字符数为原始文本的 rune 数
func (a *Analyzer) Analyze(ctx context.Context, text string) (*models.TextAnalysis, error) {
	result := &models.TextAnalysis{
		WordCount:      len(strings.Fields(text)),
		CharacterCount: utf8.RuneCountInString(text),
	}

	if strings.TrimSpace(text) == "" {
		return result, nil
	}

	doc, err := prose.NewDocument(text,
		prose.WithContext(ctx),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, fmt.Errorf("build document: %w", err)
	}

	score := a.sentiment.AnalyzeDocument(doc)
	result.Polarity = clamp(score.Polarity, -1, 1)
	result.Subjectivity = clamp(score.Subjectivity, 0, 1)

	if a.cfg.DetectLanguage {
		result.Language = a.detectLanguage(text)
	}

	return result, nil
}

func (a *Analyzer) detectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if info.Confidence < a.cfg.MinLanguageConfidence {
		return ""
	}
	return info.Lang.Iso6391()
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(lo, math.Min(hi, v))
}
