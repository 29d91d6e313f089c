package models

// SentimentCode 情感类别编码
type SentimentCode int

const (
	// SentimentNegative 负面
	SentimentNegative SentimentCode = 0
	// SentimentNeutral 中性
	SentimentNeutral SentimentCode = 1
	// SentimentPositive 正面
	SentimentPositive SentimentCode = 2
)

var sentimentLabels = map[SentimentCode]string{
	SentimentNegative: "Negative",
	SentimentNeutral:  "Neutral",
	SentimentPositive: "Positive",
}

var sentimentEmojis = map[SentimentCode]string{
	SentimentNegative: "😠",
	SentimentNeutral:  "😐",
	SentimentPositive: "😊",
}

// ParseSentimentCode 将分类器原始标签转换为情感编码
// 仅接受 0、1、2
func ParseSentimentCode(raw int) (SentimentCode, bool) {
	code := SentimentCode(raw)
	_, ok := sentimentLabels[code]
	return code, ok
}

// Label 返回情感标签
func (c SentimentCode) Label() string {
	return sentimentLabels[c]
}

// Emoji 返回情感对应的表情
func (c SentimentCode) Emoji() string {
	return sentimentEmojis[c]
}

// ConfidenceSource 置信度来源
type ConfidenceSource string

const (
	// ConfidenceFromModel 置信度来自模型概率
	ConfidenceFromModel ConfidenceSource = "model"
	// ConfidenceFallback 模型不支持概率时使用的默认置信度
	ConfidenceFallback ConfidenceSource = "fallback"
)

// ProbabilityBreakdown 各情感类别的概率
// 三项之和不保证为1
type ProbabilityBreakdown struct {
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
	Positive float64 `json:"positive"`
}

// TextAnalysis 与模型无关的文本统计信息
type TextAnalysis struct {
	WordCount      int     `json:"word_count"`
	CharacterCount int     `json:"character_count"`
	Polarity       float64 `json:"polarity"`
	Subjectivity   float64 `json:"subjectivity"`
	Language       string  `json:"language,omitempty"`
}

// PredictionResult 单条文本的预测结果
type PredictionResult struct {
	Sentiment        string               `json:"sentiment"`
	SentimentCode    SentimentCode        `json:"sentiment_code"`
	Emoji            string               `json:"emoji"`
	Confidence       float64              `json:"confidence"`
	ConfidenceSource ConfidenceSource     `json:"confidence_source"`
	Probabilities    ProbabilityBreakdown `json:"probabilities"`
	ModelID          string               `json:"model_id"`
	ModelUsed        string               `json:"model_used"`
	TextAnalysis     *TextAnalysis        `json:"text_analysis,omitempty"`
}

// BatchItem 批量预测中单条文本的结果
// 标签预测失败时 SentimentCode 为空并填充 Error
type BatchItem struct {
	Index            int                   `json:"index"`
	Text             string                `json:"text"`
	Sentiment        string                `json:"sentiment,omitempty"`
	SentimentCode    *SentimentCode        `json:"sentiment_code,omitempty"`
	Emoji            string                `json:"emoji,omitempty"`
	Confidence       float64               `json:"confidence"`
	ConfidenceSource ConfidenceSource      `json:"confidence_source"`
	Probabilities    *ProbabilityBreakdown `json:"probabilities,omitempty"`
	Error            string                `json:"error,omitempty"`
}

// BatchSummary 批量预测汇总
type BatchSummary struct {
	TotalProcessed int    `json:"total_processed"`
	Positive       int    `json:"positive"`
	Negative       int    `json:"negative"`
	Neutral        int    `json:"neutral"`
	Failed         int    `json:"failed"`
	ModelID        string `json:"model_id"`
	ModelUsed      string `json:"model_used"`
}

// BatchResult 批量预测结果
type BatchResult struct {
	Results []BatchItem  `json:"results"`
	Summary BatchSummary `json:"summary"`
}
