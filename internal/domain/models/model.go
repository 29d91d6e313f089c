package models

// ModelDescriptor 模型的静态描述信息，注册后不可修改
type ModelDescriptor struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Accuracy    float64 `json:"accuracy" yaml:"accuracy"`
	Precision   float64 `json:"precision" yaml:"precision"`
	Recall      float64 `json:"recall" yaml:"recall"`
	F1Score     float64 `json:"f1_score" yaml:"f1_score"`
}

// ComparisonRow 模型对比表中的一行
type ComparisonRow struct {
	Model     string  `json:"model"`
	ModelID   string  `json:"model_id"`
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1_score"`
}

// NewComparisonRow 由模型描述生成对比行，指标原样透传
func NewComparisonRow(d ModelDescriptor) ComparisonRow {
	return ComparisonRow{
		Model:     d.Name,
		ModelID:   d.ID,
		Accuracy:  d.Accuracy,
		Precision: d.Precision,
		Recall:    d.Recall,
		F1Score:   d.F1Score,
	}
}
