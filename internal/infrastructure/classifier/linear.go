package classifier

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"review-sentiment/internal/domain/services"
)

// linearModel 线性决策函数 coef·x + intercept
// 二分类时 coef 只有一行，正分数对应 classes[1]
type linearModel struct {
	coef      *mat.Dense
	intercept []float64
	classes   []int
}

func newLinearModel(a *Artifact) (*linearModel, error) {
	coef, err := denseFromRows(a.Coef)
	if err != nil {
		return nil, fmt.Errorf("coef: %w", err)
	}

	rows, _ := coef.Dims()
	if len(a.Intercept) != rows {
		return nil, fmt.Errorf("intercept length %d does not match coef rows %d", len(a.Intercept), rows)
	}

	switch {
	case rows == 1 && len(a.Classes) != 2:
		return nil, fmt.Errorf("binary coef requires 2 classes, got %d", len(a.Classes))
	case rows > 1 && rows != len(a.Classes):
		return nil, fmt.Errorf("coef rows %d do not match %d classes", rows, len(a.Classes))
	}

	return &linearModel{coef: coef, intercept: a.Intercept, classes: a.Classes}, nil
}

// decision 计算每行的决策分数
func (m *linearModel) decision(x mat.Vector) ([]float64, error) {
	rows, cols := m.coef.Dims()
	if err := checkDims(x, cols); err != nil {
		return nil, err
	}

	var out mat.VecDense
	out.MulVec(m.coef, x)

	scores := make([]float64, rows)
	for i := range scores {
		scores[i] = out.AtVec(i) + m.intercept[i]
	}
	return scores, nil
}

// Dimensions 返回 coef 的列数
func (m *linearModel) Dimensions() int {
	_, cols := m.coef.Dims()
	return cols
}

func (m *linearModel) PredictLabel(x mat.Vector) (int, error) {
	scores, err := m.decision(x)
	if err != nil {
		return 0, err
	}

	if len(scores) == 1 {
		if scores[0] > 0 {
			return m.classes[1], nil
		}
		return m.classes[0], nil
	}
	return m.classes[floats.MaxIdx(scores)], nil
}

// LogisticRegression 逻辑回归，支持 multinomial 与 ovr 两种多分类方式
type LogisticRegression struct {
	*linearModel
	multiClass string
}

var (
	_ services.Classifier           = (*LogisticRegression)(nil)
	_ services.ProbabilityPredictor = (*LogisticRegression)(nil)
)

func newLogisticRegression(a *Artifact) (*LogisticRegression, error) {
	lm, err := newLinearModel(a)
	if err != nil {
		return nil, fmt.Errorf("logistic regression: %w", err)
	}

	multiClass := a.MultiClass
	switch multiClass {
	case "":
		multiClass = "multinomial"
	case "multinomial", "ovr":
	default:
		return nil, fmt.Errorf("logistic regression: unsupported multi_class %q", a.MultiClass)
	}

	return &LogisticRegression{linearModel: lm, multiClass: multiClass}, nil
}

// PredictProbabilities 返回按 classes 顺序排列的概率
func (m *LogisticRegression) PredictProbabilities(x mat.Vector) ([]float64, error) {
	scores, err := m.decision(x)
	if err != nil {
		return nil, err
	}

	if len(scores) == 1 {
		p := sigmoid(scores[0])
		return []float64{1 - p, p}, nil
	}

	if m.multiClass == "ovr" {
		for i, s := range scores {
			scores[i] = sigmoid(s)
		}
		if sum := floats.Sum(scores); sum > 0 {
			floats.Scale(1/sum, scores)
		}
		return scores, nil
	}

	softmaxInPlace(scores)
	return scores, nil
}

// LinearSVM 线性支持向量机，不提供概率输出
type LinearSVM struct {
	*linearModel
}

var _ services.Classifier = (*LinearSVM)(nil)

func newLinearSVM(a *Artifact) (*LinearSVM, error) {
	lm, err := newLinearModel(a)
	if err != nil {
		return nil, fmt.Errorf("linear svm: %w", err)
	}
	return &LinearSVM{linearModel: lm}, nil
}
