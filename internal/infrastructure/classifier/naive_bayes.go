package classifier

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"review-sentiment/internal/domain/services"
)

// NaiveBayes 多项式朴素贝叶斯
type NaiveBayes struct {
	featureLogProb *mat.Dense
	classLogPrior  []float64
	classes        []int
}

var (
	_ services.Classifier           = (*NaiveBayes)(nil)
	_ services.ProbabilityPredictor = (*NaiveBayes)(nil)
)

func newNaiveBayes(a *Artifact) (*NaiveBayes, error) {
	flp, err := denseFromRows(a.FeatureLogProb)
	if err != nil {
		return nil, fmt.Errorf("naive bayes feature_log_prob: %w", err)
	}

	rows, _ := flp.Dims()
	if rows != len(a.Classes) || len(a.ClassLogPrior) != len(a.Classes) {
		return nil, fmt.Errorf("naive bayes: shape mismatch (rows=%d, priors=%d, classes=%d)",
			rows, len(a.ClassLogPrior), len(a.Classes))
	}

	return &NaiveBayes{featureLogProb: flp, classLogPrior: a.ClassLogPrior, classes: a.Classes}, nil
}

// jointLogLikelihood 计算各类别的联合对数似然
func (m *NaiveBayes) jointLogLikelihood(x mat.Vector) ([]float64, error) {
	rows, cols := m.featureLogProb.Dims()
	if err := checkDims(x, cols); err != nil {
		return nil, err
	}

	var out mat.VecDense
	out.MulVec(m.featureLogProb, x)

	jll := make([]float64, rows)
	for i := range jll {
		jll[i] = out.AtVec(i) + m.classLogPrior[i]
	}
	return jll, nil
}

func (m *NaiveBayes) Dimensions() int {
	_, cols := m.featureLogProb.Dims()
	return cols
}

func (m *NaiveBayes) PredictLabel(x mat.Vector) (int, error) {
	jll, err := m.jointLogLikelihood(x)
	if err != nil {
		return 0, err
	}
	return m.classes[floats.MaxIdx(jll)], nil
}

func (m *NaiveBayes) PredictProbabilities(x mat.Vector) ([]float64, error) {
	jll, err := m.jointLogLikelihood(x)
	if err != nil {
		return nil, err
	}

	lse := floats.LogSumExp(jll)
	if math.IsInf(lse, 0) || math.IsNaN(lse) {
		return nil, services.ErrProbabilityUnavailable
	}
	softmaxInPlace(jll)
	return jll, nil
}
