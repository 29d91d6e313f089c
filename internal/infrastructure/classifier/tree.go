package classifier

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"review-sentiment/internal/domain/services"
)

type decisionTree struct {
	classIndex int
	nodes      []TreeNode
}

func newDecisionTree(t TreeArtifact, nFeatures, valueLen int) (*decisionTree, error) {
	if len(t.Nodes) == 0 {
		return nil, fmt.Errorf("tree has no nodes")
	}
	for i, n := range t.Nodes {
		if n.Left < 0 {
			if len(n.Value) != valueLen {
				return nil, fmt.Errorf("leaf %d has %d values, want %d", i, len(n.Value), valueLen)
			}
			continue
		}
		if n.Left >= len(t.Nodes) || n.Right < 0 || n.Right >= len(t.Nodes) {
			return nil, fmt.Errorf("node %d has out of range children", i)
		}
		if n.Left <= i || n.Right <= i {
			return nil, fmt.Errorf("node %d children must come after the parent", i)
		}
		if n.Feature < 0 || n.Feature >= nFeatures {
			return nil, fmt.Errorf("node %d feature %d out of range", i, n.Feature)
		}
	}
	return &decisionTree{classIndex: t.ClassIndex, nodes: t.Nodes}, nil
}

// leaf 沿树向下走到叶子，x[feature] <= threshold 走左分支
func (t *decisionTree) leaf(x mat.Vector) []float64 {
	i := 0
	for {
		n := t.nodes[i]
		if n.Left < 0 {
			return n.Value
		}
		if x.AtVec(n.Feature) <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// RandomForest 随机森林，概率为各树叶子分布的平均值
type RandomForest struct {
	trees     []*decisionTree
	classes   []int
	nFeatures int
}

var (
	_ services.Classifier           = (*RandomForest)(nil)
	_ services.ProbabilityPredictor = (*RandomForest)(nil)
)

func newRandomForest(a *Artifact) (*RandomForest, error) {
	if a.NFeatures <= 0 {
		return nil, fmt.Errorf("random forest: n_features must be positive")
	}
	if len(a.Trees) == 0 {
		return nil, fmt.Errorf("random forest: no trees")
	}

	trees := make([]*decisionTree, 0, len(a.Trees))
	for i, ta := range a.Trees {
		t, err := newDecisionTree(ta, a.NFeatures, len(a.Classes))
		if err != nil {
			return nil, fmt.Errorf("random forest tree %d: %w", i, err)
		}
		trees = append(trees, t)
	}

	return &RandomForest{trees: trees, classes: a.Classes, nFeatures: a.NFeatures}, nil
}

func (m *RandomForest) PredictProbabilities(x mat.Vector) ([]float64, error) {
	if err := checkDims(x, m.nFeatures); err != nil {
		return nil, err
	}

	proba := make([]float64, len(m.classes))
	for _, t := range m.trees {
		value := t.leaf(x)
		total := floats.Sum(value)
		if total <= 0 {
			continue
		}
		floats.AddScaled(proba, 1/total, value)
	}

	floats.Scale(1/float64(len(m.trees)), proba)
	return proba, nil
}

func (m *RandomForest) Dimensions() int { return m.nFeatures }

func (m *RandomForest) PredictLabel(x mat.Vector) (int, error) {
	proba, err := m.PredictProbabilities(x)
	if err != nil {
		return 0, err
	}
	return m.classes[floats.MaxIdx(proba)], nil
}

// GradientBoosting 梯度提升树
// 二分类时只有一个得分通道，经 sigmoid 得到正类概率
type GradientBoosting struct {
	trees        []*decisionTree
	classes      []int
	nFeatures    int
	baseScore    []float64
	learningRate float64
}

var (
	_ services.Classifier           = (*GradientBoosting)(nil)
	_ services.ProbabilityPredictor = (*GradientBoosting)(nil)
)

func newGradientBoosting(a *Artifact) (*GradientBoosting, error) {
	if a.NFeatures <= 0 {
		return nil, fmt.Errorf("gradient boosting: n_features must be positive")
	}
	if len(a.Trees) == 0 {
		return nil, fmt.Errorf("gradient boosting: no trees")
	}

	channels := len(a.Classes)
	if channels == 2 {
		channels = 1
	}

	base := a.BaseScore
	if len(base) == 0 {
		base = make([]float64, channels)
	}
	if len(base) != channels {
		return nil, fmt.Errorf("gradient boosting: base_score length %d, want %d", len(base), channels)
	}

	lr := a.LearningRate
	if lr == 0 {
		lr = 1
	}

	trees := make([]*decisionTree, 0, len(a.Trees))
	for i, ta := range a.Trees {
		if ta.ClassIndex < 0 || ta.ClassIndex >= channels {
			return nil, fmt.Errorf("gradient boosting tree %d: class_index %d out of range", i, ta.ClassIndex)
		}
		t, err := newDecisionTree(ta, a.NFeatures, 1)
		if err != nil {
			return nil, fmt.Errorf("gradient boosting tree %d: %w", i, err)
		}
		trees = append(trees, t)
	}

	return &GradientBoosting{
		trees:        trees,
		classes:      a.Classes,
		nFeatures:    a.NFeatures,
		baseScore:    base,
		learningRate: lr,
	}, nil
}

func (m *GradientBoosting) rawScores(x mat.Vector) ([]float64, error) {
	if err := checkDims(x, m.nFeatures); err != nil {
		return nil, err
	}

	scores := make([]float64, len(m.baseScore))
	copy(scores, m.baseScore)
	for _, t := range m.trees {
		scores[t.classIndex] += m.learningRate * t.leaf(x)[0]
	}
	return scores, nil
}

func (m *GradientBoosting) PredictProbabilities(x mat.Vector) ([]float64, error) {
	scores, err := m.rawScores(x)
	if err != nil {
		return nil, err
	}

	if len(scores) == 1 {
		p := sigmoid(scores[0])
		return []float64{1 - p, p}, nil
	}

	if floats.HasNaN(scores) || math.IsInf(floats.Max(scores), 0) {
		return nil, services.ErrProbabilityUnavailable
	}
	softmaxInPlace(scores)
	return scores, nil
}

func (m *GradientBoosting) Dimensions() int { return m.nFeatures }

func (m *GradientBoosting) PredictLabel(x mat.Vector) (int, error) {
	scores, err := m.rawScores(x)
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
