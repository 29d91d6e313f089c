// Package classifier 提供从导出文件加载的情感分类模型
package classifier

import (
	"encoding/json"
	"fmt"
	"os"

	"review-sentiment/internal/domain/services"
)

// 支持的模型类型
const (
	KindLogisticRegression = "logistic_regression"
	KindLinearSVM          = "linear_svm"
	KindNaiveBayes         = "naive_bayes"
	KindRandomForest       = "random_forest"
	KindGradientBoosting   = "gradient_boosting"
)

// Artifact 模型导出格式，不同类型使用不同字段
type Artifact struct {
	Kind    string `json:"kind"`
	Classes []int  `json:"classes"`

	// 线性模型
	Coef       [][]float64 `json:"coef,omitempty"`
	Intercept  []float64   `json:"intercept,omitempty"`
	MultiClass string      `json:"multi_class,omitempty"` // multinomial, ovr

	// 朴素贝叶斯
	ClassLogPrior  []float64   `json:"class_log_prior,omitempty"`
	FeatureLogProb [][]float64 `json:"feature_log_prob,omitempty"`

	// 树模型
	NFeatures    int            `json:"n_features,omitempty"`
	Trees        []TreeArtifact `json:"trees,omitempty"`
	BaseScore    []float64      `json:"base_score,omitempty"`
	LearningRate float64        `json:"learning_rate,omitempty"`
}

// TreeArtifact 单棵决策树
type TreeArtifact struct {
	// ClassIndex 梯度提升树中该树贡献的类别下标
	ClassIndex int        `json:"class_index,omitempty"`
	Nodes      []TreeNode `json:"nodes"`
}

// TreeNode 决策树节点，Left 为 -1 表示叶子节点
type TreeNode struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value,omitempty"`
}

// Load 从文件加载分类器
func Load(path string) (services.Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read classifier artifact: %w", err)
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("decode classifier artifact %s: %w", path, err)
	}

	clf, err := Build(&artifact)
	if err != nil {
		return nil, fmt.Errorf("build classifier from %s: %w", path, err)
	}
	return clf, nil
}

// Build 根据导出数据构建分类器
func Build(a *Artifact) (services.Classifier, error) {
	if len(a.Classes) == 0 {
		return nil, fmt.Errorf("classes are required")
	}

	switch a.Kind {
	case KindLogisticRegression:
		return asClassifier(newLogisticRegression(a))
	case KindLinearSVM:
		return asClassifier(newLinearSVM(a))
	case KindNaiveBayes:
		return asClassifier(newNaiveBayes(a))
	case KindRandomForest:
		return asClassifier(newRandomForest(a))
	case KindGradientBoosting:
		return asClassifier(newGradientBoosting(a))
	default:
		return nil, fmt.Errorf("unsupported classifier kind: %q", a.Kind)
	}
}

// asClassifier 避免将带类型的 nil 指针包装进接口
func asClassifier[T services.Classifier](m T, err error) (services.Classifier, error) {
	if err != nil {
		return nil, err
	}
	return m, nil
}
