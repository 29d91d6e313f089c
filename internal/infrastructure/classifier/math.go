package classifier

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"review-sentiment/internal/domain/services"
)

// checkDims 确认输入向量维度与模型一致
func checkDims(x mat.Vector, want int) error {
	if x == nil {
		return fmt.Errorf("feature vector is nil")
	}
	if x.Len() != want {
		return fmt.Errorf("%w: got %d, want %d", services.ErrDimensionMismatch, x.Len(), want)
	}
	return nil
}

// softmaxInPlace 使用 log-sum-exp 计算 softmax
func softmaxInPlace(scores []float64) {
	lse := floats.LogSumExp(scores)
	for i, s := range scores {
		scores[i] = math.Exp(s - lse)
	}
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// denseFromRows 将二维切片转换为矩阵并校验形状
func denseFromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("matrix is empty")
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d columns, want %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}
