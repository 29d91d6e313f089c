package nodes

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"review-sentiment/internal/domain/models"
	"review-sentiment/internal/domain/services"
)

func TestNormalizer_Normalize(t *testing.T) {
	n := NewNormalizer(DefaultFallbackConfidence)

	tests := []struct {
		name       string
		label      int
		probs      []float64
		probsErr   error
		wantCode   models.SentimentCode
		wantConf   float64
		wantSource models.ConfidenceSource
		wantProbs  models.ProbabilityBreakdown
	}{
		{
			name:       "three class probabilities",
			label:      2,
			probs:      []float64{0.1, 0.2, 0.7},
			wantCode:   models.SentimentPositive,
			wantConf:   70,
			wantSource: models.ConfidenceFromModel,
			wantProbs:  models.ProbabilityBreakdown{Negative: 0.1, Neutral: 0.2, Positive: 0.7},
		},
		{
			name:       "two class probabilities leave neutral at zero",
			label:      0,
			probs:      []float64{0.8, 0.2},
			wantCode:   models.SentimentNegative,
			wantConf:   80,
			wantSource: models.ConfidenceFromModel,
			wantProbs:  models.ProbabilityBreakdown{Negative: 0.8, Neutral: 0, Positive: 0.2},
		},
		{
			name:       "probabilities unavailable",
			label:      1,
			probsErr:   services.ErrProbabilityUnavailable,
			wantCode:   models.SentimentNeutral,
			wantConf:   85,
			wantSource: models.ConfidenceFallback,
		},
		{
			name:       "probability retrieval failed",
			label:      2,
			probs:      []float64{0.1, 0.2, 0.7},
			probsErr:   errors.New("boom"),
			wantCode:   models.SentimentPositive,
			wantConf:   85,
			wantSource: models.ConfidenceFallback,
		},
		{
			name:       "unexpected probability length",
			label:      0,
			probs:      []float64{0.25, 0.25, 0.25, 0.25},
			wantCode:   models.SentimentNegative,
			wantConf:   85,
			wantSource: models.ConfidenceFallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(tt.label, tt.probs, tt.probsErr)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.InDelta(t, tt.wantConf, got.Confidence, 1e-9)
			assert.Equal(t, tt.wantSource, got.ConfidenceSource)
			assert.InDelta(t, tt.wantProbs.Negative, got.Probabilities.Negative, 1e-9)
			assert.InDelta(t, tt.wantProbs.Neutral, got.Probabilities.Neutral, 1e-9)
			assert.InDelta(t, tt.wantProbs.Positive, got.Probabilities.Positive, 1e-9)
		})
	}
}

func TestNormalizer_UnknownLabel(t *testing.T) {
	n := NewNormalizer(DefaultFallbackConfidence)

	for _, label := range []int{-1, 3, 42} {
		_, err := n.Normalize(label, []float64{0.5, 0.5}, nil)
		assert.ErrorIs(t, err, services.ErrUnknownLabel)
	}
}

type labelOnly struct{}

func (labelOnly) PredictLabel(mat.Vector) (int, error) { return 1, nil }

func (labelOnly) Dimensions() int { return 1 }

type withProbs struct{ labelOnly }

func (withProbs) PredictProbabilities(mat.Vector) ([]float64, error) {
	return []float64{0.2, 0.8}, nil
}

func TestProbabilities_CapabilityDetection(t *testing.T) {
	x := mat.NewVecDense(1, nil)

	_, err := Probabilities(labelOnly{}, x)
	assert.ErrorIs(t, err, services.ErrProbabilityUnavailable)

	probs, err := Probabilities(withProbs{}, x)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.2, 0.8}, probs)
}
