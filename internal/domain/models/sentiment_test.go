package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSentimentCode(t *testing.T) {
	tests := []struct {
		raw       int
		wantOK    bool
		wantLabel string
		wantEmoji string
	}{
		{0, true, "Negative", "😠"},
		{1, true, "Neutral", "😐"},
		{2, true, "Positive", "😊"},
		{3, false, "", ""},
		{-1, false, "", ""},
	}

	for _, tt := range tests {
		code, ok := ParseSentimentCode(tt.raw)
		assert.Equal(t, tt.wantOK, ok, "raw=%d", tt.raw)
		if ok {
			assert.Equal(t, tt.wantLabel, code.Label())
			assert.Equal(t, tt.wantEmoji, code.Emoji())
		}
	}
}

func TestNewComparisonRow(t *testing.T) {
	d := ModelDescriptor{
		ID:        "naive_bayes",
		Name:      "Naive Bayes",
		Accuracy:  0.83,
		Precision: 0.95,
		Recall:    0.85,
		F1Score:   0.90,
	}

	row := NewComparisonRow(d)

	assert.Equal(t, ComparisonRow{
		Model:     "Naive Bayes",
		ModelID:   "naive_bayes",
		Accuracy:  0.83,
		Precision: 0.95,
		Recall:    0.85,
		F1Score:   0.90,
	}, row)
}
