package vectorizer

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"review-sentiment/internal/domain/services"
)

// defaultTokenPattern 匹配两个及以上字符组成的单词
var defaultTokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Artifact TF-IDF 向量化器的导出格式
type Artifact struct {
	Kind        string         `json:"kind"`
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
	Lowercase   *bool          `json:"lowercase,omitempty"`
	NgramRange  [2]int         `json:"ngram_range"`
	Norm        string         `json:"norm"`
	SublinearTF bool           `json:"sublinear_tf"`
	Binary      bool           `json:"binary"`
	StopWords   []string       `json:"stop_words,omitempty"`
}

// TFIDF 基于预训练词表和IDF权重的文本向量化器
// 零值表示未初始化，Transform 会返回 ErrVectorizerNotInitialized
type TFIDF struct {
	vocabulary  map[string]int
	idf         []float64
	lowercase   bool
	minN, maxN  int
	norm        string
	sublinearTF bool
	binary      bool
	stopWords   map[string]struct{}
}

var _ services.Vectorizer = (*TFIDF)(nil)

// Load 从文件加载向量化器
func Load(path string) (*TFIDF, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vectorizer artifact: %w", err)
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("decode vectorizer artifact %s: %w", path, err)
	}

	return New(&artifact)
}

// New 根据导出数据构建向量化器
func New(a *Artifact) (*TFIDF, error) {
	if a.Kind != "" && a.Kind != "tfidf" {
		return nil, fmt.Errorf("unsupported vectorizer kind: %s", a.Kind)
	}
	if len(a.Vocabulary) == 0 {
		return nil, fmt.Errorf("vectorizer vocabulary is empty")
	}
	if len(a.IDF) != len(a.Vocabulary) {
		return nil, fmt.Errorf("idf length %d does not match vocabulary size %d", len(a.IDF), len(a.Vocabulary))
	}
	for term, idx := range a.Vocabulary {
		if idx < 0 || idx >= len(a.IDF) {
			return nil, fmt.Errorf("vocabulary index out of range for term %q: %d", term, idx)
		}
	}

	minN, maxN := a.NgramRange[0], a.NgramRange[1]
	if minN == 0 && maxN == 0 {
		minN, maxN = 1, 1
	}
	if minN < 1 || maxN < minN {
		return nil, fmt.Errorf("invalid ngram_range: [%d, %d]", minN, maxN)
	}

	norm := a.Norm
	switch norm {
	case "":
		norm = "l2"
	case "l1", "l2", "none":
	default:
		return nil, fmt.Errorf("unsupported norm: %s", a.Norm)
	}

	lowercase := true
	if a.Lowercase != nil {
		lowercase = *a.Lowercase
	}

	stop := make(map[string]struct{}, len(a.StopWords))
	for _, w := range a.StopWords {
		stop[w] = struct{}{}
	}

	return &TFIDF{
		vocabulary:  a.Vocabulary,
		idf:         a.IDF,
		lowercase:   lowercase,
		minN:        minN,
		maxN:        maxN,
		norm:        norm,
		sublinearTF: a.SublinearTF,
		binary:      a.Binary,
		stopWords:   stop,
	}, nil
}

// Dimensions 返回特征维度
func (v *TFIDF) Dimensions() int {
	if v == nil {
		return 0
	}
	return len(v.idf)
}

// Transform 将文本转换为 TF-IDF 向量
func (v *TFIDF) Transform(text string) (mat.Vector, error) {
	if v == nil || len(v.vocabulary) == 0 {
		return nil, services.ErrVectorizerNotInitialized
	}

	counts := make([]float64, len(v.idf))
	for _, term := range v.analyze(text) {
		if idx, ok := v.vocabulary[term]; ok {
			counts[idx]++
		}
	}

	for i, tf := range counts {
		if tf == 0 {
			continue
		}
		switch {
		case v.binary:
			tf = 1
		case v.sublinearTF:
			tf = 1 + math.Log(tf)
		}
		counts[i] = tf * v.idf[i]
	}

	switch v.norm {
	case "l2":
		if n := floats.Norm(counts, 2); n > 0 {
			floats.Scale(1/n, counts)
		}
	case "l1":
		if n := floats.Norm(counts, 1); n > 0 {
			floats.Scale(1/n, counts)
		}
	}

	return mat.NewVecDense(len(counts), counts), nil
}

// analyze 分词并生成 n-gram
func (v *TFIDF) analyze(text string) []string {
	if v.lowercase {
		text = strings.ToLower(text)
	}

	raw := defaultTokenPattern.FindAllString(text, -1)
	tokens := raw[:0]
	for _, tok := range raw {
		if _, stop := v.stopWords[tok]; !stop {
			tokens = append(tokens, tok)
		}
	}

	if v.minN == 1 && v.maxN == 1 {
		return tokens
	}

	terms := make([]string, 0, len(tokens)*(v.maxN-v.minN+1))
	for n := v.minN; n <= v.maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}
