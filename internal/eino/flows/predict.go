// Package flows 提供 Eino Graph 流程定义
package flows

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/compose"
	"gonum.org/v1/gonum/mat"

	"review-sentiment/internal/domain/models"
	"review-sentiment/internal/domain/services"
	"review-sentiment/internal/eino/config"
	"review-sentiment/internal/eino/nodes"
)

// 节点名称，同时用作回调中的 RunInfo.Name
const (
	NodeVectorize = "vectorize"
	NodeClassify  = "classify"
	NodeNormalize = "normalize"
	NodeAnalyze   = "analyze"
	NodeAssemble  = "assemble"
)

// PredictInput 预测输入，模型已由调用方解析
type PredictInput struct {
	Text  string
	Entry *services.ModelEntry
}

// NodeError 预测 Graph 中某个节点返回的原始错误
type NodeError struct {
	Node string
	Err  error
}

func (e *NodeError) Error() string { return e.Err.Error() }

func (e *NodeError) Unwrap() error { return e.Err }

type failureKey struct{}

// runFailure 单次运行中第一个失败的节点
type runFailure struct {
	err *NodeError
}

// fail 记录节点原始错误，Graph 返回后由 Run 取回
func fail(ctx context.Context, node string, err error) error {
	if f, ok := ctx.Value(failureKey{}).(*runFailure); ok && f.err == nil {
		f.err = &NodeError{Node: node, Err: err}
	}
	return err
}

// FailedNode 返回出错的节点名称，不是节点错误时返回空串
func FailedNode(err error) string {
	var nodeErr *NodeError
	if errors.As(err, &nodeErr) {
		return nodeErr.Node
	}
	return ""
}

// predictState 在节点间传递的中间状态
type predictState struct {
	input    *PredictInput
	features mat.Vector
	label    int
	probs    []float64
	probsErr error
	pred     *nodes.Prediction
	analysis *models.TextAnalysis
}

// PredictGraph 单条文本预测 Graph
// vectorize -> classify -> normalize -> [analyze] -> assemble
type PredictGraph struct {
	vectorizer       services.Vectorizer
	analyzer         services.TextAnalyzer
	normalizer       *nodes.Normalizer
	cfg              *config.PredictConfig
	withAnalysis     bool
	callbackHandlers []callbacks.Handler

	runnable compose.Runnable[*PredictInput, *models.PredictionResult]
}

// NewPredictGraph 创建预测 Graph，analyzer 为 nil 或 withAnalysis 为 false 时不添加分析节点
func NewPredictGraph(
	vectorizer services.Vectorizer,
	analyzer services.TextAnalyzer,
	cfg *config.PredictConfig,
	withAnalysis bool,
	callbackHandlers ...callbacks.Handler,
) *PredictGraph {
	return &PredictGraph{
		vectorizer:       vectorizer,
		analyzer:         analyzer,
		normalizer:       nodes.NewNormalizer(cfg.FallbackConfidence),
		cfg:              cfg,
		withAnalysis:     withAnalysis && analyzer != nil,
		callbackHandlers: callbackHandlers,
	}
}

// Compile 编译 Graph，只需在启动时调用一次
func (g *PredictGraph) Compile(ctx context.Context) error {
	graph := compose.NewGraph[*PredictInput, *models.PredictionResult]()

	// 1. 特征提取
	vectorizeNode := compose.InvokableLambda(func(ctx context.Context, in *PredictInput) (*predictState, error) {
		text := in.Text
		if g.cfg.PreprocessEnabled {
			text = nodes.PreprocessText(text)
		}
		x, err := g.vectorizer.Transform(text)
		if err != nil {
			return nil, fail(ctx, NodeVectorize, err)
		}
		return &predictState{input: in, features: x}, nil
	})
	if err := graph.AddLambdaNode(NodeVectorize, vectorizeNode, compose.WithNodeName(NodeVectorize)); err != nil {
		return fmt.Errorf("add vectorize node: %w", err)
	}

	// 2. 分类，概率为尽力获取
	classifyNode := compose.InvokableLambda(func(ctx context.Context, s *predictState) (*predictState, error) {
		clf := s.input.Entry.Classifier
		label, err := clf.PredictLabel(s.features)
		if err != nil {
			return nil, fail(ctx, NodeClassify, fmt.Errorf("predict label: %w", err))
		}
		s.label = label
		s.probs, s.probsErr = nodes.Probabilities(clf, s.features)
		return s, nil
	})
	if err := graph.AddLambdaNode(NodeClassify, classifyNode, compose.WithNodeName(NodeClassify)); err != nil {
		return fmt.Errorf("add classify node: %w", err)
	}

	// 3. 归一化
	normalizeNode := compose.InvokableLambda(func(ctx context.Context, s *predictState) (*predictState, error) {
		pred, err := g.normalizer.Normalize(s.label, s.probs, s.probsErr)
		if err != nil {
			return nil, fail(ctx, NodeNormalize, err)
		}
		s.pred = pred
		return s, nil
	})
	if err := graph.AddLambdaNode(NodeNormalize, normalizeNode, compose.WithNodeName(NodeNormalize)); err != nil {
		return fmt.Errorf("add normalize node: %w", err)
	}

	// 4. 文本分析（可选）
	last := NodeNormalize
	if g.withAnalysis {
		analyzeNode := compose.InvokableLambda(func(ctx context.Context, s *predictState) (*predictState, error) {
			analysis, err := g.analyzer.Analyze(ctx, s.input.Text)
			if err != nil {
				return nil, fail(ctx, NodeAnalyze, fmt.Errorf("analyze text: %w", err))
			}
			s.analysis = analysis
			return s, nil
		})
		if err := graph.AddLambdaNode(NodeAnalyze, analyzeNode, compose.WithNodeName(NodeAnalyze)); err != nil {
			return fmt.Errorf("add analyze node: %w", err)
		}
		last = NodeAnalyze
	}

	// 5. 组装结果
	assembleNode := compose.InvokableLambda(func(ctx context.Context, s *predictState) (*models.PredictionResult, error) {
		d := s.input.Entry.Descriptor
		return &models.PredictionResult{
			Sentiment:        s.pred.Code.Label(),
			SentimentCode:    s.pred.Code,
			Emoji:            s.pred.Code.Emoji(),
			Confidence:       s.pred.Confidence,
			ConfidenceSource: s.pred.ConfidenceSource,
			Probabilities:    s.pred.Probabilities,
			ModelID:          d.ID,
			ModelUsed:        d.Name,
			TextAnalysis:     s.analysis,
		}, nil
	})
	if err := graph.AddLambdaNode(NodeAssemble, assembleNode, compose.WithNodeName(NodeAssemble)); err != nil {
		return fmt.Errorf("add assemble node: %w", err)
	}

	// 6. 连接节点
	edges := [][2]string{
		{compose.START, NodeVectorize},
		{NodeVectorize, NodeClassify},
		{NodeClassify, NodeNormalize},
	}
	if g.withAnalysis {
		edges = append(edges, [2]string{NodeNormalize, NodeAnalyze})
	}
	edges = append(edges,
		[2]string{last, NodeAssemble},
		[2]string{NodeAssemble, compose.END},
	)
	for _, e := range edges {
		if err := graph.AddEdge(e[0], e[1]); err != nil {
			return fmt.Errorf("add edge %s->%s: %w", e[0], e[1], err)
		}
	}

	name := "predict"
	if !g.withAnalysis {
		name = "predict_core"
	}
	runnable, err := graph.Compile(ctx, compose.WithGraphName(name))
	if err != nil {
		return fmt.Errorf("compile graph: %w", err)
	}

	g.runnable = runnable
	return nil
}

// Run 执行预测，Callback 处理器在运行时注入
// 节点失败时返回 *NodeError，错误信息不含 Graph 运行时附加的节点路径
func (g *PredictGraph) Run(ctx context.Context, input *PredictInput) (*models.PredictionResult, error) {
	if g.runnable == nil {
		return nil, fmt.Errorf("predict graph not compiled")
	}
	if input == nil || input.Entry == nil || input.Entry.Classifier == nil {
		return nil, fmt.Errorf("predict input requires a resolved model")
	}

	var opts []compose.Option
	if len(g.callbackHandlers) > 0 {
		opts = append(opts, compose.WithCallbacks(g.callbackHandlers...))
	}

	failure := &runFailure{}
	result, err := g.runnable.Invoke(context.WithValue(ctx, failureKey{}, failure), input, opts...)
	if err != nil {
		if failure.err != nil {
			return nil, failure.err
		}
		return nil, err
	}
	return result, nil
}
