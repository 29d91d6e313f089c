// Package registry 提供按注册顺序保存的模型注册表
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/samber/lo"

	"review-sentiment/internal/domain/models"
	"review-sentiment/internal/domain/services"
	"review-sentiment/pkg/logger"
)

// Source 一个待加载的模型
type Source struct {
	Descriptor   models.ModelDescriptor
	ArtifactPath string
}

// LoaderFunc 根据导出文件路径加载分类器
type LoaderFunc func(path string) (services.Classifier, error)

// Registry 模型注册表
// 生命周期：Register 若干次 -> Seal -> 只读访问；Seal 之后读取无需加锁
type Registry struct {
	mu      sync.Mutex
	sealed  bool
	order   []string
	entries map[string]*services.ModelEntry
}

var _ services.ModelRegistry = (*Registry)(nil)

// New 创建空注册表
func New() *Registry {
	return &Registry{
		entries: make(map[string]*services.ModelEntry),
	}
}

// Initialize 加载所有模型并封存注册表
// 任何一个模型加载失败都会返回错误
func Initialize(ctx context.Context, sources []Source, load LoaderFunc, log logger.Logger) (*Registry, error) {
	r := New()

	for _, src := range sources {
		clf, err := load(src.ArtifactPath)
		if err != nil {
			return nil, fmt.Errorf("load model %s: %w", src.Descriptor.ID, err)
		}
		if err := r.Register(src.Descriptor, clf); err != nil {
			return nil, err
		}

		_, probabilistic := clf.(services.ProbabilityPredictor)
		log.InfoContext(ctx, "模型加载完成",
			"model_id", src.Descriptor.ID,
			"name", src.Descriptor.Name,
			"artifact", src.ArtifactPath,
			"probabilities", probabilistic)
	}

	r.Seal()
	return r, nil
}

// Register 注册一个模型，封存后调用返回 ErrRegistrySealed
func (r *Registry) Register(descriptor models.ModelDescriptor, clf services.Classifier) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return services.ErrRegistrySealed
	}
	if descriptor.ID == "" {
		return fmt.Errorf("model id is required")
	}
	if clf == nil {
		return fmt.Errorf("model %s: classifier is nil", descriptor.ID)
	}
	if _, exists := r.entries[descriptor.ID]; exists {
		return fmt.Errorf("%w: %s", services.ErrDuplicateModel, descriptor.ID)
	}

	r.entries[descriptor.ID] = &services.ModelEntry{Descriptor: descriptor, Classifier: clf}
	r.order = append(r.order, descriptor.ID)
	return nil
}

// Seal 封存注册表
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Sealed 返回注册表是否已封存
func (r *Registry) Sealed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sealed
}

// Lookup 按ID查找模型
func (r *Registry) Lookup(id string) (*services.ModelEntry, error) {
	entry, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", services.ErrModelNotFound, id)
	}
	return entry, nil
}

// Descriptors 按注册顺序返回模型描述
func (r *Registry) Descriptors() []models.ModelDescriptor {
	return lo.Map(r.order, func(id string, _ int) models.ModelDescriptor {
		return r.entries[id].Descriptor
	})
}

// IDs 按注册顺序返回模型ID
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// Len 返回模型数量
func (r *Registry) Len() int {
	return len(r.order)
}

// Compare 生成模型对比表，顺序与注册顺序一致
func Compare(reg services.ModelRegistry) []models.ComparisonRow {
	return lo.Map(reg.Descriptors(), func(d models.ModelDescriptor, _ int) models.ComparisonRow {
		return models.NewComparisonRow(d)
	})
}
