package services

import "errors"

var (
	// ErrEmptyInput 文本去除空白后为空
	ErrEmptyInput = errors.New("text cannot be empty")
	// ErrModelNotFound 请求的模型未注册
	ErrModelNotFound = errors.New("model not found")
	// ErrNoTexts 批量请求未提供文本
	ErrNoTexts = errors.New("no texts provided")
	// ErrUnknownLabel 分类器返回了 0/1/2 以外的标签
	ErrUnknownLabel = errors.New("unknown sentiment label")
	// ErrVectorizerNotInitialized 向量化器未加载
	ErrVectorizerNotInitialized = errors.New("vectorizer not initialized")
	// ErrProbabilityUnavailable 分类器无法给出概率
	ErrProbabilityUnavailable = errors.New("probabilities unavailable")
	// ErrTextTooLong 文本超过最大长度
	ErrTextTooLong = errors.New("text exceeds maximum length")
	// ErrBatchTooLarge 批量文本数超过上限
	ErrBatchTooLarge = errors.New("batch exceeds maximum size")
	// ErrRegistrySealed 注册表初始化完成后不允许再注册
	ErrRegistrySealed = errors.New("model registry is sealed")
	// ErrDuplicateModel 模型ID重复注册
	ErrDuplicateModel = errors.New("model already registered")
	// ErrDimensionMismatch 模型特征维度与向量化器不一致
	ErrDimensionMismatch = errors.New("feature dimension mismatch")
)
