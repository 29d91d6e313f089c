// Package cache 提供预测结果缓存
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"review-sentiment/internal/domain/models"
	"review-sentiment/internal/domain/services"
)

// Config Redis 缓存配置
type Config struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	Prefix       string        `yaml:"prefix"`
	TTL          time.Duration `yaml:"ttl"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Validate 检查缓存配置
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Addr == "" {
		return fmt.Errorf("cache addr is required when cache is enabled")
	}
	if c.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}
	if c.Prefix == "" {
		c.Prefix = "sentiment:pred"
	}
	return nil
}

// RedisCache 基于 Redis 的预测结果缓存
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ services.PredictionCache = (*RedisCache)(nil)

// NewRedisCache 创建 Redis 缓存
func NewRedisCache(cfg *Config) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	return NewRedisCacheWithClient(client, cfg.Prefix, cfg.TTL)
}

// NewRedisCacheWithClient 使用已有客户端创建缓存
func NewRedisCacheWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

// Key 生成缓存键：<prefix>:<model>:<sha256(text)>
func (c *RedisCache) Key(modelID, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s:%s:%s", c.prefix, modelID, hex.EncodeToString(sum[:]))
}

// Get 读取缓存
func (c *RedisCache) Get(ctx context.Context, modelID, text string) (*models.PredictionResult, bool, error) {
	data, err := c.client.Get(ctx, c.Key(modelID, text)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var result models.PredictionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false, fmt.Errorf("decode cached prediction: %w", err)
	}
	return &result, true, nil
}

// Set 写入缓存
func (c *RedisCache) Set(ctx context.Context, modelID, text string, result *models.PredictionResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode prediction: %w", err)
	}
	if err := c.client.Set(ctx, c.Key(modelID, text), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping 检查 Redis 连接
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Name 返回后端名称
func (c *RedisCache) Name() string {
	return "redis"
}

// Close 关闭连接
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Noop 不做任何缓存
type Noop struct{}

var _ services.PredictionCache = Noop{}

func (Noop) Get(context.Context, string, string) (*models.PredictionResult, bool, error) {
	return nil, false, nil
}

func (Noop) Set(context.Context, string, string, *models.PredictionResult) error { return nil }

func (Noop) Ping(context.Context) error { return nil }

func (Noop) Name() string { return "none" }

func (Noop) Close() error { return nil }
