package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"review-sentiment/configs"
	"review-sentiment/internal/app/handlers"
	"review-sentiment/internal/app/server"
	"review-sentiment/internal/domain/services"
	einocallbacks "review-sentiment/internal/eino/callbacks"
	"review-sentiment/internal/eino/flows"
	"review-sentiment/internal/infrastructure/cache"
	"review-sentiment/internal/infrastructure/classifier"
	"review-sentiment/internal/infrastructure/metrics"
	"review-sentiment/internal/infrastructure/registry"
	"review-sentiment/internal/infrastructure/textanalysis"
	"review-sentiment/internal/infrastructure/vectorizer"
	"review-sentiment/pkg/logger"
)

// main 主函数 - 应用程序入口点
func main() {
	configPath := flag.String("config", "", "Path to config.yaml (defaults to the search paths)")
	flag.Parse()

	// 创建根上下文
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 创建早期logger（使用默认配置）
	earlyLogger := logger.Default()

	// 初始化应用程序
	if err := initializeApplication(ctx, *configPath, earlyLogger); err != nil {
		earlyLogger.ErrorContext(ctx, "应用程序初始化失败", "error", err)
		os.Exit(1)
	}
}

// application 运行期需要释放的资源
type application struct {
	server *server.Server
	cache  cacheBackend
}

// cacheBackend 预测缓存及其生命周期
type cacheBackend interface {
	services.PredictionCache
	Close() error
}

// initializeApplication 初始化应用程序
func initializeApplication(ctx context.Context, configPath string, earlyLogger logger.Logger) error {
	// 1. 加载配置
	config, err := configs.LoadFrom(ctx, configPath)
	if err != nil {
		return fmt.Errorf("配置加载失败: %w", err)
	}

	earlyLogger.InfoContext(ctx, "配置加载成功",
		"server_port", config.Server.Port,
		"models_dir", config.Serving.ModelsDir,
		"models", len(config.Serving.Models),
		"cache_enabled", config.Cache.Enabled)

	// 2. 初始化日志服务
	appLogger := initializeLogger(config.Logging)
	appLogger.InfoContext(ctx, "日志服务初始化完成")

	// 3. 加载向量化器与模型，注册表在此之后不再变化
	vec, err := vectorizer.Load(config.Serving.VectorizerArtifact())
	if err != nil {
		return fmt.Errorf("向量化器加载失败: %w", err)
	}
	appLogger.InfoContext(ctx, "向量化器加载完成", "dimensions", vec.Dimensions())

	reg, err := registry.Initialize(ctx, config.Serving.Sources(), classifier.Load, appLogger)
	if err != nil {
		return fmt.Errorf("模型注册失败: %w", err)
	}
	appLogger.InfoContext(ctx, "模型注册完成", "models", reg.IDs())

	// 4. 初始化基础设施
	predictionCache := initializeCache(ctx, &config.Cache, appLogger)

	var prom *metrics.Metrics
	if config.Metrics.Enabled {
		prom = metrics.New()
	}

	// 5. 初始化 Eino 预测服务
	factory := einocallbacks.NewFactory(&config.Eino.Callbacks, appLogger, prom)
	svc, err := flows.NewPredictionService(ctx, flows.ServiceOptions{
		Registry:     reg,
		Vectorizer:   vec,
		Analyzer:     textanalysis.New(config.TextAnalysis),
		Cache:        predictionCache,
		Config:       &config.Eino.Predict,
		DefaultModel: config.Serving.DefaultModel,
		Logger:       appLogger,
		Metrics:      prom,
		Callbacks:    factory.CreateHandlers(),
	})
	if err != nil {
		_ = predictionCache.Close()
		return fmt.Errorf("预测服务初始化失败: %w", err)
	}
	appLogger.InfoContext(ctx, "预测服务初始化完成", "default_model", svc.DefaultModel())

	// 6. 初始化应用层
	var stats handlers.StatsProvider
	if mh := factory.GetMetricsHandler(); mh != nil {
		stats = mh
	}
	sentimentHandler := handlers.NewSentimentHandler(svc, predictionCache, stats, appLogger)
	httpServer := server.NewServer(&config.Server, &config.Metrics, sentimentHandler, prom, appLogger)

	// 7. 启动服务并等待停止信号
	return runApplication(ctx, &application{server: httpServer, cache: predictionCache}, appLogger)
}

// initializeLogger 初始化日志服务
func initializeLogger(config configs.LoggingConfig) logger.Logger {
	loggerConfig := logger.Config{
		Level:  logger.ParseLevel(config.Level),
		Output: config.Output,
		Format: config.Format,
	}

	if config.Output == "file" {
		loggerConfig.FilePath = config.FilePath
	}

	return logger.New(loggerConfig)
}

// initializeCache 初始化预测缓存，Redis 不可达时降级为不缓存
func initializeCache(ctx context.Context, cfg *cache.Config, log logger.Logger) cacheBackend {
	if !cfg.Enabled {
		return cache.Noop{}
	}

	redisCache := cache.NewRedisCache(cfg)
	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	if err := redisCache.Ping(pingCtx); err != nil {
		log.WarnContext(ctx, "Redis 不可用，健康检查将报告异常", "addr", cfg.Addr, "error", err.Error())
	} else {
		log.InfoContext(ctx, "Redis 缓存连接成功", "addr", cfg.Addr, "ttl", cfg.TTL)
	}
	return redisCache
}

// runApplication 运行应用程序，监听停止信号
// 此函数会阻塞直到收到停止信号、服务器错误或上下文取消
func runApplication(ctx context.Context, app *application, log logger.Logger) error {
	// 创建错误通道 - 用于接收服务器运行时错误
	errChan := make(chan error, 1)

	// 创建信号通道
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	// 启动HTTP服务器（非阻塞）
	app.server.Start(ctx, errChan)

	// 等待停止信号、服务器错误或上下文取消
	select {
	case err := <-errChan:
		log.ErrorContext(ctx, "服务器运行错误", "error", err)
		_ = app.cache.Close()
		return err

	case sig := <-signalChan:
		log.InfoContext(ctx, "收到停止信号，开始优雅关闭", "signal", sig.String())
		return gracefulShutdown(ctx, app, log)

	case <-ctx.Done():
		log.InfoContext(ctx, "上下文取消，开始优雅关闭")
		return gracefulShutdown(ctx, app, log)
	}
}

// gracefulShutdown 执行优雅关闭
func gracefulShutdown(ctx context.Context, app *application, log logger.Logger) error {
	log.InfoContext(ctx, "开始执行优雅关闭流程")

	// 创建带超时的关闭上下文
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 执行HTTP服务器优雅关闭
	if err := app.server.Shutdown(shutdownCtx); err != nil {
		log.ErrorContext(ctx, "HTTP服务器关闭失败", "error", err)
		return fmt.Errorf("HTTP服务器关闭失败: %w", err)
	}

	if err := app.cache.Close(); err != nil {
		log.WarnContext(ctx, "缓存连接关闭失败", "error", err)
	}

	log.InfoContext(ctx, "优雅关闭完成")
	return nil
}
