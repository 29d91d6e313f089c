// sentimentctl 离线查看模型并对文本做预测，不启动 HTTP 服务
//
//	sentimentctl models
//	sentimentctl compare
//	sentimentctl predict -model naive_bayes "great food" "rude staff"
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"

	"review-sentiment/configs"
	"review-sentiment/internal/domain/models"
	"review-sentiment/internal/domain/services"
	"review-sentiment/internal/eino/flows"
	"review-sentiment/internal/infrastructure/classifier"
	"review-sentiment/internal/infrastructure/registry"
	"review-sentiment/internal/infrastructure/textanalysis"
	"review-sentiment/internal/infrastructure/vectorizer"
	"review-sentiment/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (defaults to the server search paths)")
	verbose := flag.Bool("v", false, "Log at the configured level instead of warn")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	ctx := context.Background()
	log := newLogger("warn", "text")

	cfg, err := configs.LoadFrom(ctx, *configPath)
	if err != nil {
		log.ErrorContext(ctx, "配置加载失败", "error", err)
		os.Exit(1)
	}
	if *verbose {
		log = newLogger(cfg.Logging.Level, cfg.Logging.Format)
	}

	svc, err := buildService(ctx, cfg, log)
	if err != nil {
		log.ErrorContext(ctx, "模型加载失败", "error", err)
		os.Exit(1)
	}

	if err := run(ctx, svc, flag.Args(), os.Stdout); err != nil {
		log.ErrorContext(ctx, "命令执行失败", "command", flag.Arg(0), "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: sentimentctl [-config path] [-v] <models|compare|predict> [args]\n")
	flag.PrintDefaults()
}

// newLogger 日志统一写到 stderr，stdout 只留给表格输出
func newLogger(level, format string) logger.Logger {
	return logger.New(logger.Config{
		Level:  logger.ParseLevel(level),
		Output: "stderr",
		Format: format,
	})
}

// buildService 加载模型并创建不带缓存和指标的预测服务
func buildService(ctx context.Context, cfg *configs.Config, log logger.Logger) (services.SentimentService, error) {
	vec, err := vectorizer.Load(cfg.Serving.VectorizerArtifact())
	if err != nil {
		return nil, err
	}
	reg, err := registry.Initialize(ctx, cfg.Serving.Sources(), classifier.Load, log)
	if err != nil {
		return nil, err
	}

	svc, err := flows.NewPredictionService(ctx, flows.ServiceOptions{
		Registry:     reg,
		Vectorizer:   vec,
		Analyzer:     textanalysis.New(cfg.TextAnalysis),
		Config:       &cfg.Eino.Predict,
		DefaultModel: cfg.Serving.DefaultModel,
		Logger:       log,
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func run(ctx context.Context, svc services.SentimentService, args []string, out io.Writer) error {
	switch args[0] {
	case "models":
		renderModels(out, svc.Models(), svc.DefaultModel())
		return nil
	case "compare":
		renderComparison(out, svc.Compare())
		return nil
	case "predict":
		fs := flag.NewFlagSet("predict", flag.ContinueOnError)
		model := fs.String("model", "", "Model id (defaults to the configured default model)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if fs.NArg() == 0 {
			return fmt.Errorf("predict: at least one text is required")
		}
		if *model == "" {
			*model = svc.DefaultModel()
		}

		result, err := svc.PredictBatch(ctx, fs.Args(), *model)
		if err != nil {
			return err
		}
		renderBatch(out, result)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func newTable(out io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func renderModels(out io.Writer, descriptors []models.ModelDescriptor, defaultModel string) {
	table := newTable(out, []string{"ID", "Name", "Default", "Description"})
	for _, d := range descriptors {
		mark := ""
		if d.ID == defaultModel {
			mark = "*"
		}
		table.Append([]string{d.ID, d.Name, mark, d.Description})
	}
	table.Render()
}

func renderComparison(out io.Writer, rows []models.ComparisonRow) {
	table := newTable(out, []string{"Model", "Accuracy", "Precision", "Recall", "F1 Score"})
	for _, r := range rows {
		table.Append([]string{
			r.Model,
			fmt.Sprintf("%.2f", r.Accuracy),
			fmt.Sprintf("%.2f", r.Precision),
			fmt.Sprintf("%.2f", r.Recall),
			fmt.Sprintf("%.2f", r.F1Score),
		})
	}
	table.Render()
}

func renderBatch(out io.Writer, result *models.BatchResult) {
	table := newTable(out, []string{"#", "Sentiment", "Confidence", "Text"})
	for _, item := range result.Results {
		sentiment := strings.TrimSpace(item.Emoji + " " + item.Sentiment)
		if item.Error != "" {
			sentiment = "error: " + item.Error
		}
		table.Append([]string{
			fmt.Sprintf("%d", item.Index),
			sentiment,
			fmt.Sprintf("%.1f%%", item.Confidence),
			item.Text,
		})
	}
	table.Render()

	s := result.Summary
	fmt.Fprintf(out, "\nmodel=%s processed=%d positive=%d negative=%d neutral=%d failed=%d\n",
		s.ModelUsed, s.TotalProcessed, s.Positive, s.Negative, s.Neutral, s.Failed)
}
