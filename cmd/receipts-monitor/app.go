package main

import (
	"context"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/receipts-monitor/internal/common"
	"github.com/joseph-ayodele/receipts-monitor/internal/export"
	"github.com/joseph-ayodele/receipts-monitor/internal/ingest"
	"github.com/joseph-ayodele/receipts-monitor/internal/llm"
	"github.com/joseph-ayodele/receipts-monitor/internal/llm/openai"
	"github.com/joseph-ayodele/receipts-monitor/internal/metrics"
	"github.com/joseph-ayodele/receipts-monitor/internal/pipeline"
	"github.com/joseph-ayodele/receipts-monitor/internal/pricehistory"
	"github.com/joseph-ayodele/receipts-monitor/internal/repository"
)

// app is the wired process: config, logger, stores and the processor.
type app struct {
	cfg       *common.Config
	logger    *zap.Logger
	flags     *rootFlags
	stores    *repository.Stores
	tracker   *pricehistory.Tracker
	metrics   *metrics.Metrics
	workbook  *export.Workbook
	ingestor  *ingest.FSIngestor
	processor *pipeline.Processor
}

func loadConfig(flags *rootFlags) (*common.Config, *zap.Logger, error) {
	cfg, err := common.Load(flags.configPath)
	if err != nil {
		return nil, nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger, err := common.InitLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// newApp opens the stores and the output workbook and wires the pipeline.
func newApp(ctx context.Context, flags *rootFlags, output string) (*app, error) {
	cfg, logger, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	if output != "" {
		cfg.Export.Output = output
	}

	stores, err := repository.Open(ctx, cfg.Store, logger)
	if err != nil {
		return nil, eris.Wrap(err, "open stores")
	}
	if err := stores.HealthCheck(ctx, 5*time.Second); err != nil {
		_ = stores.Close()
		return nil, err
	}

	wb, err := export.OpenWorkbook(cfg.Export.Output, logger)
	if err != nil {
		_ = stores.Close()
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		flags:    flags,
		stores:   stores,
		tracker:  pricehistory.NewTracker(stores.Prices, logger),
		metrics:  metrics.New(),
		workbook: wb,
		ingestor: ingest.NewFSIngestor(cfg.Pipeline.LinkPrefix, logger),
	}

	text := pipeline.NewTextStage(newCompleter(cfg.LLM, logger), logger)
	text.MaxTokens = cfg.LLM.MaxTokens
	text.Temperature = cfg.LLM.Temperature
	record := pipeline.NewRecordStage(llm.NewRecoverer(logger), a.tracker, logger)

	a.processor = pipeline.NewProcessor(logger, text, record, wb)
	a.processor.Documents = stores.Documents
	a.processor.Metrics = a.metrics
	a.processor.Timeout = cfg.Pipeline.ProcessTimeout
	return a, nil
}

// newCompleter returns nil when no API key is configured; replies and
// sidecars are still processed.
func newCompleter(cfg common.LLMConfig, logger *zap.Logger) llm.Completer {
	if cfg.APIKey == "" && os.Getenv("TOGETHER_API_KEY") == "" && os.Getenv("OPENAI_API_KEY") == "" {
		logger.Warn("llm.disabled", zap.String("reason", "no api key; only reply files are processed"))
		return nil
	}
	return openai.NewClient(openai.Config{
		APIKey:            cfg.APIKey,
		BaseURL:           cfg.BaseURL,
		Model:             cfg.Model,
		Timeout:           cfg.Timeout,
		RequestsPerMinute: cfg.RequestsPerMinute,
	}, logger)
}

// save rewrites the price history sheet and writes the workbook.
func (a *app) save(ctx context.Context) error {
	table, err := a.tracker.Snapshot(ctx)
	if err != nil {
		return err
	}
	if err := a.workbook.WritePriceHistory(table.Sorted()); err != nil {
		return err
	}
	return a.workbook.Save(a.cfg.Export.Output)
}

func (a *app) Close() {
	if a.flags.metricsFile != "" {
		if err := a.metrics.WriteToTextfile(a.flags.metricsFile); err != nil {
			a.logger.Warn("metrics.write_failed", zap.Error(err))
		}
	}
	if err := a.workbook.Close(); err != nil {
		a.logger.Warn("export.close_failed", zap.Error(err))
	}
	if err := a.stores.Close(); err != nil {
		a.logger.Warn("repository.close_failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}
