package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/receipts-monitor/internal/async"
	"github.com/joseph-ayodele/receipts-monitor/internal/ingest"
	"github.com/joseph-ayodele/receipts-monitor/internal/pipeline"
)

func newWatchCmd(flags *rootFlags) *cobra.Command {
	var dirs []string
	var out string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch inbox directories and process new documents",
		Long: `Watch one or more inbox directories and process every new or changed
document. The workbook is saved after each document and on exit.

Examples:
  receipts-monitor watch --dir ./inbox/receipts --dir ./inbox/invoices`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, flags, out)
			if err != nil {
				return err
			}
			defer a.Close()

			roots := dirs
			if len(roots) == 0 {
				roots = a.cfg.Watch.Roots
			}
			paths, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
				Roots:       roots,
				InitialScan: a.cfg.Watch.InitialScan,
				Debounce:    a.cfg.Watch.Debounce,
				Logger:      a.logger,
			})
			if err != nil {
				return err
			}

			pool := async.NewPool(a.processor,
				async.WithWorkers(a.cfg.Pipeline.Workers),
				async.WithQueueSize(a.cfg.Pipeline.QueueSize),
				async.WithLogger(a.logger),
				async.WithResultHandler(func(_ async.Job, res pipeline.Result, _ error) {
					if res.Skipped {
						return
					}
					if err := a.save(context.WithoutCancel(ctx)); err != nil {
						a.logger.Error("watch.save_failed", zap.Error(err))
					}
				}),
			)

			for {
				select {
				case p, ok := <-paths:
					if !ok {
						pool.Shutdown(context.Background())
						return a.save(context.Background())
					}
					doc, err := a.ingestor.Describe(p)
					if err != nil {
						a.logger.Warn("watch.describe_failed", zap.String("path", p), zap.Error(err))
						continue
					}
					if err := pool.Enqueue(ctx, async.Job{Document: doc}); err != nil {
						a.logger.Warn("watch.enqueue_failed", zap.String("path", p), zap.Error(err))
					}
				case err, ok := <-errs:
					if ok {
						a.logger.Warn("watch.error", zap.Error(err))
					} else {
						errs = nil
					}
				}
			}
		},
	}
	cmd.Flags().StringArrayVar(&dirs, "dir", nil, "directory to watch (repeatable; default watch.roots)")
	cmd.Flags().StringVar(&out, "out", "", "output XLSX path (default export.output)")
	return cmd
}
