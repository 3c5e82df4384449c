package main

import (
	"fmt"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/receipts-monitor/internal/async"
	"github.com/joseph-ayodele/receipts-monitor/internal/pipeline"
)

type processSummary struct {
	mu        sync.Mutex
	processed int
	skipped   int
	failed    int
}

func (s *processSummary) add(res pipeline.Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case err != nil:
		s.failed++
	case res.Skipped:
		s.skipped++
	default:
		s.processed++
	}
}

func newProcessCmd(flags *rootFlags) *cobra.Command {
	var dir, out string
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process every document under a directory once",
		Long: `Scan a directory for receipt and invoice images (and reply files), recover
each one and append the rows to the output workbook. Documents already
processed are skipped.

Examples:
  receipts-monitor process --dir ./inbox --out receipts.xlsx`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, flags, out)
			if err != nil {
				return err
			}
			defer a.Close()

			docs, stats, err := a.ingestor.Scan(ctx, dir)
			if err != nil {
				return err
			}

			var sum processSummary
			pool := async.NewPool(a.processor,
				async.WithWorkers(a.cfg.Pipeline.Workers),
				async.WithQueueSize(a.cfg.Pipeline.QueueSize),
				async.WithLogger(a.logger),
				async.WithResultHandler(func(_ async.Job, res pipeline.Result, err error) { sum.add(res, err) }),
			)
			for _, doc := range docs {
				if err := pool.Enqueue(ctx, async.Job{Document: doc}); err != nil {
					pool.Shutdown(ctx)
					return eris.Wrap(err, "enqueue")
				}
			}
			pool.Shutdown(ctx)

			if err := a.save(ctx); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(),
				"scanned %d files: %d processed, %d skipped, %d failed -> %s\n",
				stats.Scanned, sum.processed, sum.skipped, sum.failed, a.cfg.Export.Output)
			return err
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory to process (required)")
	cmd.Flags().StringVar(&out, "out", "", "output XLSX path (default export.output)")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}
