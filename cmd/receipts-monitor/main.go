// Package main implements the receipts-monitor CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

// rootFlags are shared by every subcommand.
type rootFlags struct {
	configPath  string
	metricsFile string
	logLevel    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if _, werr := fmt.Fprintln(os.Stderr, "Error:", err); werr != nil {
			fmt.Println("Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "receipts-monitor",
		Short: "Recover receipts and invoices from vision model replies",
		Long: `receipts-monitor turns receipt and supplier invoice images into spreadsheet
rows. Model replies are recovered even when malformed, and invoice line items
feed a per-product price history.

Configuration is read from config.yaml (or --config) and RECEIPTS_* env vars.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default ./config.yaml)")
	cmd.PersistentFlags().StringVar(&flags.metricsFile, "metrics-file", "", "write Prometheus textfile metrics here on exit")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override log.level")

	cmd.AddCommand(
		newRecoverCmd(flags),
		newProcessCmd(flags),
		newWatchCmd(flags),
		newPricesCmd(flags),
	)
	return cmd
}
