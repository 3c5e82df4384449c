package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/receipts-monitor/internal/repository"
)

func newPricesCmd(flags *rootFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "prices",
		Short: "List the tracked price history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, logger, err := loadConfig(flags)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			stores, err := repository.Open(ctx, cfg.Store, logger)
			if err != nil {
				return err
			}
			defer func() { _ = stores.Close() }()

			states, err := stores.Prices.List(ctx)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(states)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SUPPLIER\tPRODUCT\tUNIT\tCURRENT\tPREVIOUS\tCHANGE\tSEEN\tUPDATED")
			for _, st := range states {
				prev := "-"
				if st.PreviousPrice != nil {
					prev = *st.PreviousPrice
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%+.2f%%\t%d\t%s\n",
					st.Supplier, st.Product, st.UnitType, st.CurrentPrice, prev,
					st.LastDeltaPercent, st.ObservationCount, st.LastUpdated)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}
