package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/receipts-monitor/constants"
	"github.com/joseph-ayodele/receipts-monitor/internal/llm"
)

type recoverOutput struct {
	Kind    constants.DocumentKind `json:"kind"`
	Record  llm.Record             `json:"record"`
	Verdict llm.Verdict            `json:"verdict"`
}

func newRecoverCmd(flags *rootFlags) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "recover [file|-]",
		Short: "Recover a record from a raw model reply",
		Long: `Recover a structured receipt or invoice record from a model's text reply.
The reply may be fenced, wrapped in commentary or malformed.

Examples:
  # Recover an invoice reply stored in a file
  receipts-monitor recover --kind invoice reply.txt

  # Recover from stdin
  cat reply.txt | receipts-monitor recover -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, ok := constants.ParseDocumentKind(kind)
			if !ok {
				return eris.Errorf("unknown kind %q (want receipt or invoice)", kind)
			}
			_, logger, err := loadConfig(flags)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			var raw []byte
			if len(args) == 0 || args[0] == "-" {
				raw, err = io.ReadAll(cmd.InOrStdin())
			} else {
				raw, err = os.ReadFile(args[0])
			}
			if err != nil {
				return eris.Wrap(err, "read reply")
			}

			rec, verdict := llm.NewRecoverer(logger).Recover(string(raw), k)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(recoverOutput{Kind: k, Record: rec, Verdict: verdict})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(constants.KindReceipt), "document kind: receipt or invoice")
	return cmd
}
