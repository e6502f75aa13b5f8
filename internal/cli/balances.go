package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newBalancesCmd(a *app) *cobra.Command {
	var (
		refresh bool
		chart   bool
		export  string
	)

	cmd := &cobra.Command{
		Use:   "balances USER_ID",
		Short: "Show account balances of a bank user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}

			result, err := client.Balances(cmd.Context(), args[0], refresh)
			if err != nil {
				return err
			}

			header := []string{"account_id", "amount", "currency"}
			rows := make([][]string, 0, len(result.Data))
			bars := make([]Bar, 0, len(result.Data))
			for _, b := range result.Data {
				rows = append(rows, []string{b.AccountID, deref(b.Amount), deref(b.Currency)})
				if b.Amount != nil {
					if d, err := decimal.NewFromString(*b.Amount); err == nil {
						bars = append(bars, Bar{Label: b.AccountID, Value: d.InexactFloat64()})
					}
				}
			}

			if export != "" {
				if err := Export(export, result.Data, header, rows); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d balances to %s\n", len(rows), export)
				return nil
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No balances.")
				return nil
			}
			fmt.Fprintln(out, RenderTable([]string{"Account", "Amount", "Currency"}, rows, 1))
			if chart {
				fmt.Fprintln(out, RenderBarChart("Balances", bars, 40))
			}
			source := "cache"
			if result.Refreshed {
				source = "upstream"
			}
			fmt.Fprintln(out, mutedStyle.Render("source: "+source))
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "fetch fresh balances from the bank")
	cmd.Flags().BoolVar(&chart, "chart", false, "draw a bar chart of the balances")
	cmd.Flags().StringVar(&export, "export", "", "write to FILE (.csv, .json or .msgpack) instead of printing")
	return cmd
}
