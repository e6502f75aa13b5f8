package cli

import (
	"fmt"
	"io"
	"math"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newTransactionsCmd(a *app) *cobra.Command {
	var (
		filter TransactionFilter
		chart  bool
		stats  bool
		export string
	)

	cmd := &cobra.Command{
		Use:   "transactions ACCOUNT_ID",
		Short: "Show transactions of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}

			result, err := client.Transactions(cmd.Context(), args[0], filter)
			if err != nil {
				return err
			}

			header := []string{"external_id", "booking_date", "booking_status", "amount", "currency", "counterparty", "remittance_info"}
			rows := make([][]string, 0, len(result.Data))
			amounts := make([]*string, 0, len(result.Data))
			bars := make([]Bar, 0, len(result.Data))
			for _, t := range result.Data {
				rows = append(rows, []string{
					t.ExternalID,
					deref(t.BookingDate),
					deref(t.BookingStatus),
					deref(t.Amount),
					deref(t.Currency),
					deref(t.Counterparty),
					deref(t.RemittanceInfo),
				})
				amounts = append(amounts, t.Amount)
				if t.Amount != nil {
					if d, err := decimal.NewFromString(*t.Amount); err == nil {
						bars = append(bars, Bar{Label: deref(t.BookingDate), Value: d.InexactFloat64()})
					}
				}
			}

			if export != "" {
				if err := Export(export, result.Data, header, rows); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d transactions to %s\n", len(rows), export)
				return nil
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No transactions.")
				return nil
			}
			display := make([][]string, len(rows))
			for i, r := range rows {
				display[i] = []string{r[1], r[3], r[4], r[5], r[6], r[2]}
			}
			fmt.Fprintln(out, RenderTable([]string{"Date", "Amount", "Currency", "Counterparty", "Remittance", "Status"}, display, 1))
			if chart {
				fmt.Fprintln(out, RenderBarChart("Transactions", bars, 40))
			}
			if stats {
				writeStats(out, ComputeAmountStats(amounts))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&filter.Refresh, "refresh", false, "fetch fresh transactions from the bank")
	cmd.Flags().StringVar(&filter.State, "state", "", "transaction state filter (BOOKED, NOTBOOKED, BOTH)")
	cmd.Flags().StringVar(&filter.Direction, "direction", "", "transaction direction filter (CREDIT, DEBIT, CREDIT_AND_DEBIT)")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "maximum number of transactions requested upstream")
	cmd.Flags().BoolVar(&chart, "chart", false, "draw a bar chart of the amounts")
	cmd.Flags().BoolVar(&stats, "stats", false, "print summary statistics of the amounts")
	cmd.Flags().StringVar(&export, "export", "", "write to FILE (.csv, .json or .msgpack) instead of printing")
	return cmd
}

func writeStats(out io.Writer, s AmountStats) {
	stddev := "n/a"
	if !math.IsNaN(s.StdDev) {
		stddev = fmt.Sprintf("%.2f", s.StdDev)
	}
	rows := [][]string{
		{"count", fmt.Sprintf("%d", s.Count)},
		{"sum", fmt.Sprintf("%.2f", s.Sum)},
		{"inflow", fmt.Sprintf("%.2f", s.Inflow)},
		{"outflow", fmt.Sprintf("%.2f", s.Outflow)},
		{"mean", fmt.Sprintf("%.2f", s.Mean)},
		{"std dev", stddev},
		{"min", fmt.Sprintf("%.2f", s.Min)},
		{"max", fmt.Sprintf("%.2f", s.Max)},
	}
	fmt.Fprintln(out, RenderTable([]string{"Statistic", "Value"}, rows, 1))
}
