package cli

import (
	"fmt"
	"strconv"

	"github.com/aristath/bankmirror/internal/modules/orders"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newOrdersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Manage stored order records",
	}
	cmd.AddCommand(newOrdersListCmd(a), newOrdersCreateCmd(a), newOrdersStatusCmd(a))
	return cmd
}

func newOrdersListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List orders, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			list, err := client.Orders(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No orders.")
				return nil
			}

			rows := make([][]string, 0, len(list))
			for _, o := range list {
				limit := "-"
				if o.LimitPrice != nil {
					limit = o.LimitPrice.String()
				}
				rows = append(rows, []string{
					strconv.FormatInt(o.ID, 10),
					o.Instrument,
					o.Side,
					o.OrderType,
					o.Quantity.String(),
					limit,
					o.Status,
					o.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), RenderTable(
				[]string{"ID", "Instrument", "Side", "Type", "Quantity", "Limit", "Status", "Created"},
				rows, 0, 4, 5))
			return nil
		},
	}
}

func newOrdersCreateCmd(a *app) *cobra.Command {
	var (
		side, orderType, quantity, limitPrice, notes string
	)

	cmd := &cobra.Command{
		Use:   "create INSTRUMENT",
		Short: "Record a new order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := decimal.NewFromString(quantity)
			if err != nil {
				return fmt.Errorf("invalid --quantity %q: %w", quantity, err)
			}

			in := orders.OrderCreate{
				Instrument: args[0],
				Side:       side,
				OrderType:  orderType,
				Quantity:   qty,
			}
			if limitPrice != "" {
				lp, err := decimal.NewFromString(limitPrice)
				if err != nil {
					return fmt.Errorf("invalid --limit-price %q: %w", limitPrice, err)
				}
				in.LimitPrice = &lp
			}
			if notes != "" {
				in.Notes = &notes
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			order, err := client.CreateOrder(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created order %d (%s %s %s, %s)\n",
				order.ID, order.Side, order.Quantity.String(), order.Instrument, order.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&side, "side", "buy", "buy or sell")
	cmd.Flags().StringVar(&orderType, "type", "market", "market or limit")
	cmd.Flags().StringVar(&quantity, "quantity", "", "quantity (decimal)")
	cmd.Flags().StringVar(&limitPrice, "limit-price", "", "limit price, required for limit orders")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	_ = cmd.MarkFlagRequired("quantity")
	return cmd
}

func newOrdersStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status ORDER_ID STATUS",
		Short: "Set the status of an order (pending, placed, executed, cancelled)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid order id %q", args[0])
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			order, err := client.UpdateOrderStatus(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Order %d is now %s\n", order.ID, order.Status)
			return nil
		},
	}
}
