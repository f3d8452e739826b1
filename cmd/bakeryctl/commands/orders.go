package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/bakery-backend/cmd/bakeryctl/output"
)

func newOrdersCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Order reporting",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Print the admin dashboard figures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withBackend(cmd, func(ctx context.Context, b *Backend, p *output.Printer) error {
				stats, err := b.Orders.Stats(ctx)
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return opts.writeJSON(cmd.OutOrStdout(), stats)
				}
				p.Section("Orders")
				p.KeyValue("active", stats.Total)
				p.KeyValue("pending", stats.Pending)
				p.KeyValue("confirmed", stats.Confirmed)
				p.KeyValue("delivered", stats.Delivered)
				p.KeyValue("archived", stats.Archived)
				p.KeyValue("tuesday / friday", stats.TuesdayOrders, " / ", stats.FridayOrders)
				p.KeyValue("income", "₪"+stats.TotalIncome.StringFixed(2))

				p.Section("Next delivery " + stats.NextDeliveryDate + " (" + string(stats.NextDeliverySlot) + ")")
				p.KeyValue("orders", stats.NextDelivery)
				p.KeyValue("pending", stats.NextDeliveryPending)
				p.KeyValue("cancelled", stats.NextDeliveryCancelled)
				p.KeyValue("income", "₪"+stats.NextDeliveryIncome.StringFixed(2))
				p.KeyValue("pending income", "₪"+stats.NextDeliveryPendingIncome.StringFixed(2))
				return nil
			})
		},
	})
	return cmd
}
