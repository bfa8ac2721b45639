package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smartretail/storefront/internal/core/domain"
)

func (rt *runtime) ordersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orders",
		Aliases: []string{"order"},
		Short:   "Place and track orders",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "mine",
		Short: "List your orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.requireSession(); err != nil {
				return err
			}
			orders, err := rt.app.Orders.Mine(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, orders)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "all",
		Short: "List every order (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			orders, err := rt.app.Orders.All(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, orders)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get ID",
		Short: "Show one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args, 0)
			if err != nil {
				return err
			}
			o, err := rt.app.Orders.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, o)
		},
	})

	var items []string
	place := &cobra.Command{
		Use:   "place",
		Short: "Place an order from PRODUCT_ID:QUANTITY items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.requireSession(); err != nil {
				return err
			}
			lines, err := parseItems(items)
			if err != nil {
				return err
			}
			o, err := rt.app.Orders.Place(cmd.Context(), lines)
			if err != nil {
				return err
			}
			return printJSON(cmd, o)
		},
	}
	place.Flags().StringArrayVar(&items, "item", nil, "line item as PRODUCT_ID:QUANTITY (repeatable)")
	cmd.AddCommand(place)

	cmd.AddCommand(&cobra.Command{
		Use:   "cancel ID",
		Short: "Cancel a pending order and restore its stock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args, 0)
			if err != nil {
				return err
			}
			o, err := rt.app.Orders.Cancel(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, o)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status ID STATUS",
		Short: "Move an order to another status (admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args, 0)
			if err != nil {
				return err
			}
			o, err := rt.app.Orders.UpdateStatus(cmd.Context(), id, domain.OrderStatus(args[1]))
			if err != nil {
				return err
			}
			return printJSON(cmd, o)
		},
	})

	return cmd
}

// parseItems reads PRODUCT_ID:QUANTITY pairs. A missing quantity means 1.
func parseItems(raw []string) ([]domain.LineItem, error) {
	lines := make([]domain.LineItem, 0, len(raw))
	for _, item := range raw {
		idPart, qtyPart, found := strings.Cut(item, ":")
		id, err := strconv.Atoi(idPart)
		if err != nil {
			return nil, fmt.Errorf("invalid item %q: product id", item)
		}
		qty := 1
		if found {
			if qty, err = strconv.Atoi(qtyPart); err != nil {
				return nil, fmt.Errorf("invalid item %q: quantity", item)
			}
		}
		lines = append(lines, domain.LineItem{ProductID: id, Quantity: qty})
	}
	return lines, nil
}
