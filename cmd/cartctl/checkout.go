package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/dwikikusuma/storefront/internal/checkout/domain"
)

func newCheckoutCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Quote and place orders",
	}

	quote := &cobra.Command{
		Use:   "quote",
		Short: "Price the cart for checkout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(opts.server, opts.timeout)
			var q domain.Quote
			if err := c.do(cmd.Context(), http.MethodGet, checkoutPath(opts.session, "/quote"), nil, &q); err != nil {
				return err
			}
			return printJSON(cmd, q)
		},
	}

	var (
		userID   string
		payment  string
		shipping domain.ShippingInfo
	)
	place := &cobra.Command{
		Use:   "place",
		Short: "Place an order for the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(opts.server, opts.timeout)
			body := map[string]any{
				"user_id":        userID,
				"payment_method": payment,
				"shipping":       shipping,
			}
			var placed domain.PlacedOrder
			if err := c.do(cmd.Context(), http.MethodPost, checkoutPath(opts.session, "/orders"), body, &placed); err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd, placed)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "order %s %s: %d %s\n", placed.OrderID, placed.Status, placed.TotalAmount, placed.Currency)
			return nil
		},
	}
	f := place.Flags()
	f.StringVar(&userID, "user", "", "user id (defaults to the session)")
	f.StringVar(&payment, "payment", "COD", "payment method: COD or ONLINE")
	f.StringVar(&shipping.Address, "address", "", "shipping address")
	f.StringVar(&shipping.City, "city", "", "shipping city")
	f.StringVar(&shipping.Country, "country", "", "shipping country")
	f.StringVar(&shipping.PinCode, "pin", "", "shipping pin code")

	cmd.AddCommand(quote, place)
	return cmd
}

func checkoutPath(session, suffix string) string {
	return "/v1/checkout/" + url.PathEscape(session) + suffix
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
