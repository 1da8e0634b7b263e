package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dwikikusuma/storefront/internal/cart/app"
)

func newCartCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Inspect and change a cart",
	}

	var quantity int32
	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a catalog product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{"product_id": args[0], "quantity": quantity}
			return cartCall(cmd, opts, http.MethodPost, "/items", body)
		},
	}
	add.Flags().Int32VarP(&quantity, "quantity", "q", 1, "units to add")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show cart lines and price breakdown",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return cartCall(cmd, opts, http.MethodGet, "", nil)
			},
		},
		add,
		itemCmd(opts, "inc <product-id>", "Add one unit", http.MethodPost, "/increment"),
		itemCmd(opts, "dec <product-id>", "Remove one unit", http.MethodPost, "/decrement"),
		itemCmd(opts, "rm <product-id>", "Remove a line", http.MethodDelete, ""),
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the cart",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c := newClient(opts.server, opts.timeout)
				if err := c.do(cmd.Context(), http.MethodDelete, cartPath(opts.session, ""), nil, nil); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "cart cleared")
				return nil
			},
		},
	)
	return cmd
}

func itemCmd(opts *options, use, short, method, suffix string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cartCall(cmd, opts, method, "/items/"+url.PathEscape(args[0])+suffix, nil)
		},
	}
}

func cartPath(session, suffix string) string {
	return "/v1/carts/" + url.PathEscape(session) + suffix
}

func cartCall(cmd *cobra.Command, opts *options, method, suffix string, body any) error {
	c := newClient(opts.server, opts.timeout)

	var v app.View
	err := c.do(cmd.Context(), method, cartPath(opts.session, suffix), body, &v)

	var ae *apiError
	if errors.As(err, &ae) && (ae.Code == "OUT_OF_STOCK" || ae.Code == "STOCK_LIMIT_EXCEEDED") {
		fmt.Fprintln(cmd.ErrOrStderr(), "notice:", ae.Message)
		return nil
	}
	if err != nil {
		return err
	}
	return printView(cmd.OutOrStdout(), v, opts.json)
}

func printView(w io.Writer, v app.View, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	if len(v.Items) == 0 {
		fmt.Fprintln(w, "cart is empty")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tNAME\tQTY\tPRICE\tTOTAL")
	for _, it := range v.Items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\n", it.ProductID, it.Name, it.Quantity, it.UnitPrice, it.LineTotal())
	}
	b := v.Breakdown
	fmt.Fprintf(tw, "\t%d items\t\t\t\n", v.TotalQuantity)
	fmt.Fprintf(tw, "\tsubtotal\t\t\t%d\n", b.ItemsPrice)
	fmt.Fprintf(tw, "\tshipping\t\t\t%d\n", b.ShippingCharges)
	fmt.Fprintf(tw, "\ttax\t\t\t%d\n", b.Tax)
	fmt.Fprintf(tw, "\ttotal (%s)\t\t\t%d\n", b.Currency, b.TotalAmount)
	return tw.Flush()
}
