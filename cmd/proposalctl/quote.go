package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"proposalkit/internal/export"
)

func newQuoteCmd(c *cli) *cobra.Command {
	var (
		prices   []string
		currency string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "quote KIND",
		Short: "Price a proposal without composing a document",
		Example: `  proposalctl quote make-crm --price M-Price=4000 --price C-Price=6000 --currency INR
  proposalctl quote mobile-app-development --price design=20000 --price development=70000 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amounts, err := parsePrices(prices)
			if err != nil {
				return err
			}
			def, quote, err := c.generator(false).Quote(export.Request{
				Kind:     args[0],
				Currency: currency,
				Prices:   amounts,
			})
			if err != nil {
				return err
			}
			c.log.Debug("quote computed", "kind", def.Kind, "currency", string(quote.Currency), "total", quote.Total)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(quote)
			}

			fmt.Fprintf(out, "%s (%s)\n", def.Name, quote.Currency)
			keys := make([]string, 0, len(quote.Placeholders))
			for k := range quote.Placeholders {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "  %-24s %s\n", k, quote.Placeholders[k])
			}
			fmt.Fprintf(out, "total: %s\n", quote.Currency.FormatTotal(quote.Total))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&prices, "price", nil, "pricing field amount as key=amount (repeatable)")
	cmd.Flags().StringVar(&currency, "currency", "USD", "USD, INR or AUD")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full quote as JSON")
	return cmd
}
