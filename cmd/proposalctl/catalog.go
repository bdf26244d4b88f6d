package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"proposalkit/internal/catalog"
)

func newCatalogCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the proposal catalog",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every proposal type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tNAME\tRULE\tTEAM")
			for _, def := range c.registry.List() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", def.Kind, def.Name, def.Pricing.Kind, def.TeamType)
			}
			return w.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show KIND",
		Short: "Print one proposal definition as YAML",
		Long: `Print one proposal definition as YAML, including its resolved team roles.

KIND may be the proposal kind ("make-crm") or its display name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := c.registry.Lookup(args[0])
			if err != nil {
				return err
			}
			out := struct {
				catalog.Definition `yaml:",inline"`
				Team               []catalog.Role `yaml:"team"`
			}{Definition: *def, Team: def.Team}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(out); err != nil {
				return err
			}
			return enc.Close()
		},
	})
	return cmd
}
