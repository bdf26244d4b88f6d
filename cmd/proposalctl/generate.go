package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"proposalkit/internal/export"
)

func newGenerateCmd(c *cli) *cobra.Command {
	var (
		inputPath string
		outDir    string
		pdf       bool
	)
	cmd := &cobra.Command{
		Use:   "generate KIND",
		Short: "Compose a proposal DOCX from a request file",
		Long: `Compose a proposal DOCX from a YAML (or JSON) request file:

  client: {name: Acme Corp, email: ops@acme.test, phone: "+919876543210", country: India}
  date: 2026-10-18
  currency: INR
  prices: {M-Price: 4000, C-Price: 6000}
  team: {P1: 1, BD1: 2}
  special: {VDate: 2026-11-18}
  tools: [Make, HubSpot]

The file is written to the output directory under its generated name. PDF
conversion problems are reported as warnings and never fail the command.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in export.Input
			if inputPath != "" {
				data, err := os.ReadFile(inputPath)
				if err != nil {
					return fmt.Errorf("read request: %w", err)
				}
				if err := yaml.Unmarshal(data, &in); err != nil {
					return fmt.Errorf("parse request %s: %w", inputPath, err)
				}
			}
			in.PDF = in.PDF || pdf
			req, err := in.Request(args[0])
			if err != nil {
				return err
			}

			gen, err := c.generator(req.PDF).Generate(cmd.Context(), req)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			files := []export.Result{gen.DOCX}
			if gen.PDF != nil {
				files = append(files, *gen.PDF)
			}
			for _, f := range files {
				path := filepath.Join(outDir, f.Filename)
				if err := os.WriteFile(path, f.Data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", f.Filename, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			for _, w := range gen.Warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "request file (YAML or JSON)")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	cmd.Flags().BoolVar(&pdf, "pdf", false, "also render a PDF next to the DOCX")
	return cmd
}
