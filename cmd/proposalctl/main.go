package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"proposalkit/internal/catalog"
	"proposalkit/internal/config"
	"proposalkit/internal/export"
	"proposalkit/internal/logger"
)

// cli holds what every subcommand shares. It is filled in by the root's
// PersistentPreRunE.
type cli struct {
	catalogPath  string
	templatesDir string
	logMode      string

	cfg      config.Config
	log      *logger.Logger
	registry *catalog.Registry
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "proposalctl",
		Short: "Price and generate client proposals from DOCX templates",
		Long: `proposalctl works with the same proposal catalog and templates as the API.

It can list the catalog, price a proposal without touching any template, and
compose a finished DOCX (optionally with a PDF next to it) from a request file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.log != nil {
				c.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&c.catalogPath, "catalog", "", "catalog YAML file (defaults to PROPOSALKIT_CATALOG, then the built-in catalog)")
	root.PersistentFlags().StringVar(&c.templatesDir, "templates", "", "templates directory (defaults to PROPOSALKIT_TEMPLATES_DIR)")
	root.PersistentFlags().StringVar(&c.logMode, "log-mode", "", "development, production or off (defaults to LOG_MODE)")

	root.AddCommand(newCatalogCmd(c), newQuoteCmd(c), newGenerateCmd(c))
	return root
}

func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if flagSet(cmd, "catalog") {
		cfg.CatalogPath = c.catalogPath
	}
	if flagSet(cmd, "templates") {
		cfg.TemplatesDir = c.templatesDir
	}
	if flagSet(cmd, "log-mode") {
		cfg.LogMode = c.logMode
	}
	c.cfg = cfg

	c.log, err = logger.New(cfg.LogMode,
		logger.WithRedaction(cfg.LogRedaction),
		logger.WithHashSalt(cfg.LogHashSalt),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	c.registry, err = catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		return err
	}
	return nil
}

func (c *cli) generator(pdf bool) *export.Service {
	opts := []export.Option{export.WithLogger(c.log)}
	if pdf || c.cfg.PDFEnabled {
		opts = append(opts, export.WithPDFConverter(export.NewChromeConverter(c.cfg.PDFTimeout)))
	}
	return export.NewService(c.registry, c.cfg.TemplatesDir, opts...)
}

func flagSet(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

// parsePrices reads key=amount pairs. Amounts may carry thousands commas.
func parsePrices(pairs []string) (map[string]int64, error) {
	prices := make(map[string]int64, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("price %q must look like key=amount", pair)
		}
		amount, err := strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(raw), ",", ""), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("price %q: amount must be a whole number", pair)
		}
		prices[key] = amount
	}
	return prices, nil
}
