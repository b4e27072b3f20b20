package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/pkg/logger"
)

// app carries state shared by all subcommands.
type app struct {
	configPath string
	dataDir    string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "fuzzysearch",
		Short: "Build segment files and run fuzzy term queries against them",
		Long: `fuzzysearch indexes JSON-lines documents into immutable segment files
and answers exact, prefix and Levenshtein fuzzy term queries over them,
either from the command line or over HTTP.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to YAML config file")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "segment directory (overrides index.dataDir)")
	root.AddCommand(newIndexCmd(a), newQueryCmd(a), newServeCmd(a), newLoadTestCmd())
	return root
}

func (a *app) load(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.dataDir != "" {
		cfg.Index.DataDir = a.dataDir
	}
	a.cfg = cfg
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
