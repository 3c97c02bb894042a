package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"palmdash/internal/cache"
	"palmdash/internal/config"
	"palmdash/internal/logging"
	"palmdash/internal/pipeline"
)

var (
	configPath string
	logLevel   string
	cfg        config.Config
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "palmdash",
	Short: "Oil palm expansion and deforestation dashboard",
	Long: `palmdash renders maps and a yearly time series of oil palm expansion and
non-oil palm deforestation in a study area of the Central Peruvian Amazon.

It serves the dashboard over HTTP, or writes the charts and a workbook of the
underlying numbers to disk.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Logging.Level = logLevel
		}
		logger = logging.New(cfg.Logging.Level)
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file (default $PALMDASH_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
}

// newDashboard wires the pipelines to a fresh cache whose metrics land on reg.
func newDashboard(reg *prometheus.Registry) (*pipeline.Dashboard, error) {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	memo, err := cache.New(cfg.Cache.Size, reg)
	if err != nil {
		return nil, err
	}
	return pipeline.New(cfg, memo, logger), nil
}
