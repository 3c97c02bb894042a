package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"palmdash/internal/page"
	"palmdash/internal/server"
)

var addr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard over HTTP",
	Long: `Load every dataset, then serve the dashboard page, its charts, the JSON
API and the workbook export until interrupted.

Startup fails if any dataset cannot be loaded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr = addr
		}

		reg := prometheus.NewRegistry()
		dash, err := newDashboard(reg)
		if err != nil {
			return err
		}
		if err := dash.Warm(); err != nil {
			logger.Error("loading datasets failed", "error", err)
			return err
		}

		p, err := page.New()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.New(dash, p, reg, logger)
		return srv.ListenAndServe(ctx, cfg.Server.Addr, cfg.Server.ReadHeaderTimeout, cfg.Server.ShutdownTimeout)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8501)")
}
