package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/persenaut/challenges/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve POST /challenges, GET /challenges and GET /healthz until SIGINT or SIGTERM.

With the sqlite backend and server.purge_interval set, expired challenges are
deleted in the background.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		addr, _ := cmd.Flags().GetString("addr")
		diagnostics, _ := cmd.Flags().GetBool("diagnostics")
		a, logger, err := openApp(ctx, cmd, func(c *config.Config) {
			if addr != "" {
				c.Server.Addr = addr
			}
			if cmd.Flags().Changed("diagnostics") {
				c.Server.Diagnostics = diagnostics
			}
		})
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck
		defer a.Close()

		if err := a.Serve(ctx); err != nil {
			logger.Error("server stopped", zap.Error(err))
			return err
		}
		logger.Info("shutdown completed")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
	serveCmd.Flags().Bool("diagnostics", false, "Include error details in 5xx responses")
}
