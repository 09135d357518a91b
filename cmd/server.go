/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/patitas-adopcion/apiserver/internal/server"
	"github.com/spf13/cobra"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the listing API server",
	Long: `Starts the listing API server. Usage:

	patitas server
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv, err := server.New(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("servidor detenido")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
