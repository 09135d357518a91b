/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/patitas-adopcion/apiserver/internal/client"
	"github.com/patitas-adopcion/apiserver/internal/panel"
	"github.com/spf13/cobra"
)

var panelAPIURL string

// panelCmd represents the panel command
var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "Opens the terminal admin panel",
	Long: `Opens the terminal admin panel against a running API. Usage:

	patitas panel [--api-url http://localhost:5000]
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		apiURL := cfg.Panel.APIURL
		if panelAPIURL != "" {
			apiURL = panelAPIURL
		}

		api := client.New(apiURL,
			client.WithLogger(logger),
			client.WithUploadMode(cfg.Panel.UploadMode),
			client.WithPreset(cfg.Panel.CloudName, cfg.Panel.UploadPreset),
		)

		program := tea.NewProgram(panel.New(api, panel.Options{PublicURL: cfg.Panel.PublicURL}), tea.WithAltScreen())
		final, err := program.Run()
		if err != nil {
			return fmt.Errorf("panel: %w", err)
		}

		if model, ok := final.(panel.Model); ok && model.ExitURL() != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Sesión cerrada. Continúe en %s\n", model.ExitURL())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(panelCmd)

	panelCmd.Flags().StringVar(&panelAPIURL, "api-url", "", "API base URL (defaults to PANEL_API_URL)")
}
