package main

import (
	"fmt"

	"github.com/devease/devease/internal/api"
	"github.com/devease/devease/internal/tui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive dashboard",
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	apiAddr := viper.GetString("api")

	// Fail fast with a readable message instead of a login form that
	// can never succeed.
	if err := api.New(apiAddr).Health(); err != nil {
		return fmt.Errorf("backend not reachable at %s (start it with `devease serve`): %w", apiAddr, err)
	}

	app := tui.New(apiAddr)
	if err := app.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}
