package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "devease",
	Short: "devease - build pipeline dashboard",
	Long: `devease is a terminal dashboard for build pipelines.

It signs you in to a devease backend, connects to your CI provider with a
personal access token, and shows per-project pipelines, run history,
analytics, and failure details.

Configuration:
  Set the backend address via flag, environment variable, or config file:
    DEVEASE_API         Backend address (default: http://127.0.0.1:8420)
    DEVEASE_TOKEN       Admin token for the accounts subcommands

  The config file is $HOME/.devease.yaml unless --config points elsewhere.`,
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".devease")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("DEVEASE")
	viper.AutomaticEnv()

	// Missing config file is fine; flags and env cover everything.
	_ = viper.ReadInConfig()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.devease.yaml)")

	rootCmd.PersistentFlags().String("api", "http://127.0.0.1:8420", "backend address")
	viper.BindPFlag("api", rootCmd.PersistentFlags().Lookup("api"))

	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(accountsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
