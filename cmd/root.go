// Package cmd implements the valet CLI using cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/emberhq/valet/internal/config"
	"github.com/emberhq/valet/internal/dependency"
)

const version = "0.1.0"
const logo = "🎩"

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "valet",
	Short: logo + " valet — Personal Assistant Core",
	Long:  logo + " valet — durable memory, capability registry, and reminders for a personal assistant",
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	// API keys may live in a .env next to the binary or in the data dir.
	_ = godotenv.Load()

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(remindCmd)
	rootCmd.AddCommand(capabilitiesCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(gatewayCmd)
	rootCmd.AddCommand(resetCmd)
}

// buildContainer loads config and wires the service graph.
func buildContainer() (*dependency.Container, error) {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return dependency.New(cfg)
}
