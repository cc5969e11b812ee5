// Package cli is the appser command line client.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/appser/appser-store/cli/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "appser",
	Short:         "Appser Store command line client",
	Long:          `Browse, download, like and review apps published on an Appser Store server.`,
	Version:       "0.4.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long:  `Create ~/.appser/config.yaml with default values.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Init()
		if err != nil {
			printError("Failed to initialize configuration")
			return err
		}
		path, _ := config.GetConfigPath()
		printSuccess("Configuration created at " + path)
		fmt.Printf("Server: %s\n", cfg.ServerURL())
		fmt.Println("Change it with: appser config set server.host <host>")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(appCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(systemCmd)
	rootCmd.AddCommand(grpcCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printError(msg string) {
	fmt.Fprintf(os.Stderr, "✗ %s\n", msg)
}

func printSuccess(msg string) {
	fmt.Printf("✓ %s\n", msg)
}

// loadConfig prints the usual hint when the client was never initialized.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrNotInitialized) {
			printError("Configuration not initialized")
			fmt.Println("Run: appser init")
		}
		return nil, err
	}
	return cfg, nil
}
