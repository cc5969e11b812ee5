package cli

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/appser/appser-store/cli/config"
	"github.com/appser/appser-store/pkg/discovery"
	"github.com/spf13/cobra"
)

var (
	discoverAddr    string
	discoverTimeout time.Duration
	discoverSave    bool
)

var systemCmd = &cobra.Command{
	Use:   "system",
	Short: "System information",
	Long:  `Display system information and diagnostics.`,
}

var systemInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show system info",
	Long:  `Display client details, server readiness and the services the server advertises.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("System Information:")
		fmt.Println("-------------------")
		fmt.Printf("OS: %s\n", runtime.GOOS)
		fmt.Printf("Architecture: %s\n", runtime.GOARCH)
		fmt.Printf("Go Version: %s\n", runtime.Version())
		fmt.Printf("Client Version: %s\n", rootCmd.Version)

		cfg, err := config.Load()
		if err != nil {
			fmt.Println("\nConfiguration: Not initialized")
			return nil
		}
		path, _ := config.GetConfigPath()
		fmt.Println("\nConfiguration:")
		fmt.Printf("  Config Path: %s\n", path)
		fmt.Printf("  Server: %s\n", cfg.ServerURL())
		fmt.Printf("  Votes File: %s\n", cfg.Votes.Path)
		fmt.Printf("  Admin Token: %v\n", cfg.Admin.Token != "")

		client := newAPIClient(cfg.ServerURL(), "")

		fmt.Println("\nServer Connectivity:")
		var ready map[string]string
		if err := client.get("/readyz", &ready); err != nil {
			if apiErr, ok := err.(*apiError); ok {
				fmt.Printf("  Status: ⚠ Not ready (HTTP %d)\n", apiErr.Status)
			} else {
				fmt.Printf("  Status: ✗ Unreachable (%s)\n", err.Error())
			}
			return nil
		}
		fmt.Println("  Status: ✓ Ready")

		var advertised struct {
			LocalIP  string            `json:"local_ip"`
			Services map[string]string `json:"services"`
		}
		if err := client.get("/api/services", &advertised); err == nil {
			fmt.Printf("  Server IP: %s\n", advertised.LocalIP)
			for _, name := range []string{"http", "websocket", "grpc"} {
				if u, ok := advertised.Services[name]; ok {
					fmt.Printf("  %s: %s\n", name, u)
				}
			}
		}
		return nil
	},
}

var systemDiscoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find stores on the local network",
	Long:  `Listen for servers started with ENABLE_DISCOVERY=true. With --save the first one found becomes the configured server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Listening on %s for %s...\n", discoverAddr, discoverTimeout)

		ctx, cancel := context.WithTimeout(cmd.Context(), discoverTimeout)
		defer cancel()
		found, err := discovery.Listen(ctx, discoverAddr)
		if err != nil {
			printError("Discovery failed: " + err.Error())
			return err
		}
		if len(found) == 0 {
			fmt.Println("No servers found")
			return nil
		}

		for _, a := range found {
			fmt.Printf("\n%s (seen %s)\n", a.LocalIP, a.Timestamp.Format(time.Kitchen))
			for _, name := range []string{"http", "websocket", "grpc"} {
				if u, ok := a.Services[name]; ok {
					fmt.Printf("  %s: %s\n", name, u)
				}
			}
		}

		if discoverSave {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cfg.Server.Host = found[0].LocalIP
			if err := config.Save(cfg); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			printSuccess("Server set to " + cfg.ServerURL())
		}
		return nil
	},
}

func init() {
	systemDiscoverCmd.Flags().StringVar(&discoverAddr, "addr", ":9099", "UDP address to listen on")
	systemDiscoverCmd.Flags().DurationVar(&discoverTimeout, "timeout", 6*time.Second, "How long to listen")
	systemDiscoverCmd.Flags().BoolVar(&discoverSave, "save", false, "Use the first server found")

	systemCmd.AddCommand(systemInfoCmd)
	systemCmd.AddCommand(systemDiscoverCmd)
}
