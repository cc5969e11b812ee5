package cli

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/appser/appser-store/cli/config"
	"github.com/appser/appser-store/internal/auth"
	"github.com/appser/appser-store/pkg/utils"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	tokenOffline bool
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Admin token commands",
	Long:  `Obtain or clear the admin token used by 'appser app import'.`,
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Obtain an admin token",
	Long: `Exchange the server's admin key for an admin token. With --offline the
token is signed locally with the server's JWT secret instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var token string
		if tokenOffline {
			secret, err := readSecret("JWT secret: ")
			if err != nil {
				return err
			}
			token, err = utils.GenerateJWT("cli", utils.RoleAdmin, secret, tokenTTL)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
		} else {
			key, err := readSecret("Admin key: ")
			if err != nil {
				return err
			}
			var res auth.TokenResponse
			if err := newAPIClient(cfg.ServerURL(), "").post("/auth/token", auth.TokenRequest{Key: key}, &res); err != nil {
				printError("Token request failed: " + err.Error())
				return err
			}
			token = res.Token
		}

		if err := config.UpdateAdminToken(token); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}
		printSuccess("Admin token saved")
		return nil
	},
}

var tokenClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the admin token",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Admin.Token != "" {
			// Best effort; the local copy is dropped either way.
			_ = newAPIClient(cfg.ServerURL(), cfg.Admin.Token).post("/auth/logout", nil, nil)
		}
		if err := config.ClearAdminToken(); err != nil {
			return err
		}
		printSuccess("Admin token cleared")
		return nil
	},
}

func init() {
	tokenIssueCmd.Flags().BoolVar(&tokenOffline, "offline", false, "Sign the token locally with the JWT secret")
	tokenIssueCmd.Flags().DurationVar(&tokenTTL, "ttl", auth.DefaultTokenTTL, "Lifetime of an offline token")

	tokenCmd.AddCommand(tokenIssueCmd)
	tokenCmd.AddCommand(tokenClearCmd)
}

func readSecret(prompt string) (string, error) {
	if v := os.Getenv("APPSER_SECRET"); v != "" {
		return v, nil
	}
	fmt.Print(prompt)
	data, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return string(data), nil
}
