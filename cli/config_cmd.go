package cli

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/appser/appser-store/cli/config"
	"github.com/appser/appser-store/internal/render"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and modify the appser client configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration values.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Println("Current Configuration:")
		fmt.Println("----------------------")

		v := reflect.ValueOf(*cfg)
		t := v.Type()

		for i := 0; i < v.NumField(); i++ {
			field := v.Field(i)
			typeField := t.Field(i)

			fmt.Printf("[%s]\n", strings.ToLower(typeField.Name))
			if field.Kind() == reflect.Struct {
				for j := 0; j < field.NumField(); j++ {
					subTypeField := field.Type().Field(j)
					tag := subTypeField.Tag.Get("yaml")
					if tag == "" {
						tag = subTypeField.Name
					}
					value := field.Field(j).Interface()
					if tag == "token" && value != "" {
						value = "********"
					}
					fmt.Printf("  %s: %v\n", tag, value)
				}
			}
			fmt.Println()
		}

		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long:  `Set a configuration value. Key should be in format 'section.key' (e.g., server.host).`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := setConfigValue(cfg, args[0], args[1]); err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		printSuccess(fmt.Sprintf("Updated %s to %s", args[0], args[1]))
		return nil
	},
}

func setConfigValue(cfg *config.Config, key, value string) error {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return fmt.Errorf("invalid key format. Use 'section.key'")
	}

	section := strings.ToLower(parts[0])
	k := strings.ToLower(parts[1])

	switch section + "." + k {
	case "server.host":
		cfg.Server.Host = value
	case "server.http_port":
		v, err := strconv.Atoi(value)
		if err != nil || v <= 0 || v > 65535 {
			return fmt.Errorf("invalid port for http_port")
		}
		cfg.Server.HTTPPort = v
	case "server.scheme":
		if value != "http" && value != "https" {
			return fmt.Errorf("scheme must be http or https")
		}
		cfg.Server.Scheme = value
	case "votes.path":
		cfg.Votes.Path = value
	case "display.locale":
		if render.NewFormatter(value).Locale() != value {
			return fmt.Errorf("unsupported locale: %s", value)
		}
		cfg.Display.Locale = value
	case "logging.level":
		cfg.Logging.Level = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
