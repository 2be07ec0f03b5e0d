package cli

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"zonix/internal/config"
	"zonix/internal/security"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate the simulation configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				redacted, err := redactedConfig(app.Config)
				if err != nil {
					return err
				}
				return output.JSON(redacted)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			path := app.Config.File
			if path == "" {
				path = config.DefaultConfigPath()
			}
			if output.IsJSON() {
				output.JSON(map[string]string{"path": path})
			} else {
				output.Println(path)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Simulation")
	output.Printf("  District Band:    %s - %s\n", FormatPrice(cfg.Simulation.MinPrice), FormatPrice(cfg.Simulation.MaxPrice))
	output.Printf("  State Scale:      %s\n", FormatIndex(cfg.Simulation.StateScale))
	output.Printf("  Bharat Baseline:  %s\n", FormatIndex(cfg.Simulation.NationwideBaseline))
	output.Printf("  Bharat Scale:     %.2f\n", cfg.Simulation.NationwideScale)
	output.Printf("  Tick Interval:    %s\n", cfg.Simulation.TickInterval)
	output.Println()

	output.Bold("Ticker Tape")
	output.Printf("  Enabled:          %v\n", cfg.Tape.Enabled)
	output.Printf("  Interval:         %s\n", cfg.Tape.Interval)
	output.Printf("  Max Move:         %.2f%%\n", cfg.Tape.MaxChangePercent)
	output.Println()

	output.Bold("F&O Analytics")
	output.Printf("  Spot Quantum:     %.2f\n", cfg.FNO.SpotQuantum)
	output.Printf("  Expiries:         %d\n", cfg.FNO.Expiries)
	output.Printf("  Cache:            %s\n", cfg.FNO.Cache)
	if cfg.FNO.Cache == config.CacheRedis {
		output.Printf("  Redis:            %s (db %d, ttl %s)\n", cfg.FNO.Redis.Addr, cfg.FNO.Redis.DB, cfg.FNO.Redis.TTL)
		if cfg.FNO.Redis.Password != "" {
			output.Printf("  Redis Password:   %s\n", security.MaskCredential(cfg.FNO.Redis.Password))
		}
	}
	output.Println()

	output.Bold("Server")
	output.Printf("  Address:          %s\n", cfg.Server.Addr)
	output.Printf("  CORS Origins:     %s\n", strings.Join(cfg.Server.CORSOrigins, ", "))
	output.Printf("  F&O Rate Limit:   %.0f/s (burst %d)\n", cfg.Server.RateLimit, cfg.Server.RateBurst)
	output.Println()

	output.Bold("History")
	output.Printf("  Enabled:          %v\n", cfg.History.Enabled)
	output.Printf("  Path:             %s\n", cfg.History.Path)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:            %s\n", cfg.Logging.Level)
	output.Printf("  File:             %s\n", cfg.Logging.File)

	return nil
}

// redactedConfig renders cfg as a generic map with secrets masked.
func redactedConfig(cfg *config.Config) (map[string]interface{}, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return security.RedactMap(m), nil
}
