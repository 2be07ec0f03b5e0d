package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"zonix/internal/config"
	"zonix/internal/logging"
)

// Version information
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
)

// App holds the application dependencies shared by every command.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd() *cobra.Command {
	app := &App{Logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "zonix",
		Short: "ZONIX - synthetic Indian district market simulation",
		Long: `ZONIX simulates a synthetic market of district tokens across Indian states.

District prices random-walk inside a fixed band. Each state index tracks the
mean of its districts and the Bharat index tracks the mean of the states.
Futures and options analytics are derived from any index on demand.

Use 'zonix serve' to run the live simulation with its HTTP and WebSocket API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory or file (default: ~/.config/zonix)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newSimulateCmd(app))
	rootCmd.AddCommand(newFNOCmd(app))
	rootCmd.AddCommand(newTapeCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))

	return rootCmd
}

// setup loads configuration and builds the logger.
func (app *App) setup(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}
	app.Config = cfg

	level := cfg.Logging.Level
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = "debug"
	}
	app.Logger = logging.NewLoggerWithConfig(logging.LogConfig{
		Level:      level,
		Console:    cfg.Logging.Console,
		File:       cfg.Logging.File != "",
		FilePath:   cfg.Logging.File,
		MaxSize:    100,
		MaxBackups: 7,
		MaxAge:     30,
		NoColor:    !cfg.UI.ColorEnabled,
		Out:        cmd.ErrOrStderr(),
	})
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load("")
	}
	path = config.ExpandPath(path)
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return config.Load(path)
	}
	return config.LoadFile(path)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// no config needed
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("ZONIX v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

// PrintError reports a command failure on stderr.
func PrintError(cmd *cobra.Command, err error) {
	output := &Output{writer: cmd.ErrOrStderr()}
	output.Error("Error: %v", err)
}
