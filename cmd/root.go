package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/teemow/meetwise/internal/config"
	"github.com/teemow/meetwise/internal/logging"
)

// DefaultConfigFile is read from the working directory unless --config is given.
const DefaultConfigFile = "meetwise.yaml"

var (
	// version will be set by main
	version = "dev"

	configFile string
	envFile    string
	debugMode  bool
	logFormat  string

	// cfg and logger are populated before any subcommand runs.
	cfg    *config.Config
	logger *slog.Logger
)

// rootCmd represents the base command for the meetwise application
var rootCmd = &cobra.Command{
	Use:   "meetwise",
	Short: "Finds common free time and double bookings across Google Calendars",
	Long: `meetwise schedules meetings across the Google Calendars of several people.

Users share their calendar with a service account once (see "meetwise onboard").
After that meetwise can propose meeting slots inside working hours, report
overlapping events between people and create events on their behalf.

It can run as:
  - An MCP (Model Context Protocol) server for AI assistants ("serve")
  - A command-line tool ("find-slots", "conflicts")`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initialize()
	},
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "meetwise version %s\n" .Version}}`)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", DefaultConfigFile, "Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file loaded before reading the environment (ignored when missing)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newFindSlotsCmd())
	rootCmd.AddCommand(newConflictsCmd())
	rootCmd.AddCommand(newOnboardCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// initialize loads the dotenv file, the configuration and the logger. Logs go
// to stderr so that stdout stays free for the stdio transport.
func initialize() error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	logger = logging.NewLogger(os.Stderr, logFormat, debugMode)
	slog.SetDefault(logger)

	loaded, err := config.Load(configFile, nil)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg = loaded
	logger.Debug("configuration loaded", "path", configFile, "ics_feeds", len(cfg.ICSFeeds))
	return nil
}
