// =============================================================================
// Contas Publicas - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (contas)
//   ├── snapshotCmd (contas snapshot)
//   ├── forecastCmd (contas forecast)
//   ├── validateCmd (contas validate)
//   └── versionCmd  (contas version)
//
// Before any subcommand runs, the root command:
//   1. Loads .env (optional) so secrets can stay out of config.yaml
//   2. Loads the configuration (a missing config.yaml means defaults)
//   3. Creates the run id and the structured logger
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/contas-publicas/internal/config"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose enables debug logging.
var verbose bool

// Set by loadRuntime before any subcommand runs.
var (
	mainConfig *config.MainConfig
	logger     *slog.Logger
	runID      string
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "contas",
	Short: "Contas Publicas - municipal budget execution snapshot and spending forecast",
	Long: `Contas Publicas reads the monthly budget execution exports of the municipal
accounting system (';' separated, ISO-8859-1) and:

  - summarizes the current month (totals, execution %, rankings)
  - builds a monthly series from the history directory
  - forecasts the next months, globally and per função

Example Usage:
  contas snapshot                         # Totals of the current export
  contas snapshot --funcao "Saúde"        # Filtered by função
  contas forecast --horizon 3 --format xlsx
  contas validate dados/historico/*.txt   # Check headers and file names`,
	SilenceUsage:      true,
	PersistentPreRunE: loadRuntime,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// =============================================================================
// RUNTIME INITIALIZATION
// =============================================================================

func loadRuntime(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return err
	}
	mainConfig = cfg

	level := parseLevel(cfg.LogLevel)
	if verbose {
		level = slog.LevelDebug
	}

	runID = uuid.NewString()
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})).
		With("run_id", runID)

	logger.Debug("configuration loaded", "config", cfgFile, "target", cfg.TargetField, "history_dir", cfg.HistoryDir)
	return nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
