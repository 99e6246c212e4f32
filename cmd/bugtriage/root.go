package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/bugtriage/internal/config"
	"github.com/ShayCichocki/bugtriage/internal/logging"
)

var (
	configPath string
	logLevel   string
	logFormat  string

	// cfg is loaded before every subcommand runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "bugtriage",
	Short: "Automated test failure triage",
	Long: `bugtriage turns raw automated-test failure reports into structured
bug verdicts: title, description, category, severity, flakiness,
confidence and a routing label.

Reports are JSON objects with test_name, file_path, error_message,
stack_trace and logs. Triage them one-off with 'run', serve the HTTP
API with 'serve', or drop files into a directory with 'watch'.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.config/bugtriage/config.yaml + .bugtriage.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logging.Init(level, cfg.Log.Format)
	return nil
}
