package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/stepflow/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "stepflow",
	Short: "Stepflow runs multi-step data collection flows",
	Long:  `Stepflow compiles YAML flow definitions into sessions and runs them interactively or as an HTTP service.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Emit logs as JSON")
}

// loggerFromFlags builds the process logger from the persistent flags.
func loggerFromFlags(cmd *cobra.Command) *slog.Logger {
	levelName, _ := cmd.Flags().GetString("log-level")
	asJSON, _ := cmd.Flags().GetBool("log-json")

	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		level = slog.LevelInfo
	}
	if asJSON {
		return logging.NewJSON(level)
	}
	return logging.New(level)
}
