package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"contactcleaner/pkg/logger"
)

var (
	version  = "0.1.0"
	logLevel string
	rootCmd  = &cobra.Command{
		Use:   "contactclean",
		Short: "Clean contact CSV files from the command line",
		Long: `contactclean runs the contact cleaning pipeline over CSV files on disk.

It applies the same stages as the contactcleaner service: whitespace trimming,
name checks, title casing, email and phone normalization, deduplication and
projection onto the essential contact columns.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", logger.WARN, "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newCleanCmd())
	rootCmd.AddCommand(newClassifyCmd())
	rootCmd.AddCommand(newStagesCmd())
}

func newLogger(cmd *cobra.Command) *logger.Logger {
	return logger.New(logger.Config{
		Level:  logLevel,
		Format: logger.TEXT,
		Output: cmd.ErrOrStderr(),
	})
}
