package cmd

import (
	"fmt"
	"os"

	"s3-compare/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "s3-compare",
	Short: "Reconcile the key sets of two S3 buckets via their inventory exports",
	Long: `s3-compare reconciles the key-existence sets of two large buckets without
listing them. It registers each bucket's S3 Inventory export as an Athena
table, joins the two on key name, and writes the keys present in one bucket
but missing from the other to a local file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Use the application's standard logger for error reporting
		// We default to console format to match user expectations (CLI tool)
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			// Absolute fallback if logger creation fails (rare)
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
