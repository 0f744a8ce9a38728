package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Build-time variables set via ldflags.
var (
	version   = "0.1.0"
	commit    = ""
	buildDate = ""
)

var flagConfig string

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("propfair-ingest version %s (commit: %s, built: %s)", version, commit, buildDate)
	}

	return fmt.Sprintf("propfair-ingest version %s-dev", version)
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}

	log.SetLevel(lvl)

	return log
}

func main() {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load() //nolint:errcheck

	rootCmd := &cobra.Command{
		Use:          "propfair-ingest",
		Short:        "Propfair ingester — reconciles scraped listing records into PostgreSQL",
		Version:      versionString(),
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "optional YAML config file")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newMigrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
