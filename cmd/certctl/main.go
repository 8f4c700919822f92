// Command certctl mints development caller tokens, drives the certledger API
// and follows the published event log.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"certledger/internal/platform/logger"
)

const programName = "certctl"

var globalFlags = struct {
	server string
	token  string
	debug  bool
}{}

func commonLogger() *slog.Logger {
	level := "info"
	if globalFlags.debug {
		level = "debug"
	}
	return logger.NewWithWriter(os.Stderr, level)
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Operate a certledger registry",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().
		StringVar(&globalFlags.server, "server", envOr("CERTLEDGER_API_URL", "http://localhost:8080"), "registry API base URL")
	rootCmd.PersistentFlags().
		StringVar(&globalFlags.token, "token", os.Getenv("CERTLEDGER_TOKEN"), "bearer token for write operations")
	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")

	rootCmd.AddCommand(tokenCommand())
	rootCmd.AddCommand(certificateCommand())
	rootCmd.AddCommand(issuerCommand())
	rootCmd.AddCommand(eventsCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, programName+":", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
