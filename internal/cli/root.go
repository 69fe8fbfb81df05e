// Package cli defines the botboard command tree. Every command resolves
// configuration the same way through the root's PersistentPreRunE.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"botboard/internal/app"
	"botboard/internal/cfg"
	"botboard/internal/logging"
)

var (
	cfgFile   string
	logLevel  string
	appHandle *app.App
)

var rootCmd = &cobra.Command{
	Use:   "botboard",
	Short: "Dashboard and toolbox for the trading bot",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if appHandle != nil {
			return nil
		}

		// Optional .env keeps local runs out of the shell profile.
		_ = godotenv.Load(".env")

		settings, err := cfg.Load(cfgFile)
		if err != nil {
			return err
		}

		if logLevel != "" {
			settings.Logging.Level = logLevel
		}

		logger := logging.NewLogger(settings.Logging)
		appHandle = app.NewApp(settings, logger)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level defined in config")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(tradesCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(versionCmd)
}

func getApp() *app.App {
	if appHandle == nil {
		panic("application not initialized; PersistentPreRunE not executed")
	}
	return appHandle
}
