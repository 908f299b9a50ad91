package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"cursorflow/internal/config"
	"cursorflow/internal/log"
	"cursorflow/pkg/api"
)

var rootCmd = &cobra.Command{
	Use:   "cursorflow",
	Short: "Replay recorded walkthroughs as a guided tour in a live browser",
	Long: `cursorflow attaches to a running browser over the DevTools protocol,
loads a recorded interaction session and guides the viewer through it:
a simulated cursor points at each recorded element, the element is
highlighted, and the tour advances when the viewer actually clicks it.`,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a yaml config file")
	rootCmd.PersistentFlags().String("devtools-url", "", "Browser DevTools endpoint (default http://127.0.0.1:9222)")
	rootCmd.PersistentFlags().String("base-url", "", "Base URL serving recording documents")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error")
}

// setup loads config, applies flag overrides and builds the service.
func setup(cmd *cobra.Command) (*config.Config, zerolog.Logger, api.Service, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}
	if v, _ := cmd.Flags().GetString("devtools-url"); v != "" {
		cfg.DevToolsURL = v
	}
	if v, _ := cmd.Flags().GetString("base-url"); v != "" {
		cfg.RecordingBaseURL = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}

	logger := log.New(cfg.Log.Level, cfg.Log.Writer, cfg.Log.File)
	svc, err := api.NewService(cfg, logger)
	if err != nil {
		return nil, logger, nil, err
	}
	return cfg, logger, svc, nil
}
