package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play [session-id]",
	Short: "Play a recorded session in the attached browser",
	Long: `Attaches to the browser and replays a recorded session. Without a
session id the newest recording on the server is played. Runs until the
tour completes, the viewer presses the stop button, or the process is
interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, logger, svc, err := setup(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		sessionID := ""
		if len(args) > 0 {
			sessionID = args[0]
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		err = svc.Play(ctx, sessionID)
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("interrupted")
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
}
