package main

import (
	"context"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear saved playback state and remove overlay remnants",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, logger, svc, err := setup(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		if err := svc.Reset(context.Background()); err != nil {
			return err
		}
		logger.Info().Msg("playback state cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
