package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent playback runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, svc, err := setup(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := svc.History(limit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tSESSION\tSTEPS\tOUTCOME")
		for _, r := range runs {
			outcome := r.Outcome
			if outcome == "" {
				outcome = "running"
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
				r.StartedAt.Format("2006-01-02 15:04:05"), r.SessionID, r.StepsPlayed, outcome)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().Int("limit", 20, "Maximum runs to list")
}
