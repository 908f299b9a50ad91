package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List the recordings available on the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, svc, err := setup(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		refs, err := svc.Sessions(context.Background())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SESSION\tRECORDED")
		for _, ref := range refs {
			recorded := ""
			if ref.Timestamp > 0 {
				recorded = time.UnixMilli(ref.Timestamp).Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(w, "%s\t%s\n", ref.ID, recorded)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}
