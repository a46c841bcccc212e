package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"librarium/internal/repository/sqlite"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recorded sessions in the observation log",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := sqlite.New(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("open observation log: %w", err)
		}
		defer repo.Close()

		sessions, err := repo.ListSessions(cmd.Context())
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("no recorded sessions")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPROBLEM\tROOMS\tCREATED")
		for _, s := range sessions {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
				s.ID, s.Problem, s.RoomCount, s.CreatedAt.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}
