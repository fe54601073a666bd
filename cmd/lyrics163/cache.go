package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lthero-big/163MusicLyricsDownloader/internal/data/sqlite"
)

func newCacheCmd(stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the SQLite resolution cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init <path>",
		Short: "Create the cache database (no-op if it exists)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sqlite.Init(args[0]); err != nil {
				return fmt.Errorf("initializing cache: %w", err)
			}
			fmt.Fprintf(stdout, "Cache created: %s\n", args[0])
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "stats <path>",
		Short: "Print cache and run history counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := sqlite.Open(args[0])
			if err != nil {
				return err
			}
			defer db.Close()
			s, err := db.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Resolutions: %d\nRuns: %d\nSongs: %d\n", s.Resolutions, s.Runs, s.Songs)
			if r := s.LastRun; r != nil {
				fmt.Fprintf(stdout, "Last run: %s started %s (%d entries, %d resolved, %d unresolved)\n",
					r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Entries, r.Resolved, r.Unresolved)
			}
			return nil
		},
	})
	return cmd
}
