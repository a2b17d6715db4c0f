package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/JAlbrecht-svg/inkasso-console/internal/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the local journal of confirmed writes",
}

var journalFilter struct {
	caseID, kind string
	limit        int
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journal entries, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withJournal(cmd.Context(), func(ctx context.Context, j *journal.Journal) error {
			entries, err := j.Entries(ctx, journal.Filter{
				CaseID: journalFilter.caseID,
				Kind:   journalFilter.kind,
				Limit:  journalFilter.limit,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(out, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "Journal is empty.")
				return nil
			}
			t := newTable(out, "TIME", "KIND", "ENTITY", "CASE", "BY", "SUMMARY")
			for _, e := range entries {
				t.row(e.Timestamp.Format("2006-01-02 15:04:05"), e.Kind, e.EntityID, dash(e.CaseID), e.Actor, e.Summary)
			}
			return t.flush()
		})
	},
}

var journalPruneAge time.Duration

var journalPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete journal entries older than --older-than",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withJournal(cmd.Context(), func(ctx context.Context, j *journal.Journal) error {
			n, err := j.Prune(ctx, time.Now().Add(-journalPruneAge))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries.\n", n)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalListCmd, journalPruneCmd)

	journalListCmd.Flags().StringVar(&journalFilter.caseID, "case", "", "Only entries of this case")
	journalListCmd.Flags().StringVar(&journalFilter.kind, "kind", "", "Only entries of this kind, e.g. payment.created")
	journalListCmd.Flags().IntVar(&journalFilter.limit, "limit", 50, "Maximum number of entries")
	journalPruneCmd.Flags().DurationVar(&journalPruneAge, "older-than", 90*24*time.Hour, "Age of entries to remove")
}

func withJournal(ctx context.Context, fn func(ctx context.Context, j *journal.Journal) error) error {
	path := GetConfig().Journal.Path
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("no journal at %s yet; it is created with the first write", path)
	}
	j, err := journal.Open(path, actor())
	if err != nil {
		return err
	}
	defer j.Close()
	return fn(ctx, j)
}
