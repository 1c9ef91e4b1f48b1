package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past runs recorded in the journal",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, _ []string) error {
	store, err := openJournal()
	if err != nil {
		return fmt.Errorf("cannot open history journal: %w", err)
	}
	defer store.Close()

	records, err := store.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if len(records) == 0 {
		fmt.Fprintln(out, "no recorded runs")
		return nil
	}

	for _, rec := range records {
		var total, completed, failed, skipped int
		for _, stats := range rec.Stats {
			total += stats.Total
			completed += stats.Completed
			failed += stats.Failed
			skipped += stats.Skipped
		}

		fmt.Fprintf(out, "%s  %s (%s)  versions=%s  total=%d completed=%d failed=%d skipped=%d\n",
			rec.StartedAt.Local().Format("2006-01-02 15:04:05"),
			rec.ConfigPath,
			rec.Loader,
			strings.Join(rec.GameVersions, ","),
			total, completed, failed, skipped,
		)

		for _, name := range rec.Failed {
			fmt.Fprintf(out, "    failed:  %s\n", name)
		}
		for _, name := range rec.Skipped {
			fmt.Fprintf(out, "    skipped: %s\n", name)
		}
	}

	return nil
}
