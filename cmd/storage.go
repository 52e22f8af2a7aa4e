package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/SBrookhart/side-quest-generator/internal/config"
	"github.com/SBrookhart/side-quest-generator/internal/daily"
	"github.com/SBrookhart/side-quest-generator/internal/store"
)

var flagArchiveOlderThan string

func openStore() (*store.Store, error) {
	st, err := store.Open(config.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return st, nil
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Move old batches into the archive",
	Long: `Move daily batches older than the archive age into the archive table.

Archived titles still count as history, so they are never repeated. Uses
archive_after from config (default: 30d) unless overridden with --older-than.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, ctx, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		age := cfg.ArchiveDuration()
		if flagArchiveOlderThan != "" {
			age, err = parseAge(flagArchiveOlderThan)
			if err != nil {
				return fmt.Errorf("invalid --older-than value: %w", err)
			}
		}
		cutoff, err := daily.ArchiveCutoff(cfg.Today(), age)
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		moved, err := st.ArchiveBefore(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("archiving: %w", err)
		}

		if moved == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to archive.")
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Archived %d quest(s) from before %s.\n", moved, cutoff)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show quest history statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, ctx, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		dbPath := config.DBPath()
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.Stats(ctx, dbPath)
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}

		w := cmd.OutOrStdout()
		latest := stats.LatestDate
		if latest == "" {
			latest = "none"
		}
		fmt.Fprintf(w, "Store: %s\n", dbPath)
		fmt.Fprintf(w, "Days: %d (latest %s)\n", stats.Dates, latest)
		fmt.Fprintf(w, "Quests: %d daily, %d archived\n", stats.DailyCount, stats.ArchiveCount)
		fmt.Fprintf(w, "Size: %s\n", formatBytes(stats.SizeBytes))
		if stats.LastArchiveCutoff != "" {
			fmt.Fprintf(w, "Last archive: before %s\n", stats.LastArchiveCutoff)
		}

		if stats.LatestDate != "" {
			if run, err := st.LastRun(ctx, stats.LatestDate); err == nil {
				fmt.Fprintf(w, "Last run: %s %s (%d round(s))\n", run.Status, run.FinishedAt.Format("2006-01-02 15:04"), run.Rounds)
			}
		}
		return nil
	},
}

func init() {
	archiveCmd.Flags().StringVar(&flagArchiveOlderThan, "older-than", "", "override archive age (e.g., 30d, 720h)")
}

// parseAge accepts a day count like 30d or any time.ParseDuration string.
func parseAge(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil && days >= 0 {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
