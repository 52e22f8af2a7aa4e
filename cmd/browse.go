package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/SBrookhart/side-quest-generator/internal/tui"
)

var flagBrowseDate string

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse stored quests day by day",
	Long:  "Open the two-pane quest browser on a date (default today) and page through earlier days.",
	RunE:  runBrowse,
}

func init() {
	browseCmd.Flags().StringVar(&flagBrowseDate, "date", "", "day to open (YYYY-MM-DD, default today)")
}

func runBrowse(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	day := flagBrowseDate
	if day != "" {
		if _, err := time.Parse(time.DateOnly, day); err != nil {
			return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", day)
		}
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	return tui.Run(tui.RunOpts{
		Batches: st,
		Date:    day,
		Today:   cfg.Today(),
	})
}
