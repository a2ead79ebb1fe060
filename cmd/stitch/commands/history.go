package commands

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/stitch/internal/journal"
	"github.com/HendryAvila/stitch/internal/printer"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "Show recorded finishes",
	Long: `Show recorded finishes, newest first. With an ID, only the finishes that
changed that stitch.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of entries")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ws, done, err := openWorkspace()
	if err != nil {
		return err
	}
	defer done()

	if ws.Journal == nil {
		return printer.Error("Journal unavailable",
			"The finish journal is disabled or could not be opened.",
			[]string{"Set journal.enabled: true in .stitch/config.yaml."})
	}

	var entries []journal.Entry
	if id := firstArg(args); id != "" {
		entries, err = ws.Journal.History(cmd.Context(), id, historyLimit)
	} else {
		entries, err = ws.Journal.Recent(cmd.Context(), historyLimit)
	}
	if err != nil {
		return fmt.Errorf("reading journal: %w", err)
	}
	if len(entries) == 0 {
		printer.Info("No finishes recorded.\n")
		return nil
	}

	for _, e := range entries {
		var flags []string
		if e.AutoDetected {
			flags = append(flags, "auto")
		}
		if e.Forced {
			flags = append(flags, "forced")
		}
		note := ""
		if len(flags) > 0 {
			note = " (" + strings.Join(flags, ", ") + ")"
		}
		printer.Faint("%s  ", e.FinishedAt)
		printer.Printf("%s  %s → %s%s  %s\n", e.StitchID, e.FromStatus, printer.Status(e.ToStatus), note, e.Title)
	}
	return nil
}
