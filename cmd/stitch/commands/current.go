package commands

import (
	"fmt"

	"github.com/HendryAvila/stitch/internal/current"
	"github.com/HendryAvila/stitch/internal/lifecycle"
	"github.com/HendryAvila/stitch/internal/printer"
	"github.com/spf13/cobra"
)

var currentClear bool

var currentCmd = &cobra.Command{
	Use:   "current [id]",
	Short: "Show, set, or clear the current stitch",
	Long: `Show, set, or clear the current stitch.

Commands that take an optional ID (show, finish) fall back to the current
stitch. Finishing the current stitch, or an ancestor of it, clears it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCurrent,
}

func init() {
	currentCmd.Flags().BoolVar(&currentClear, "clear", false, "Clear the current stitch")
	rootCmd.AddCommand(currentCmd)
}

func runCurrent(cmd *cobra.Command, args []string) error {
	if currentClear && len(args) > 0 {
		return printer.Error("Conflicting arguments", "Pass either an ID or --clear, not both.", nil)
	}

	ws, done, err := openWorkspace()
	if err != nil {
		return err
	}
	defer done()

	switch {
	case currentClear:
		if err := current.Clear(ws.Root); err != nil {
			return err
		}
		printer.Success("Current stitch cleared\n")
		return nil

	case len(args) == 1:
		id := args[0]
		if !ws.Store.Exists(id) {
			return failure(fmt.Errorf("%w: %q", lifecycle.ErrNotFound, id))
		}
		if err := current.Set(ws.Root, id); err != nil {
			return err
		}
		printer.Success("Current stitch set to %s\n", id)
		return nil
	}

	id, err := current.Get(ws.Root)
	if err != nil {
		return err
	}
	if id == "" {
		printer.Info("No current stitch.\n")
		return nil
	}
	s, err := ws.Store.Load(id)
	if err != nil {
		printer.Warning("Current stitch %s cannot be loaded: %v\n", id, err)
		return nil
	}
	printStitchLine(s, "")
	return nil
}
