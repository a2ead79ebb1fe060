package commands

import (
	"fmt"

	"github.com/HendryAvila/stitch/internal/current"
	"github.com/HendryAvila/stitch/internal/printer"
	"github.com/HendryAvila/stitch/internal/stitch"
	"github.com/spf13/cobra"
)

var (
	listStatus string
	listParent string
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stitches",
	Long:    `List stitches, oldest first. The current stitch is marked with *.`,
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func init() {
	listCmd.Flags().StringVarP(&listStatus, "status", "s", "", "Only list stitches with this status (open, closed, superseded, abandoned)")
	listCmd.Flags().StringVarP(&listParent, "parent", "p", "", "Only list direct children of this stitch")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	filter := stitch.Filter{Status: stitch.Status(listStatus), Parent: listParent}
	if filter.Status != "" {
		if err := stitch.ValidateStatus(filter.Status); err != nil {
			return printer.Error("Invalid status", err.Error(), nil)
		}
	}

	ws, done, err := openWorkspace()
	if err != nil {
		return err
	}
	defer done()

	list, err := ws.Store.List(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("listing stitches: %w", err)
	}
	if len(list) == 0 {
		printer.Info("No stitches found.\n")
		return nil
	}

	cur, err := current.Get(ws.Root)
	if err != nil {
		return err
	}
	for i := range list {
		marker := "  "
		if list[i].ID == cur {
			marker = "* "
		}
		printStitchLine(&list[i], marker)
	}
	return nil
}
