package commands

import (
	"strings"

	"github.com/HendryAvila/stitch/internal/printer"
	"github.com/HendryAvila/stitch/internal/workspace"
	"github.com/spf13/cobra"
)

var (
	newParent     string
	newDependsOn  []string
	newTags       []string
	newBody       string
	newSetCurrent bool
)

var newCmd = &cobra.Command{
	Use:   "new <title>",
	Short: "Create a stitch",
	Long: `Create a stitch with a one-line statement of intent.

The title may be given as several words without quoting.`,
	Example: `  stitch new add retry to the upload client --current
  stitch new "handle 429 responses" --parent 0199a1b2-... --tag http`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNew,
}

func init() {
	newCmd.Flags().StringVarP(&newParent, "parent", "p", "", "Parent stitch ID")
	newCmd.Flags().StringSliceVarP(&newDependsOn, "depends", "d", nil, "ID of a stitch this one depends on (repeatable)")
	newCmd.Flags().StringSliceVarP(&newTags, "tag", "t", nil, "Tag (repeatable)")
	newCmd.Flags().StringVar(&newBody, "body", "", "Markdown body")
	newCmd.Flags().BoolVar(&newSetCurrent, "current", false, "Make the new stitch the current one")
	rootCmd.AddCommand(newCmd)
}

func runNew(cmd *cobra.Command, args []string) error {
	ws, done, err := openWorkspace()
	if err != nil {
		return err
	}
	defer done()

	s, err := ws.Create(cmd.Context(), workspace.NewParams{
		Title:      strings.Join(args, " "),
		Parent:     newParent,
		DependsOn:  newDependsOn,
		Tags:       newTags,
		Body:       newBody,
		SetCurrent: newSetCurrent,
	})
	if err != nil {
		return failure(err)
	}

	printer.Success("Created %s\n", s.ID)
	printer.Info("  %s\n", s.Title)
	if s.Relations.Parent != "" {
		printer.Faint("  parent: %s\n", s.Relations.Parent)
	}
	if newSetCurrent {
		printer.Step("Current stitch set to %s\n", s.ID)
	}
	return nil
}
