package commands

import (
	"github.com/HendryAvila/stitch/internal/config"
	"github.com/HendryAvila/stitch/internal/index"
	"github.com/HendryAvila/stitch/internal/printer"
	"github.com/HendryAvila/stitch/internal/stitch"
	"github.com/HendryAvila/stitch/internal/workspace"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a stitch project in the current directory",
	Long: `Initialize a stitch project in the current directory.

Creates:
  • .stitch/stitches/ - one markdown file per stitch
  • .stitch/config.yaml - project configuration
  • .stitch/index.json - parent/child index (safe to delete, it is rebuilt)

Running init on an existing project keeps its stitches and config and
rebuilds the index.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := projectDir()
	if err != nil {
		return err
	}

	root, found := config.FindRoot(dir)
	existed := found && root == dir
	ws, err := workspace.Init(cmd.Context(), dir)
	if err != nil {
		return err
	}
	defer ws.Close()

	if existed {
		printer.Success("Reinitialized stitch project in %s\n", stitch.StatePath(dir))
	} else {
		printer.Success("Initialized stitch project in %s\n", stitch.StatePath(dir))
	}
	printer.Step("Config: %s\n", config.Path(dir))
	printer.Step("Index:  %s\n", index.Path(dir))
	if ws.Journal != nil {
		printer.Step("Journal: %s\n", ws.Journal.Path())
	}
	printer.Println()
	printer.Info("Next: stitch new \"what you are about to do\" --current\n")
	return nil
}
