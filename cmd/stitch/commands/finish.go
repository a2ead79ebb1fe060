package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/HendryAvila/stitch/internal/lifecycle"
	"github.com/HendryAvila/stitch/internal/printer"
	"github.com/HendryAvila/stitch/internal/stitch"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	finishStatus       string
	finishSupersededBy string
	finishForce        bool
	finishYes          bool
)

// stdinIsTerminal and confirm are package-level vars for testability.
var (
	stdinIsTerminal = func() bool {
		return term.IsTerminal(int(os.Stdin.Fd()))
	}
	confirm = func(title, description string) (bool, error) {
		var ok bool
		err := huh.NewConfirm().
			Title(title).
			Description(description).
			Affirmative("Finish").
			Negative("Cancel").
			Value(&ok).
			Run()
		return ok, err
	}
)

var finishCmd = &cobra.Command{
	Use:   "finish [id]",
	Short: "Finish a stitch and all its descendants",
	Long: `Finish a stitch and apply the same terminal status to all its descendants.

The whole subtree is written as one operation: if any write fails, every
file already written is restored.

Without --status, a stitch with linked commits and no open descendants is
closed. One with no linked commits, or with open descendants, is treated as
abandoned and needs --force, so unfinished work is never closed by accident.

When more than one stitch would change, the preview is shown and you are
asked to confirm. Use --yes to skip the question; without a terminal,
--yes is required.

Without an ID, the current stitch is finished.`,
	Example: `  stitch finish
  stitch finish 0199a1b2-... --status superseded --superseded-by 0199c3d4-...
  stitch finish 0199a1b2-... --status abandoned --yes`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFinish,
}

func init() {
	finishCmd.Flags().StringVarP(&finishStatus, "status", "s", "", "Terminal status: closed, superseded, or abandoned")
	finishCmd.Flags().StringVar(&finishSupersededBy, "superseded-by", "", "ID of the stitch replacing this one (with --status superseded)")
	finishCmd.Flags().BoolVarP(&finishForce, "force", "f", false, "Finish even though the work looks incomplete")
	finishCmd.Flags().BoolVarP(&finishYes, "yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(finishCmd)
}

func runFinish(cmd *cobra.Command, args []string) error {
	ws, done, err := openWorkspace()
	if err != nil {
		return err
	}
	defer done()

	id, err := ws.ResolveID(firstArg(args))
	if err != nil {
		return noTarget(err)
	}

	preview, err := ws.Engine.Prepare(cmd.Context(), id, lifecycle.Options{
		Status:       stitch.Status(finishStatus),
		SupersededBy: finishSupersededBy,
		Force:        finishForce,
	})
	if err != nil {
		return failure(err)
	}

	printPreview(preview)

	if preview.ForceRequired != "" {
		return printer.ErrorWithContext(
			"Finish needs --force",
			preview.ForceRequired,
			map[string]string{
				"Stitch":       preview.Target.ID,
				"Would finish": string(preview.FinalStatus),
			},
			[]string{
				"Link the missing commits with `stitch link` and finish the open children first.",
				"Re-run with --force to finish as shown.",
			},
			"Stitch", "Would finish",
		)
	}

	if preview.RequiresConfirmation && !finishYes {
		if !stdinIsTerminal() {
			return printer.Error(
				"Confirmation required",
				fmt.Sprintf("This finish changes %d stitches and stdin is not a terminal.", len(preview.Affected)),
				[]string{"Re-run with --yes to apply it."},
			)
		}
		ok, err := confirm(
			fmt.Sprintf("Finish %d stitches as %s?", len(preview.Affected), preview.FinalStatus),
			"The target and every affected descendant are updated together.",
		)
		if err != nil && !errors.Is(err, huh.ErrUserAborted) {
			return err
		}
		if !ok {
			printer.Info("Finish cancelled. Nothing was changed.\n")
			return nil
		}
	}

	res, err := ws.Engine.Execute(cmd.Context(), preview, lifecycle.ExecuteOptions{Force: finishForce})
	if err != nil {
		return failure(err)
	}
	cleared := ws.AfterFinish(res)

	printer.Println()
	printer.Success("Finished %d stitch(es) as %s\n", len(res.Finished), res.FinalStatus)
	if cleared != "" {
		printer.Step("Current stitch %s was finished and has been cleared\n", cleared)
	}
	return nil
}

// printPreview shows what a finish will do before anything is written.
func printPreview(p *lifecycle.Preview) {
	printer.Heading("Finish %s\n", p.Target.ID)
	printer.Printf("  %s\n", p.Target.Title)

	status := printer.Status(p.FinalStatus)
	if p.AutoDetected {
		status += " (auto-detected)"
	}
	printer.Printf("  final status: %s\n", status)
	if p.SupersededBy != "" {
		printer.Printf("  superseded by: %s\n", p.SupersededBy)
	}

	printer.Printf("\nWill update (%d):\n", len(p.Affected))
	for _, s := range p.Affected {
		printer.Printf("  %s  %s → %s  %s\n", s.ID, printer.Status(s.Status), printer.Status(p.FinalStatus), s.Title)
	}
	for _, w := range p.Warnings {
		printer.Warning("%s\n", w)
	}
}
