package commands

import (
	"errors"

	"github.com/HendryAvila/stitch/internal/gitref"
	"github.com/HendryAvila/stitch/internal/printer"
	"github.com/spf13/cobra"
)

var linkNoVerify bool

var linkCmd = &cobra.Command{
	Use:   "link <id> <commit-or-range>...",
	Short: "Link commits to a stitch",
	Long: `Link commits to a stitch.

Each reference is a commit (any revision git understands) or an a..b range.
References are resolved with git and stored as full SHAs; nothing is linked
unless every reference resolves. Use --no-verify to store them verbatim.`,
	Example: `  stitch link 0199a1b2-... HEAD
  stitch link 0199a1b2-... main..feature/retry`,
	Args: cobra.MinimumNArgs(2),
	RunE: runLink,
}

func init() {
	linkCmd.Flags().BoolVar(&linkNoVerify, "no-verify", false, "Store references without resolving them with git")
	rootCmd.AddCommand(linkCmd)
}

func runLink(cmd *cobra.Command, args []string) error {
	ws, done, err := openWorkspace()
	if err != nil {
		return err
	}
	defer done()

	res, err := ws.Link(cmd.Context(), args[0], args[1:], !linkNoVerify)
	if err != nil {
		if errors.Is(err, gitref.ErrNotRepository) {
			return printer.Error("Not a git repository", err.Error(),
				[]string{"Run stitch inside a git work tree, or re-run with --no-verify."})
		}
		return failure(err)
	}

	for _, ref := range res.Added {
		printer.Success("Linked %s\n", ref)
	}
	for _, ref := range res.Existing {
		printer.Faint("  already linked: %s\n", ref)
	}
	printer.Info("%s now has %d linked reference(s)\n", res.Stitch.ID, len(res.Stitch.Git.Links))
	return nil
}
