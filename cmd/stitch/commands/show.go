package commands

import (
	"strings"

	"github.com/HendryAvila/stitch/internal/printer"
	"github.com/HendryAvila/stitch/internal/stitch"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a stitch and its children",
	Long:  `Show a stitch and its direct children. Without an ID, shows the current stitch.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	ws, done, err := openWorkspace()
	if err != nil {
		return err
	}
	defer done()

	id, err := ws.ResolveID(firstArg(args))
	if err != nil {
		return noTarget(err)
	}
	d, err := ws.Show(cmd.Context(), id)
	if err != nil {
		return failure(err)
	}

	s := d.Stitch
	printer.Heading("%s\n", s.Title)
	printer.Printf("  id:       %s\n", s.ID)
	printer.Printf("  status:   %s\n", printer.Status(s.Status))
	printer.Printf("  created:  %s\n", s.CreatedAt)
	printer.Printf("  updated:  %s\n", s.UpdatedAt)
	if s.Relations.Parent != "" {
		printer.Printf("  parent:   %s\n", s.Relations.Parent)
	}
	if len(s.Relations.DependsOn) > 0 {
		printer.Printf("  depends:  %s\n", strings.Join(s.Relations.DependsOn, ", "))
	}
	if len(s.Tags) > 0 {
		printer.Printf("  tags:     %s\n", strings.Join(s.Tags, ", "))
	}

	if len(s.Git.Links) > 0 {
		printer.Printf("\nCommits (%d):\n", len(s.Git.Links))
		for _, l := range s.Git.Links {
			printer.Printf("  %s\n", l)
		}
	} else {
		printer.Faint("\nNo linked commits.\n")
	}

	if len(d.Children) > 0 || len(d.Missing) > 0 {
		printer.Printf("\nChildren (%d):\n", len(d.Children)+len(d.Missing))
		for _, c := range d.Children {
			printStitchLine(c, "  ")
		}
		for _, id := range d.Missing {
			printer.Warning("%s is in the index but has no document (run `stitch index rebuild`)\n", id)
		}
	}

	if body := strings.TrimSpace(s.Body); body != "" {
		printer.Printf("\n%s\n", body)
	}
	return nil
}

// printStitchLine prints one stitch as "<id>  <status>  <title>".
func printStitchLine(s *stitch.Stitch, indent string) {
	pad := strings.Repeat(" ", max(0, len(stitch.StatusSuperseded)-len(s.Status)))
	printer.Printf("%s%s  %s%s  %s\n", indent, s.ID, printer.Status(s.Status), pad, s.Title)
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// noTarget explains a missing ID argument with no current stitch to fall
// back on.
func noTarget(err error) error {
	return printer.Error("No stitch given", err.Error(), []string{
		"Pass a stitch ID.",
		"Set one with `stitch current <id>`.",
	})
}
