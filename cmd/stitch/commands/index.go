package commands

import (
	"encoding/json"

	"github.com/HendryAvila/stitch/internal/printer"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect or rebuild the parent/child index",
	Long: `The index maps each parent stitch to its children. It is a cache derived
from the documents and can always be rebuilt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the index from the stitch documents",
	Args:  cobra.NoArgs,
	RunE:  runIndexRebuild,
}

var indexShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the index as JSON",
	Args:  cobra.NoArgs,
	RunE:  runIndexShow,
}

func init() {
	indexCmd.AddCommand(indexRebuildCmd)
	indexCmd.AddCommand(indexShowCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexRebuild(cmd *cobra.Command, args []string) error {
	ws, done, err := openWorkspace()
	if err != nil {
		return err
	}
	defer done()

	res, err := ws.Index.Rebuild(cmd.Context())
	if err != nil {
		return err
	}
	children := 0
	for _, kids := range res.Index.Children {
		children += len(kids)
	}
	printer.Success("Index rebuilt: %d parents, %d children\n", len(res.Index.Children), children)
	for _, id := range res.Dangling {
		printer.Warning("parent %s is referenced but has no document\n", id)
	}
	return nil
}

func runIndexShow(cmd *cobra.Command, args []string) error {
	ws, done, err := openWorkspace()
	if err != nil {
		return err
	}
	defer done()

	ix, err := ws.Index.Load(cmd.Context())
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(ix, "", "  ")
	if err != nil {
		return err
	}
	printer.Println(string(data))
	return nil
}
