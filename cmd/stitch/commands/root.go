// Package commands implements the stitch command line.
package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/HendryAvila/stitch/internal/lifecycle"
	"github.com/HendryAvila/stitch/internal/logging"
	"github.com/HendryAvila/stitch/internal/printer"
	"github.com/HendryAvila/stitch/internal/server"
	"github.com/HendryAvila/stitch/internal/stitch"
	"github.com/HendryAvila/stitch/internal/workspace"
	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string

	// dirFlag overrides the directory the project is discovered from.
	dirFlag string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stitch",
	Short: "Stitch - record the intent behind code changes",
	Long: `Stitch records the intent behind code changes.

A stitch is a short statement of intent with linked commits. Stitches nest:
finishing a parent applies the same terminal status to every descendant in
one all-or-nothing write.

State lives in .stitch/ at the project root, next to your code.`,
	Version: version,
	// Show help rather than silently succeeding on "stitch --unknown".
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Errors are printed with color by the printer package.
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	err := rootCmd.Execute()
	if err != nil && !printer.Reported(err) {
		printer.Error("Error", err.Error(), nil)
	}
	return err
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
	server.Version = v
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dirFlag, "dir", "C", "", "Run as if stitch was started in this directory")
}

// projectDir returns the absolute directory commands start from.
func projectDir() (string, error) {
	if dirFlag != "" {
		return filepath.Abs(dirFlag)
	}
	return os.Getwd()
}

// openWorkspace discovers the project, routes logging as configured, and
// returns a cleanup that undoes both.
func openWorkspace() (*workspace.Workspace, func(), error) {
	dir, err := projectDir()
	if err != nil {
		return nil, nil, err
	}
	ws, err := workspace.Discover(dir)
	if err != nil {
		if errors.Is(err, workspace.ErrNotInitialized) {
			return nil, nil, printer.Error(
				"Not a stitch project",
				fmt.Sprintf("No .stitch directory found in %s or any parent directory.", dir),
				[]string{"Run `stitch init` at the root of your repository."},
			)
		}
		return nil, nil, err
	}

	restore, err := logging.Setup(logging.Options{
		File:       ws.Config.LogFile,
		MaxSizeMB:  ws.Config.LogMaxSizeMB,
		MaxBackups: ws.Config.LogMaxBackups,
	})
	if err != nil {
		ws.Close()
		return nil, nil, fmt.Errorf("setting up log file: %w", err)
	}

	return ws, func() {
		ws.Close()
		_ = restore()
	}, nil
}

// failure prints err the way the user can act on it. Errors the user can
// fix get a title and suggestions; anything else is returned unchanged.
func failure(err error) error {
	switch {
	case errors.Is(err, lifecycle.ErrNotFound), errors.Is(err, stitch.ErrNotFound):
		return printer.Error("Stitch not found", err.Error(),
			[]string{"Run `stitch list` to see the stitches in this project."})
	case errors.Is(err, lifecycle.ErrInvalidStatus):
		return printer.Error("Invalid status", err.Error(),
			[]string{"Use one of: closed, superseded, abandoned."})
	case errors.Is(err, lifecycle.ErrInvalidReference):
		return printer.Error("Invalid reference", err.Error(), nil)
	case errors.Is(err, lifecycle.ErrIO):
		return printer.Error("Write failed", err.Error(),
			[]string{"Every file touched by the operation was restored. Fix the cause and retry."})
	default:
		return err
	}
}
