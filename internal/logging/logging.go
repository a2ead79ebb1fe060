// Package logging routes the standard logger. Output goes to stderr by
// default; stdout belongs to command output and the MCP stdio transport.
package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures where log output goes.
type Options struct {
	// File enables a rotating log file. Empty keeps stderr.
	File       string
	MaxSizeMB  int
	MaxBackups int
	// Tee also copies file output to stderr.
	Tee bool
}

// Setup points the standard logger at the configured destination and
// returns a function that closes the file and restores the previous output.
func Setup(opts Options) (restore func() error, err error) {
	prev := log.Writer()
	if opts.File == "" {
		log.SetOutput(os.Stderr)
		return func() error {
			log.SetOutput(prev)
			return nil
		}, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, err
	}
	lj := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
	}

	var out io.Writer = lj
	if opts.Tee {
		out = io.MultiWriter(os.Stderr, lj)
	}
	log.SetOutput(out)

	return func() error {
		log.SetOutput(prev)
		return lj.Close()
	}, nil
}
