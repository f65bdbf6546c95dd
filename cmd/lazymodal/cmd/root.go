// Package cmd implements the lazymodal command line.
package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

// Version information
var (
	Version = "0.1.0"
	Commit  = "none"
)

// PrintVersion returns the version line printed by the version command.
func PrintVersion() string {
	return fmt.Sprintf("lazymodal version %s (commit: %s)", Version, Commit)
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lazymodal",
		Short: "lazymodal - lazily activated modal containers",
		Long: `lazymodal renders, inspects and serves <lazy-modal> elements.

A <lazy-modal> defers its stylesheets, scripts and content until a trigger
is hovered, focused or clicked, or the modal becomes visible.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	cmd.AddCommand(NewRenderCommand())
	cmd.AddCommand(NewInspectCommand())
	cmd.AddCommand(NewLoadCommand())
	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), PrintVersion())
		},
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
