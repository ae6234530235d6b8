package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// exitError carries the godog status out of a command.
type exitError struct {
	code int
}

func (e exitError) Error() string { return "suite failed" }

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "e2e",
		Short:         "Storefront end-to-end suite",
		Long:          "Runs the storefront Cucumber features against a real browser.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCommand())
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		slog.Error("e2e failed", "error", err)
		os.Exit(1)
	}
}
