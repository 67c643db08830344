package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	exitSuccess = 0
	exitFailure = 1
)

// Version information - injected at build time via ldflags
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// exitError carries a process exit code through cobra's error return.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		return exitFailure
	}
	return exitSuccess
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "log-validator",
		Short: "Validate web server access logs collected from mirror sites",
		Long: `log-validator checks access log files gathered from the mirror network
before they are loaded into usage statistics.

A validation has two parts:
  1) the file name: date, collection, paperboy layout, type and extension
  2) the file content: share of remote client addresses and agreement
     between the dates inside the file and the date in its name

Configuration is read from the environment and an optional .env file.
Command-line flags override both.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newValidateCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "log-validator %s\n", version)
			if gitCommit != "unknown" {
				_, _ = fmt.Fprintf(out, "  commit: %s\n", gitCommit)
			}
			if buildTime != "unknown" {
				_, _ = fmt.Fprintf(out, "  built:  %s\n", buildTime)
			}
		},
	}
}
