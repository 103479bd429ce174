package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd constructs the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strawberry",
		Short: "strawberry - GraphQL-over-HTTP test harness",
		Long:  "strawberry mounts a reference GraphQL schema behind an HTTP and WebSocket view so framework bindings can be exercised by a shared test suite.",
	}
	cmd.SilenceUsage = true
	cmd.AddCommand(newServeCmd())
	return cmd
}

// Execute runs the CLI entrypoint.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		exitCode := 1
		var cerr CommandError
		if errors.As(err, &cerr) {
			fmt.Fprintln(os.Stderr, cerr.Error())
			if cerr.Cause != nil && cerr.Cause.Error() != cerr.Error() {
				fmt.Fprintf(os.Stderr, "details: %v\n", cerr.Cause)
			}
			exitCode = cerr.ExitStatus()
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(exitCode)
	}
}
