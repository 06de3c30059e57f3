// Package cli implements the schedtool command line companion.
//
// schedtool covers the operational chores around the bot: turning a
// plain-text timetable dump into the SCHEDULE_JSON payload the static source
// serves, normalizing an existing payload, and diagnosing a live deployment.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedtool",
		Short: "Operational companion for the ITMO schedule bot",
		Long: `schedtool prepares and verifies the bot's schedule data.

generate converts a plain-text timetable dump into the date-keyed JSON
payload the bot serves, adapt normalizes an existing payload, and check
diagnoses a deployed bot end to end.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newGenerateCmd(), newAdaptCmd(), newCheckCmd())
	return cmd
}

// Execute runs the CLI.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
