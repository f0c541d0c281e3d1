package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

// Exit codes: callers gate merges on them.
const (
	ExitPass         = 0
	ExitBlock        = 1
	ExitUsageError   = 2
	ExitAuthError    = 3
	ExitRuntimeError = 4
)

var rootCmd = &cobra.Command{
	Use:   "diffguard",
	Short: "Security guardrail for pull-request diffs",
	Long:  "Diffguard evaluates unified diffs against security pattern rules and a policy pack, emitting ranked findings and a deterministic block/pass exit code.",
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitPass

// Run executes the root command and returns an exit code.
func Run() int {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(packsCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}

	return exitCode
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print diffguard version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(os.Stdout, "diffguard version %s\n", version)
	},
}
