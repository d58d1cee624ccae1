package cli

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// RootCmd is the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:     "riposte",
	Short:   "A terminal HTTP client that works in fixed memory",
	Version: version,
	Long: `Riposte is a terminal-based HTTP/1.1 client built on a zero-copy
engine: responses are received and parsed in place inside a fixed-size
buffer, so memory use is known up front and a response that does not fit
fails loudly instead of being truncated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.AddCommand(getCmd)
	RootCmd.AddCommand(postCmd)
	RootCmd.AddCommand(putCmd)
	RootCmd.AddCommand(deleteCmd)
	RootCmd.AddCommand(headCmd)
	RootCmd.AddCommand(benchCmd)
}

// resolveNoColor disables color when asked to, or when stdout is not a
// terminal.
func resolveNoColor(noColorFlag bool) bool {
	if noColorFlag {
		return true
	}
	return !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd())
}
