package commands

import (
	"os"

	"github.com/btcsuite/btclog"
	"github.com/spf13/cobra"

	"github.com/duskline/lpcmail/internal/lpc"
)

var verbose bool

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "lpcmaild",
	Short: "Demonstration CLI for the lpc dispatch engine",
	Long: `lpcmaild wires up a small set of actors (a multiplier, a greeter)
across synchronous and asynchronous mailboxes and exercises three of the
dispatch engine's five acceptRequest paths (rules 1, 2 and 4), printing
the result of each.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := btclog.LevelInfo
		if verbose {
			level = btclog.LevelDebug
		}

		// Console-only btclog wiring, following the daemon's own
		// dual-stream handler construction reduced to its console leg.
		consoleHandler := btclog.NewDefaultHandler(os.Stderr)
		logger := btclog.NewSLogger(consoleHandler)
		logger.SetLevel(level)

		lpc.UseLogger(logger)
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(
		&verbose, "verbose", false, "Enable debug-level dispatch logging",
	)

	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(multiplyCmd)
	rootCmd.AddCommand(greetCmd)
}
