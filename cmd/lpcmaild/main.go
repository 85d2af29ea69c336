// Command lpcmaild is a small demonstration CLI for the internal/lpc
// dispatch engine: it wires a multiplier and a greeter actor together
// across sync and async mailboxes and runs three of the core's dispatch
// paths (rules 1, 2 and 4), printing the result of each.
package main

import (
	"fmt"
	"os"

	"github.com/duskline/lpcmail/cmd/lpcmaild/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
