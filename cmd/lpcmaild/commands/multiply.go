package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/duskline/lpcmail/internal/actorutil"
	"github.com/duskline/lpcmail/internal/demo"
	"github.com/duskline/lpcmail/internal/lpc"
)

var (
	multiplyA int
	multiplyB int
)

var multiplyCmd = &cobra.Command{
	Use:   "multiply",
	Short: "Multiply two numbers via a same-mailbox Multiplier actor",
	Long: `Spawns a driver and a Multiplier actor sharing one mailbox, then
sends a multiply request and prints the result. This exercises the
dispatch engine's rule-1 path (syncProcess): the continuation fires
synchronously on the caller's own stack.`,
	RunE: runMultiply,
}

func init() {
	multiplyCmd.Flags().IntVar(&multiplyA, "a", 6, "First operand")
	multiplyCmd.Flags().IntVar(&multiplyB, "b", 7, "Second operand")
}

func runMultiply(cmd *cobra.Command, args []string) error {
	mailbox := &lpc.InlineMailboxFactory{}
	shared := mailbox.NewMailbox()

	sharedFactory := sameMailboxFactory{mailbox: shared}

	driver, err := lpc.NewActor(sharedFactory, nil)
	if err != nil {
		return fmt.Errorf("spawning driver: %w", err)
	}
	defer driver.Close()

	multiplier, err := lpc.NewActor(sharedFactory, demo.NewMultiplier())
	if err != nil {
		return fmt.Errorf("spawning multiplier: %w", err)
	}
	defer multiplier.Close()

	resp, err := actorutil.AskTyped[demo.MultiplyResponse](
		context.Background(), driver, multiplier,
		demo.MultiplyRequest{A: multiplyA, B: multiplyB},
	)
	if err != nil {
		return fmt.Errorf("multiply request failed: %w", err)
	}

	fmt.Printf("%d * %d = %d\n", multiplyA, multiplyB, resp.Product)

	return nil
}

// sameMailboxFactory always hands back the same mailbox, letting the CLI
// spawn two actors that share a scheduling domain (spec.md §8 scenario 1).
type sameMailboxFactory struct {
	mailbox *lpc.Mailbox
}

func (f sameMailboxFactory) NewMailbox() *lpc.Mailbox { return f.mailbox }
