package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/duskline/lpcmail/internal/actorutil"
	"github.com/duskline/lpcmail/internal/demo"
	"github.com/duskline/lpcmail/internal/lpc"
)

var greetName string

var greetCmd = &cobra.Command{
	Use:   "greet",
	Short: "Greet a name via an async-worker Greeter actor",
	Long: `Spawns a driver actor on an inline mailbox and a Greeter actor on
its own worker-backed mailbox, then sends a greet request and blocks for
the response. This exercises the dispatch engine's rule-2 path
(asyncSend): the request crosses a scheduling-domain boundary and the
continuation fires once the greeter's worker drains it.`,
	RunE: runGreet,
}

func init() {
	greetCmd.Flags().StringVar(&greetName, "name", "world", "Name to greet")
}

func runGreet(cmd *cobra.Command, args []string) error {
	driver, err := lpc.NewActor(&lpc.InlineMailboxFactory{}, nil)
	if err != nil {
		return fmt.Errorf("spawning driver: %w", err)
	}
	defer driver.Close()

	greeter, err := lpc.NewActor(&lpc.WorkerMailboxFactory{}, demo.NewGreeter())
	if err != nil {
		return fmt.Errorf("spawning greeter: %w", err)
	}
	defer greeter.Close()

	type resolved struct {
		response demo.GreetResponse
		err      error
	}

	respCh := make(chan resolved, 1)
	go func() {
		resp, err := actorutil.AskTyped[demo.GreetResponse](
			context.Background(), driver, greeter, demo.GreetRequest{Name: greetName},
		)
		respCh <- resolved{response: resp, err: err}
	}()

	// Since driver has no worker of its own, pump its mailbox until the
	// response (routed back onto driver's own inbound) has been
	// delivered to the continuation actorutil.AskTyped is blocked on.
	for {
		driver.Mailbox().DispatchPending()

		select {
		case result := <-respCh:
			if result.err != nil {
				return fmt.Errorf("greet request failed: %w", result.err)
			}

			fmt.Println(result.response.Text)

			return nil
		default:
			time.Sleep(time.Millisecond)
		}
	}
}
