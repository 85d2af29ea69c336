package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/duskline/lpcmail/internal/actorutil"
	"github.com/duskline/lpcmail/internal/demo"
	"github.com/duskline/lpcmail/internal/lpc"
	"github.com/duskline/lpcmail/internal/registry"
)

var (
	multiplierKey         = registry.NewServiceKey[demo.MultiplyRequest]("demo.multiplier")
	cooperativeGreeterKey = registry.NewServiceKey[demo.GreetRequest]("demo.greeter.cooperative")
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run three acceptRequest dispatch paths once each and print the results",
	Long: `Runs the same-mailbox, cross-mailbox-cooperative, and cross-domain
async dispatch paths in turn against a Multiplier, a Greeter, and a pool of
Greeter workers. The first two register their actor in an
internal/registry.Registry and resolve it by ServiceKey rather than holding
onto the constructor's return value; the third dispatches through an
actorutil.Pool instead. Each path prints which acceptRequest rule fired and
what came back.`,
	RunE: runDemo,
}

func runDemo(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	reg := registry.New()

	if err := runSameMailboxDemo(ctx, reg); err != nil {
		return err
	}

	if err := runCooperativeDemo(ctx, reg); err != nil {
		return err
	}

	return runAsyncDomainPoolDemo(ctx)
}

// runSameMailboxDemo exercises rule 1 (syncProcess).
func runSameMailboxDemo(ctx context.Context, reg *registry.Registry) error {
	factory := &lpc.InlineMailboxFactory{}
	shared := sameMailboxFactory{mailbox: factory.NewMailbox()}

	driver, err := lpc.NewActor(shared, nil)
	if err != nil {
		return err
	}
	defer driver.Close()

	multiplier, err := lpc.NewActor(shared, demo.NewMultiplier())
	if err != nil {
		return err
	}
	defer multiplier.Close()

	if err := registry.Register(reg, multiplierKey, multiplier); err != nil {
		return fmt.Errorf("registering multiplier: %w", err)
	}

	target, err := registry.Resolve(reg, multiplierKey)
	if err != nil {
		return fmt.Errorf("resolving multiplier: %w", err)
	}

	resp, err := actorutil.AskTyped[demo.MultiplyResponse](
		ctx, driver, target, demo.MultiplyRequest{A: 3, B: 4},
	)
	if err != nil {
		return err
	}

	fmt.Printf("[rule 1: syncProcess]     3 * 4 = %d\n", resp.Product)

	return nil
}

// runCooperativeDemo exercises rule 4 (syncSend, cross-mailbox but
// cooperative): two inline mailboxes, the greeter's mailbox handing control
// to the driver's mailbox on the fly.
func runCooperativeDemo(ctx context.Context, reg *registry.Registry) error {
	driver, err := lpc.NewActor(&lpc.InlineMailboxFactory{}, nil)
	if err != nil {
		return err
	}
	defer driver.Close()

	greeter, err := lpc.NewActor(&lpc.InlineMailboxFactory{}, demo.NewGreeter())
	if err != nil {
		return err
	}
	defer greeter.Close()

	if err := registry.Register(reg, cooperativeGreeterKey, greeter); err != nil {
		return fmt.Errorf("registering cooperative greeter: %w", err)
	}

	target, err := registry.Resolve(reg, cooperativeGreeterKey)
	if err != nil {
		return fmt.Errorf("resolving cooperative greeter: %w", err)
	}

	resp, err := actorutil.AskTyped[demo.GreetResponse](
		ctx, driver, target, demo.GreetRequest{Name: "cooperative caller"},
	)
	if err != nil {
		return err
	}

	fmt.Printf("[rule 4: syncSend]        %s\n", resp.Text)

	return nil
}

// runAsyncDomainPoolDemo exercises rule 2 (asyncSend across a worker-backed
// mailbox), dispatching through an actorutil.Pool of three Greeter workers
// round-robin rather than a single actor.
func runAsyncDomainPoolDemo(ctx context.Context) error {
	driver, err := lpc.NewActor(&lpc.WorkerMailboxFactory{}, nil)
	if err != nil {
		return err
	}
	defer driver.Close()

	pool, err := actorutil.NewPool(actorutil.PoolConfig{
		ID:   "demo-greeters",
		Size: 3,
		Factory: func(idx int) lpc.MailboxFactory {
			return &lpc.WorkerMailboxFactory{}
		},
		Process: demo.NewGreeter(),
	})
	if err != nil {
		return fmt.Errorf("building greeter pool: %w", err)
	}
	defer pool.Close()

	resp, err := pool.Ask(ctx, driver, demo.GreetRequest{Name: "async domain caller"}).Unpack()
	if err != nil {
		return err
	}

	greeting, ok := resp.(demo.GreetResponse)
	if !ok {
		return fmt.Errorf("unexpected response type from greeter pool: %T", resp)
	}

	fmt.Printf("[rule 2: asyncSend]       %s (via pool %q, %d workers)\n",
		greeting.Text, pool.ID(), pool.Size())

	return nil
}
