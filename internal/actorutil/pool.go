package actorutil

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/duskline/lpcmail/internal/lpc"
)

// Pool distributes requests across a fixed set of worker actors using
// round-robin scheduling, so a single logical destination can be backed by
// several mailboxes draining concurrently (grounded on the teacher's actor
// pool, adapted from its ActorRef-generic form to the fixed Message
// interface this port uses throughout internal/lpc).
type Pool struct {
	id string

	actors []*lpc.Actor

	next atomic.Uint64
}

// PoolConfig configures a new Pool.
type PoolConfig struct {
	// ID identifies the pool in logs.
	ID string

	// Size is the number of worker actors to create.
	Size int

	// Factory builds the idx'th worker's mailbox factory.
	Factory func(idx int) lpc.MailboxFactory

	// Process is the ProcessFunc every worker in the pool runs.
	Process lpc.ProcessFunc
}

// NewPool creates a pool of Size worker actors, each built from
// cfg.Factory(idx) and running cfg.Process.
func NewPool(cfg PoolConfig) (*Pool, error) {
	if cfg.Size <= 0 {
		cfg.Size = 1
	}

	p := &Pool{
		id:     cfg.ID,
		actors: make([]*lpc.Actor, cfg.Size),
	}

	for i := 0; i < cfg.Size; i++ {
		a, err := lpc.NewActor(cfg.Factory(i), cfg.Process)
		if err != nil {
			return nil, fmt.Errorf(
				"actorutil: pool %q worker %d: %w", cfg.ID, i, err,
			)
		}

		p.actors[i] = a
	}

	return p, nil
}

// ID returns the pool's identifier.
func (p *Pool) ID() string {
	return p.id
}

// Size returns the number of actors in the pool.
func (p *Pool) Size() int {
	return len(p.actors)
}

// Actors returns a copy of the pool's worker actors.
func (p *Pool) Actors() []*lpc.Actor {
	actors := make([]*lpc.Actor, len(p.actors))
	copy(actors, p.actors)

	return actors
}

// nextWorker selects the pool's next worker in round-robin order.
func (p *Pool) nextWorker() *lpc.Actor {
	idx := p.next.Add(1) % uint64(len(p.actors))
	return p.actors[idx]
}

// Send dispatches payload from source to the pool's next worker.
func (p *Pool) Send(source *lpc.Actor, payload lpc.Message, k lpc.Continuation) {
	source.Send(p.nextWorker(), payload, k)
}

// Ask sends payload from source to the pool's next worker and blocks for
// the response.
func (p *Pool) Ask(ctx context.Context, source *lpc.Actor,
	payload lpc.Message) fn.Result[lpc.Message] {

	return Ask(ctx, source, p.nextWorker(), payload)
}

// Broadcast sends payload from source to every worker in the pool,
// fire-and-forget.
func (p *Pool) Broadcast(source *lpc.Actor, payload lpc.Message) {
	TellAll(source, p.actors, payload)
}

// BroadcastAsk sends payload to every worker in the pool concurrently and
// collects all results in pool order.
func (p *Pool) BroadcastAsk(ctx context.Context, source *lpc.Actor,
	payload lpc.Message) []fn.Result[lpc.Message] {

	return ParallelAskSame(ctx, source, p.actors, payload)
}

// Close tears down every worker actor in the pool.
func (p *Pool) Close() {
	for _, a := range p.actors {
		a.Close()
	}
}
