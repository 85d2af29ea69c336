package actorutil

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/duskline/lpcmail/internal/lpc"
)

// poolWorkerState counts the requests the pool's workers handled and
// records the values they received, across all members.
type poolWorkerState struct {
	handled  atomic.Int64
	mu       sync.Mutex
	received []int
}

func (s *poolWorkerState) record(v int) {
	s.mu.Lock()
	s.received = append(s.received, v)
	s.mu.Unlock()

	s.handled.Add(1)
}

func (s *poolWorkerState) receivedValues() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]int, len(s.received))
	copy(out, s.received)

	return out
}

func TestNewPool(t *testing.T) {
	t.Parallel()

	pool, err := NewPool(PoolConfig{
		ID:   "test-pool",
		Size: 3,
		Factory: func(int) lpc.MailboxFactory {
			return &lpc.WorkerMailboxFactory{}
		},
		Process: func(payload lpc.Message, respond lpc.Continuation) {
			respond(payload)
		},
	})
	require.NoError(t, err)
	defer pool.Close()

	require.Equal(t, 3, pool.Size())
	require.Equal(t, "test-pool", pool.ID())
	require.Len(t, pool.Actors(), 3)
}

func TestPoolDefaultSize(t *testing.T) {
	t.Parallel()

	pool, err := NewPool(PoolConfig{
		ID: "test-pool-default",
		Factory: func(int) lpc.MailboxFactory {
			return &lpc.WorkerMailboxFactory{}
		},
		Process: func(payload lpc.Message, respond lpc.Continuation) {
			respond(payload)
		},
	})
	require.NoError(t, err)
	defer pool.Close()

	require.Equal(t, 1, pool.Size())
}

func TestPoolAsk(t *testing.T) {
	t.Parallel()

	const poolSize = 3
	const numRequests = 9

	var handled [poolSize]*atomic.Int64
	for i := range handled {
		handled[i] = &atomic.Int64{}
	}

	idx := 0
	var mu sync.Mutex

	pool, err := NewPool(PoolConfig{
		ID:   "test-pool-ask",
		Size: poolSize,
		Factory: func(int) lpc.MailboxFactory {
			return &lpc.WorkerMailboxFactory{}
		},
		Process: func(payload lpc.Message, respond lpc.Continuation) {
			mu.Lock()
			slot := idx % poolSize
			idx++
			mu.Unlock()

			handled[slot].Add(1)

			req := payload.(requestMessage)
			respond(doubledMessage{value: req.value * 2})
		},
	})
	require.NoError(t, err)
	defer pool.Close()

	driver := newDriverActor(t)
	ctx := context.Background()

	for i := 0; i < numRequests; i++ {
		result := pool.Ask(ctx, driver, requestMessage{value: i + 1})

		val, err := result.Unpack()
		require.NoError(t, err)
		require.Equal(t, doubledMessage{value: (i + 1) * 2}, val)
	}
}

func TestPoolBroadcast(t *testing.T) {
	t.Parallel()

	const poolSize = 4

	var state poolWorkerState

	pool, err := NewPool(PoolConfig{
		ID:   "test-pool-broadcast",
		Size: poolSize,
		Factory: func(int) lpc.MailboxFactory {
			return &lpc.WorkerMailboxFactory{}
		},
		Process: func(payload lpc.Message, respond lpc.Continuation) {
			req := payload.(requestMessage)
			state.record(req.value)
			respond(doubledMessage{value: req.value * 2})
		},
	})
	require.NoError(t, err)
	defer pool.Close()

	driver := newDriverActor(t)
	pool.Broadcast(driver, requestMessage{value: 42})

	require.Eventually(t, func() bool {
		return state.handled.Load() == poolSize
	}, time.Second, time.Millisecond)

	for _, v := range state.receivedValues() {
		require.Equal(t, 42, v)
	}
}

func TestPoolBroadcastAsk(t *testing.T) {
	t.Parallel()

	const poolSize = 3

	pool, err := NewPool(PoolConfig{
		ID:   "test-pool-broadcast-ask",
		Size: poolSize,
		Factory: func(int) lpc.MailboxFactory {
			return &lpc.WorkerMailboxFactory{}
		},
		Process: func(payload lpc.Message, respond lpc.Continuation) {
			req := payload.(requestMessage)
			respond(doubledMessage{value: req.value * 2})
		},
	})
	require.NoError(t, err)
	defer pool.Close()

	driver := newDriverActor(t)

	results := pool.BroadcastAsk(context.Background(), driver, requestMessage{value: 5})
	require.Len(t, results, poolSize)

	for _, r := range results {
		val, err := r.Unpack()
		require.NoError(t, err)
		require.Equal(t, doubledMessage{value: 10}, val)
	}
}

func TestPoolConcurrentAccess(t *testing.T) {
	t.Parallel()

	const poolSize = 4
	const numGoroutines = 10
	const requestsPerGoroutine = 25

	pool, err := NewPool(PoolConfig{
		ID:   "test-pool-concurrent",
		Size: poolSize,
		Factory: func(int) lpc.MailboxFactory {
			return &lpc.WorkerMailboxFactory{}
		},
		Process: func(payload lpc.Message, respond lpc.Continuation) {
			req := payload.(requestMessage)
			respond(doubledMessage{value: req.value * 2})
		},
	})
	require.NoError(t, err)
	defer pool.Close()

	driver := newDriverActor(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < numGoroutines; g++ {
		wg.Add(1)

		go func(base int) {
			defer wg.Done()

			for i := 0; i < requestsPerGoroutine; i++ {
				result := pool.Ask(ctx, driver, requestMessage{value: base + i})

				_, err := result.Unpack()
				require.NoError(t, err)
			}
		}(g * 1000)
	}

	wg.Wait()
}
