package lpc

import "sync"

// QueueItem is the sealed interface for anything that can sit in a
// mailbox's inbound queue or in a BufferedEventsQueue bucket: a *Request or
// a *Response (spec.md §3, "inbound: ordered sequence of Messages (Requests
// and Responses, interleaved)"). It is deliberately distinct from Message,
// which seals application payloads, not dispatch envelopes.
type QueueItem interface {
	queueItemMarker()
}

func (*Request) queueItemMarker()  {}
func (*Response) queueItemMarker() {}

// BufferedEventsQueue accumulates outgoing dispatch envelopes grouped by
// destination mailbox, so that many small sends to the same peer cost one
// handoff instead of one per message (spec.md §4.1). Messages enqueued to
// the same destination in program order are delivered to that destination
// in the same order; there is no ordering guarantee across destinations.
type BufferedEventsQueue struct {
	mu sync.Mutex

	buckets map[*Mailbox][]QueueItem

	// initialBucketCapacity sizes a bucket's backing slice the first time
	// a destination is seen, avoiding repeated small reallocations for
	// chatty destinations.
	initialBucketCapacity int
}

// NewBufferedEventsQueue creates an empty queue. initialBucketCapacity is a
// size hint passed to each new destination bucket the first time it is
// created.
func NewBufferedEventsQueue(initialBucketCapacity int) *BufferedEventsQueue {
	if initialBucketCapacity <= 0 {
		initialBucketCapacity = 4
	}

	return &BufferedEventsQueue{
		buckets:               make(map[*Mailbox][]QueueItem),
		initialBucketCapacity: initialBucketCapacity,
	}
}

// Send appends item to the bucket for destination. It does not deliver
// anything; delivery only happens on the next DispatchEvents call.
func (q *BufferedEventsQueue) Send(destination *Mailbox, item QueueItem) {
	q.mu.Lock()
	defer q.mu.Unlock()

	bucket, ok := q.buckets[destination]
	if !ok {
		bucket = make([]QueueItem, 0, q.initialBucketCapacity)
	}

	q.buckets[destination] = append(bucket, item)
}

// DispatchEvents delivers every bucket to its destination's inbound queue
// and clears the queue. Flushing an empty queue is a no-op, so callers can
// call this unconditionally as part of mailbox housekeeping.
func (q *BufferedEventsQueue) DispatchEvents() {
	q.mu.Lock()
	buckets := q.buckets
	if len(buckets) > 0 {
		q.buckets = make(map[*Mailbox][]QueueItem)
	}
	q.mu.Unlock()

	for destination, items := range buckets {
		destination.enqueueInbound(items...)
	}
}

// SetInitialBucketCapacity changes the size hint used for buckets created
// from this point on; existing buckets are unaffected.
func (q *BufferedEventsQueue) SetInitialBucketCapacity(n int) {
	if n <= 0 {
		n = 4
	}

	q.mu.Lock()
	q.initialBucketCapacity = n
	q.mu.Unlock()
}

// Empty reports whether the queue currently holds no pending buckets. Used
// by tests asserting the rule-4 post-condition that MT.outbound is empty
// after a sync-send completes (spec.md §8).
func (q *BufferedEventsQueue) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.buckets) == 0
}
