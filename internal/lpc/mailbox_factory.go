package lpc

// MailboxFactory creates mailboxes either bound to an independent worker
// (async) or running inline on whichever goroutine drives them (sync).
// Only this construction contract matters to the dispatch engine; a
// factory's thread-binding policy is opaque to it (spec.md §4.3, §6).
type MailboxFactory interface {
	NewMailbox() *Mailbox
}

// WorkerMailboxFactory produces async mailboxes, each bound to its own
// goroutine that wakes whenever new inbound work arrives and drains the
// mailbox until it runs dry. Grounded on the teacher's Actor worker-
// goroutine pattern (one goroutine per actor, parked on a channel between
// batches of work).
type WorkerMailboxFactory struct {
	// InitialBufferCapacity sizes each mailbox's outbound buckets.
	InitialBufferCapacity int
}

// NewMailbox builds an async mailbox and starts its worker goroutine.
func (f *WorkerMailboxFactory) NewMailbox() *Mailbox {
	m := NewMailbox(true, f.InitialBufferCapacity)

	w := newMailboxWorker(m)
	m.SetEventsHook(w.notify)
	m.SetCloseHook(w.stop)

	return m
}

// mailboxWorker pumps one async mailbox's DispatchPending loop on its own
// goroutine, parked on wake between batches.
type mailboxWorker struct {
	mailbox *Mailbox
	wake    chan struct{}
	done    chan struct{}
}

func newMailboxWorker(m *Mailbox) *mailboxWorker {
	w := &mailboxWorker{
		mailbox: m,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	go w.run()

	return w
}

// notify wakes the worker. It never blocks: if a wake is already pending,
// the worker will find the new work on the batch it is about to run anyway.
func (w *mailboxWorker) notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// stop terminates the worker goroutine. Called once, from Mailbox.Close.
func (w *mailboxWorker) stop() {
	close(w.done)
}

func (w *mailboxWorker) run() {
	for {
		select {
		case <-w.wake:
			w.mailbox.DispatchPending()

		case <-w.done:
			return
		}
	}
}

// InlineMailboxFactory produces synchronous mailboxes: no worker goroutine
// is started, and inbound work accumulates until whichever goroutine holds
// the mailbox's controlling-mailbox token drains it by calling
// DispatchPending, directly or via the owning actor.
type InlineMailboxFactory struct {
	// InitialBufferCapacity sizes each mailbox's outbound buckets.
	InitialBufferCapacity int
}

// NewMailbox builds a synchronous mailbox with no worker binding.
func (f *InlineMailboxFactory) NewMailbox() *Mailbox {
	return NewMailbox(false, f.InitialBufferCapacity)
}
