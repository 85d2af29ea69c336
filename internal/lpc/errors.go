package lpc

import "errors"

var (
	// ErrNilMailbox is returned when an Actor is constructed from a nil
	// factory or from one that yields a nil mailbox (spec.md §7,
	// dispatch-protocol errors).
	ErrNilMailbox = errors.New("lpc: mailbox must not be nil")

	// ErrNilException guards against wrapping a nil error as an
	// Exception response, which would otherwise be indistinguishable
	// from a successful response that happens to carry a zero value.
	ErrNilException = errors.New("lpc: exception response wrapped a nil error")

	// ErrMailboxClosed is surfaced when a send targets a mailbox that has
	// already been closed.
	ErrMailboxClosed = errors.New("lpc: mailbox closed")
)
