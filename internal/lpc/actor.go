package lpc

import "context"

// Actor is the engine's concrete binding of a user-supplied ProcessFunc to a
// mailbox. It implements RequestSource for requests it originates and
// RequestProcessor for requests it services, and is the type a binding
// layer built above this package hands to Send (spec.md §6, "Actor
// contract"; spec.md §9, "dynamic dispatch via class-name binding... is
// irrelevant to the core").
type Actor struct {
	mailbox *Mailbox
	factory MailboxFactory
	process ProcessFunc
}

// NewActor builds an Actor whose mailbox comes from factory and whose
// application logic is process. A nil factory, or a factory that hands back
// a nil mailbox, is rejected immediately rather than surfacing later as a
// nil-pointer fault (spec.md §7, "dispatch-protocol errors").
func NewActor(factory MailboxFactory, process ProcessFunc) (*Actor, error) {
	if factory == nil {
		return nil, ErrNilMailbox
	}

	mailbox := factory.NewMailbox()
	if mailbox == nil {
		return nil, ErrNilMailbox
	}

	return &Actor{
		mailbox: mailbox,
		factory: factory,
		process: process,
	}, nil
}

// Send dispatches payload from a to target, following the engine's
// five-rule decision tree, and arranges for continuation to eventually
// receive the response (spec.md §6).
func (a *Actor) Send(target *Actor, payload Message, continuation Continuation) {
	AcceptRequest(a, target, payload, continuation)
}

// Mailbox returns a's mailbox. It satisfies both RequestSource and
// RequestProcessor.
func (a *Actor) Mailbox() *Mailbox {
	return a.mailbox
}

// MailboxFactory returns the factory that built a's mailbox (spec.md §6,
// "getMailboxFactory").
func (a *Actor) MailboxFactory() MailboxFactory {
	return a.factory
}

// ExceptionHandler returns the handler active on a's mailbox.
func (a *Actor) ExceptionHandler() ExceptionHandler {
	return a.mailbox.ExceptionHandler()
}

// SetExceptionHandler installs h on a's mailbox.
func (a *Actor) SetExceptionHandler(h ExceptionHandler) {
	a.mailbox.SetExceptionHandler(h)
}

// SetInitialBufferCapacity changes the size hint a's mailbox uses for new
// outbound buckets (spec.md §6).
func (a *Actor) SetInitialBufferCapacity(n int) {
	a.mailbox.SetInitialBufferCapacity(n)
}

// Enqueue implements RequestSource.Enqueue: it enqueues item on a's own
// mailbox, destined for destination, without delivering it.
func (a *Actor) Enqueue(destination *Mailbox, item QueueItem) {
	a.mailbox.Send(destination, item)
}

// ResponseFrom implements RequestSource.ResponseFrom: it routes resp back
// onto a's own mailbox's outbound bucket addressed to itself, so the next
// flush lands it on a's own inbound queue and its continuation runs under
// a's own dispatch loop rather than on whatever goroutine produced it
// (spec.md §4.3).
func (a *Actor) ResponseFrom(resp *Response) {
	a.mailbox.Send(a.mailbox, resp)
}

// HaveEvents implements RequestProcessor.HaveEvents. In this port the
// mailbox's wake hook is wired directly to a worker by MailboxFactory (see
// mailbox_factory.go), so this method is not on the critical wakeup path;
// it exists to satisfy the adapter contract of spec.md §4.4 and gives an
// embedding type a place to observe newly queued work.
func (a *Actor) HaveEvents() {
	log.DebugS(context.TODO(), "actor has new queued events", "mailbox_id", a.mailbox.ID)
}

// Invoke implements RequestProcessor.Invoke: it runs a's application logic
// directly against payload, calling respond with the eventual result. Used
// by syncProcess and syncSend, which run the callee's logic on the
// caller's own stack (spec.md §4.5).
func (a *Actor) Invoke(payload Message, respond Continuation) {
	a.process(payload, respond)
}

// ProcessRequest implements RequestProcessor.ProcessRequest: it installs
// req as a's current request, then invokes a's application logic with a
// continuation that funnels the result through a.mailbox.Response, so
// duplicate-response and current-request bookkeeping stay consistent
// whether req arrived synchronously or was queued (spec.md §4.4).
func (a *Actor) ProcessRequest(req *Request) {
	a.mailbox.SetCurrentRequest(req)

	a.Invoke(req.Payload, func(response Message) {
		a.mailbox.Response(response)
	})
}

// Close tears down a's mailbox, stopping its worker goroutine if it has
// one.
func (a *Actor) Close() {
	a.mailbox.Close()
}
