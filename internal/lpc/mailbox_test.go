package lpc

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type testMessage struct {
	BaseMessage
	value int
}

func (testMessage) MessageType() string { return "test-message" }

func TestMailboxControlTokenDefaultsToSelf(t *testing.T) {
	t.Parallel()

	m := NewMailbox(false, 0)
	require.Same(t, m, m.ControllingMailbox())
}

func TestMailboxAcquireAndRelinquishControl(t *testing.T) {
	t.Parallel()

	m := NewMailbox(false, 0)
	candidate := NewMailbox(false, 0)

	require.True(t, m.AcquireControl(candidate))
	require.Same(t, candidate, m.ControllingMailbox())

	other := NewMailbox(false, 0)
	require.False(t, m.AcquireControl(other))
	require.Same(t, candidate, m.ControllingMailbox())

	// The candidate itself may re-acquire (idempotent CAS).
	require.True(t, m.AcquireControl(candidate))

	m.RelinquishControl()
	require.Same(t, m, m.ControllingMailbox())
}

func TestMailboxSendPendingMessagesFlushesOutbound(t *testing.T) {
	t.Parallel()

	src := NewMailbox(false, 0)
	dst := NewMailbox(false, 0)

	req := NewRequest(nil, nil, testMessage{value: 1}, nil)
	src.Send(dst, req)

	require.False(t, src.OutboundEmpty())
	require.Equal(t, 0, dst.PendingInbound())

	src.SendPendingMessages()

	require.True(t, src.OutboundEmpty())
	require.Equal(t, 1, dst.PendingInbound())
}

func TestMailboxResponseDropsDuplicates(t *testing.T) {
	t.Parallel()

	fake := &fakeRequestSource{mailbox: NewMailbox(false, 0)}
	req := NewRequest(fake, nil, testMessage{value: 7}, nil)

	m := NewMailbox(false, 0)
	m.SetCurrentRequest(req)

	m.Response(testMessage{value: 1})
	require.Len(t, fake.responses, 1)

	// A second Response call for the same current request must be
	// dropped: the request's active bit was already cleared.
	m.Response(testMessage{value: 2})
	require.Len(t, fake.responses, 1)
}

func TestMailboxResponseWithNoCurrentRequestIsNoop(t *testing.T) {
	t.Parallel()

	m := NewMailbox(false, 0)
	require.NotPanics(t, func() {
		m.Response(testMessage{value: 1})
	})
}

func TestMailboxCloseDropsFurtherDeliveries(t *testing.T) {
	t.Parallel()

	m := NewMailbox(false, 0)
	m.enqueueInbound(NewRequest(nil, nil, testMessage{value: 1}, nil))
	require.Equal(t, 1, m.PendingInbound())

	m.Close()
	m.enqueueInbound(NewRequest(nil, nil, testMessage{value: 2}, nil))

	// Still only the one item queued before Close.
	require.Equal(t, 1, m.PendingInbound())
}

func TestMailboxCloseRunsHookExactlyOnce(t *testing.T) {
	t.Parallel()

	m := NewMailbox(false, 0)

	var mu sync.Mutex
	calls := 0
	m.SetCloseHook(func() {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	m.Close()
	m.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, calls)
}

func TestMailboxExceptionHandlerRoundTrip(t *testing.T) {
	t.Parallel()

	m := NewMailbox(false, 0)
	require.Nil(t, m.ExceptionHandler())

	h := func(err error) error { return err }
	m.SetExceptionHandler(h)
	require.NotNil(t, m.ExceptionHandler())
}

func TestMailboxPopInboundIsFIFO(t *testing.T) {
	t.Parallel()

	m := NewMailbox(false, 0)

	first := NewRequest(nil, nil, testMessage{value: 1}, nil)
	second := NewRequest(nil, nil, testMessage{value: 2}, nil)
	m.enqueueInbound(first, second)

	got1, ok := m.popInbound()
	require.True(t, ok)
	require.Same(t, first, got1)

	got2, ok := m.popInbound()
	require.True(t, ok)
	require.Same(t, second, got2)

	_, ok = m.popInbound()
	require.False(t, ok)
}

// fakeRequestSource is a minimal RequestSource used to observe what
// Mailbox.Response hands back via ResponseFrom, without pulling in a full
// Actor.
type fakeRequestSource struct {
	mailbox   *Mailbox
	handler   ExceptionHandler
	responses []*Response
}

func (f *fakeRequestSource) Mailbox() *Mailbox                   { return f.mailbox }
func (f *fakeRequestSource) ExceptionHandler() ExceptionHandler   { return f.handler }
func (f *fakeRequestSource) SetExceptionHandler(h ExceptionHandler) { f.handler = h }
func (f *fakeRequestSource) Enqueue(destination *Mailbox, item QueueItem) {
	f.mailbox.Send(destination, item)
}
func (f *fakeRequestSource) ResponseFrom(resp *Response) {
	f.responses = append(f.responses, resp)
}
