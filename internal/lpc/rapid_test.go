package lpc

import (
	"testing"

	"pgregory.net/rapid"
)

// TestRapidDuplicateResponsesAlwaysDeliverFirst checks spec.md invariant I2
// ("a Request's active bit is true until its first response; responses
// past the first are dropped") holds for any number of extra duplicate
// calls, in any order of values.
func TestRapidDuplicateResponsesAlwaysDeliverFirst(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		values := rapid.SliceOfN(rapid.Int(), 1, 20).Draw(rt, "values")

		fake := &fakeRequestSource{mailbox: NewMailbox(false, 0)}
		req := NewRequest(fake, nil, testMessage{value: values[0]}, nil)

		m := NewMailbox(false, 0)
		m.SetCurrentRequest(req)

		for _, v := range values {
			m.Response(testMessage{value: v})
		}

		if len(fake.responses) != 1 {
			rt.Fatalf("expected exactly one response delivered, got %d",
				len(fake.responses))
		}

		got := fake.responses[0].Payload.(testMessage).value
		if got != values[0] {
			rt.Fatalf("expected first response value %d, got %d", values[0], got)
		}
	})
}

// TestRapidBufferedEventsQueuePreservesPerDestinationOrder checks spec.md
// §4.1's ordering guarantee: messages enqueued to the same destination in
// program order arrive in that order, for any interleaving of sends to
// multiple destinations.
func TestRapidBufferedEventsQueuePreservesPerDestinationOrder(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		numDestinations := rapid.IntRange(1, 4).Draw(rt, "numDestinations")
		destinations := make([]*Mailbox, numDestinations)
		for i := range destinations {
			destinations[i] = NewMailbox(false, 0)
		}

		q := NewBufferedEventsQueue(0)

		numSends := rapid.IntRange(0, 30).Draw(rt, "numSends")

		expected := make([][]int, numDestinations)

		for i := 0; i < numSends; i++ {
			destIdx := rapid.IntRange(0, numDestinations-1).Draw(rt, "destIdx")
			value := rapid.Int().Draw(rt, "value")

			req := NewRequest(nil, nil, testMessage{value: value}, nil)
			q.Send(destinations[destIdx], req)

			expected[destIdx] = append(expected[destIdx], value)
		}

		q.DispatchEvents()

		for i, dest := range destinations {
			var got []int
			for {
				item, ok := dest.popInbound()
				if !ok {
					break
				}

				got = append(got, item.(*Request).Payload.(testMessage).value)
			}

			if len(got) != len(expected[i]) {
				rt.Fatalf("destination %d: expected %d items, got %d",
					i, len(expected[i]), len(got))
			}

			for j := range got {
				if got[j] != expected[i][j] {
					rt.Fatalf("destination %d: order mismatch at %d: want %d, got %d",
						i, j, expected[i][j], got[j])
				}
			}
		}
	})
}
