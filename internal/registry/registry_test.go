package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/duskline/lpcmail/internal/lpc"
)

type greetRequest struct {
	lpc.BaseMessage
	name string
}

func (greetRequest) MessageType() string { return "greet-request" }

type otherRequest struct {
	lpc.BaseMessage
}

func (otherRequest) MessageType() string { return "other-request" }

func newTestActor(t *testing.T) *lpc.Actor {
	t.Helper()

	a, err := lpc.NewActor(&lpc.WorkerMailboxFactory{}, func(
		payload lpc.Message, respond lpc.Continuation) {

		respond(payload)
	})
	require.NoError(t, err)
	t.Cleanup(a.Close)

	return a
}

func TestRegisterAndResolve(t *testing.T) {
	t.Parallel()

	r := New()
	key := NewServiceKey[greetRequest]("greeter")

	a1 := newTestActor(t)
	a2 := newTestActor(t)

	require.NoError(t, Register(r, key, a1))
	require.NoError(t, Register(r, key, a2))

	require.ElementsMatch(t, []*lpc.Actor{a1, a2}, FindAll(r, key))

	seen := map[*lpc.Actor]bool{}
	for i := 0; i < 4; i++ {
		resolved, err := Resolve(r, key)
		require.NoError(t, err)
		seen[resolved] = true
	}
	require.Len(t, seen, 2)
}

func TestResolveNotFound(t *testing.T) {
	t.Parallel()

	r := New()
	key := NewServiceKey[greetRequest]("missing")

	_, err := Resolve(r, key)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRegisterTypeMismatch(t *testing.T) {
	t.Parallel()

	r := New()
	greetKey := NewServiceKey[greetRequest]("shared-name")
	otherKey := NewServiceKey[otherRequest]("shared-name")

	a := newTestActor(t)
	require.NoError(t, Register(r, greetKey, a))

	err := Register(r, otherKey, newTestActor(t))
	require.ErrorIs(t, err, ErrKeyTypeMismatch)
}

func TestDeregister(t *testing.T) {
	t.Parallel()

	r := New()
	key := NewServiceKey[greetRequest]("greeter")

	a1 := newTestActor(t)
	a2 := newTestActor(t)

	require.NoError(t, Register(r, key, a1))
	require.NoError(t, Register(r, key, a2))

	Deregister(r, key, a1)
	require.Equal(t, []*lpc.Actor{a2}, FindAll(r, key))

	Deregister(r, key, a1)
	require.Equal(t, []*lpc.Actor{a2}, FindAll(r, key))
}
