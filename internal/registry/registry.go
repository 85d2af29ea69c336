// Package registry provides request-name lookup above the core dispatch
// engine: actors register under a named ServiceKey and other actors resolve
// a key to the RequestProcessor(s) registered under it. This is the
// "component/binding framework" the core deliberately stays ignorant of —
// internal/lpc never imports this package, only the reverse.
//
// Adapted from the teacher's Receptionist/ServiceKey
// (internal/baselib/actor/system.go), reworked for a non-generic Message
// interface: the teacher parameterizes ServiceKey[M Message, R any] on both
// the request and response types because its ActorRef[M, R] is itself
// generic. internal/lpc has no response type parameter (a RequestProcessor
// handles lpc.Message, full stop), so ServiceKey here only carries the
// request type M for registration-time type checking; resolution always
// hands back a plain *lpc.Actor.
package registry

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/duskline/lpcmail/internal/lpc"
)

// ErrKeyTypeMismatch is returned by Register when a service name is already
// bound to a different request message type.
var ErrKeyTypeMismatch = errors.New("registry: service key type mismatch")

// ErrNotFound is returned by Resolve when no actor is registered
// under the given key.
var ErrNotFound = errors.New("registry: no actor registered for key")

// ServiceKey identifies a named family of actors that accept request
// messages of type M. The type parameter exists purely to catch
// accidental cross-wiring at registration time (registering a key under two
// different request types is a programming error, not a runtime branch);
// nothing about dispatch itself is generic.
type ServiceKey[M lpc.Message] struct {
	name string
}

// NewServiceKey creates a ServiceKey with the given name.
func NewServiceKey[M lpc.Message](name string) ServiceKey[M] {
	return ServiceKey[M]{name: name}
}

// Name returns the key's lookup name.
func (k ServiceKey[M]) Name() string {
	return k.name
}

// Registry is a concurrent-safe directory of actors keyed by ServiceKey
// name, grounded on the teacher's Receptionist.
type Registry struct {
	mu sync.RWMutex

	actors map[string][]*lpc.Actor
	types  map[string]reflect.Type

	// cursors tracks round-robin position per key name for Resolve.
	cursors map[string]*atomic.Uint64
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		actors:  make(map[string][]*lpc.Actor),
		types:   make(map[string]reflect.Type),
		cursors: make(map[string]*atomic.Uint64),
	}
}

// Register binds actor under key. It returns ErrKeyTypeMismatch if key.name
// was already registered with a different request message type.
func Register[M lpc.Message](r *Registry, key ServiceKey[M], actor *lpc.Actor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgType := reflect.TypeOf((*M)(nil)).Elem()

	if existing, ok := r.types[key.name]; ok {
		if existing != msgType {
			return fmt.Errorf("%w: service %q already registered for %s, "+
				"cannot register for %s", ErrKeyTypeMismatch, key.name,
				existing, msgType)
		}
	} else {
		r.types[key.name] = msgType
	}

	r.actors[key.name] = append(r.actors[key.name], actor)

	if _, ok := r.cursors[key.name]; !ok {
		r.cursors[key.name] = &atomic.Uint64{}
	}

	return nil
}

// FindAll returns every actor registered under key, in registration order.
func FindAll[M lpc.Message](r *Registry, key ServiceKey[M]) []*lpc.Actor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	found := r.actors[key.name]
	out := make([]*lpc.Actor, len(found))
	copy(out, found)

	return out
}

// Resolve returns the next actor registered under key in round-robin order,
// or ErrNotFound if nothing is registered under it.
func Resolve[M lpc.Message](r *Registry, key ServiceKey[M]) (*lpc.Actor, error) {
	r.mu.RLock()
	found := r.actors[key.name]
	cursor := r.cursors[key.name]
	r.mu.RUnlock()

	if len(found) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key.name)
	}

	idx := cursor.Add(1) % uint64(len(found))

	return found[idx], nil
}

// Deregister removes actor from key's registration list, if present. It is
// a no-op if actor was never registered under key.
func Deregister[M lpc.Message](r *Registry, key ServiceKey[M], actor *lpc.Actor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	found := r.actors[key.name]
	for i, a := range found {
		if a == actor {
			r.actors[key.name] = append(found[:i], found[i+1:]...)
			break
		}
	}
}
