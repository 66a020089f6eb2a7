// Package engine drives a document schema from structural JSON events.
//
// The Machine owns everything that does not depend on the document shape:
// the bounded context stack, the pending object key, matching of open and
// close events and skipping of unrecognised subtrees. A Schema supplies the
// transition table: which child context an open event enters, how a scalar
// is applied to the record being built and what happens when a container
// closes.
//
// Unrecognised subtrees are skipped by pushing a skip context, one per open
// container, onto the same stack used for known contexts. Skipped data is
// therefore bounded by the same depth limit as everything else.
package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jacoelho/remo/event"
	"github.com/jacoelho/remo/internal/stack"
)

var (
	// ErrNodeTooDeep indicates the document nests deeper than the context stack.
	ErrNodeTooDeep = errors.New("remo: node too deep")

	// ErrUnexpectedMapArrayEnd indicates a close event without a matching open.
	ErrUnexpectedMapArrayEnd = errors.New("remo: unexpected end of map or array")

	// ErrUnexpectedNode indicates an event the current context does not accept.
	ErrUnexpectedNode = errors.New("remo: unexpected node")
)

// maxDiagnostic bounds the description attached to ErrUnexpectedNode.
const maxDiagnostic = 64

// Container classifies a context by the JSON container it represents.
type Container uint8

const (
	None Container = iota
	Map
	Array
)

func (c Container) String() string {
	switch c {
	case Map:
		return "map"
	case Array:
		return "array"
	default:
		return "none"
	}
}

// OpenEvent returns the event that opens a container of kind c.
func (c Container) OpenEvent() event.Event {
	if c == Array {
		return event.Event{Kind: event.StartArray}
	}
	return event.Event{Kind: event.StartObject}
}

// Context is a schema state. Skipping reports whether the context belongs
// to an unrecognised subtree.
type Context interface {
	comparable
	fmt.Stringer
	Container() Container
	Skipping() bool
}

// Key is a resolved object key.
type Key interface {
	comparable
	fmt.Stringer
}

// Schema is the transition table of one document shape.
type Schema[C Context, K Key] interface {
	// Start is the context before the first event.
	Start() C

	// Skip returns the context used for an unrecognised container.
	Skip(c Container) C

	// ResolveKey maps an object key to a known key.
	ResolveKey(name string) (K, bool)

	// Open returns the context entered when a container of kind c opens
	// inside parent. ok is false for combinations the schema does not know,
	// which are then skipped.
	Open(parent C, key K, hasKey bool, c Container) (next C, ok bool, err error)

	// Value applies a scalar read in ctx.
	Value(ctx C, key K, hasKey bool, v event.Scalar) error

	// Close is called before ctx is left by its closing event.
	Close(ctx C) error
}

// Machine is a single-threaded parse state machine. It must not be fed from
// within a Schema callback.
type Machine[C Context, K Key] struct {
	schema Schema[C, K]
	stack  *stack.Stack[C]
	logger *slog.Logger

	ctx    C
	key    K
	hasKey bool
}

// New returns a Machine whose context stack holds at most depth entries.
func New[C Context, K Key](schema Schema[C, K], depth int, logger *slog.Logger) *Machine[C, K] {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	m := &Machine[C, K]{
		schema: schema,
		stack:  stack.New[C](depth),
		logger: logger,
	}
	m.Reset()
	return m
}

// Reset returns the machine to the start context.
func (m *Machine[C, K]) Reset() {
	m.stack.Reset()
	m.ctx = m.schema.Start()
	m.takeKey()
}

// Context returns the current context.
func (m *Machine[C, K]) Context() C {
	return m.ctx
}

// Depth returns the number of open containers.
func (m *Machine[C, K]) Depth() int {
	return m.stack.Size()
}

// Feed applies one event.
func (m *Machine[C, K]) Feed(ev event.Event) error {
	switch ev.Kind {
	case event.StartObject:
		return m.open(Map)
	case event.StartArray:
		return m.open(Array)
	case event.EndObject:
		return m.close(Map, ev)
	case event.EndArray:
		return m.close(Array, ev)
	case event.Key:
		if ev.Scalar.Kind == event.String {
			m.key, m.hasKey = m.schema.ResolveKey(ev.Scalar.Str)
		}
		return nil
	case event.Value:
		key, hasKey := m.takeKey()
		if m.ctx.Skipping() {
			return nil
		}
		return m.schema.Value(m.ctx, key, hasKey, ev.Scalar)
	default:
		return UnexpectedNode(m.ctx, ev)
	}
}

func (m *Machine[C, K]) open(c Container) error {
	if !m.stack.Push(m.ctx) {
		return fmt.Errorf("%w: more than %d levels at %s", ErrNodeTooDeep, m.stack.Capacity(), m.ctx)
	}

	key, hasKey := m.takeKey()
	if m.ctx.Skipping() {
		m.ctx = m.schema.Skip(c)
		return nil
	}

	next, ok, err := m.schema.Open(m.ctx, key, hasKey, c)
	if err != nil {
		return err
	}
	if !ok {
		if hasKey {
			m.logger.Debug("skipping unknown subtree", "context", m.ctx.String(), "key", key.String(), "container", c.String())
		} else {
			m.logger.Debug("skipping unknown subtree", "context", m.ctx.String(), "container", c.String())
		}
		next = m.schema.Skip(c)
	}
	m.ctx = next
	return nil
}

func (m *Machine[C, K]) close(c Container, ev event.Event) error {
	m.takeKey()
	if m.ctx.Container() != c {
		return fmt.Errorf("%w: %s closed in %s", ErrUnexpectedMapArrayEnd, c, m.ctx)
	}

	if !m.ctx.Skipping() {
		if err := m.schema.Close(m.ctx); err != nil {
			return err
		}
	}

	prev, ok := m.stack.Pop()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnexpectedMapArrayEnd, ev)
	}
	m.ctx = prev
	return nil
}

func (m *Machine[C, K]) takeKey() (K, bool) {
	key, hasKey := m.key, m.hasKey
	var zero K
	m.key, m.hasKey = zero, false
	return key, hasKey
}

// UnexpectedNode describes an event that ctx does not accept.
func UnexpectedNode(ctx fmt.Stringer, ev event.Event) error {
	desc := ctx.String() + " " + ev.String()
	if len(desc) > maxDiagnostic {
		desc = desc[:maxDiagnostic]
	}
	return fmt.Errorf("%w: %s", ErrUnexpectedNode, desc)
}
