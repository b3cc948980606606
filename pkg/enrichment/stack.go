package enrichment

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// nodeID addresses a node in a Stack's arena.
type nodeID int32

// noNode marks a missing link. Slot 0 of the arena is never handed out, so a
// zero Stack starts with no current scope.
const noNode nodeID = 0

// node is one enrichment scope in the chain. Released slots are kept as
// tombstones and reused later with a bumped generation, so stale handles
// can always be told apart from live ones.
type node struct {
	scope    *Scope
	action   Action
	parent   nodeID
	child    nodeID
	target   Target
	gen      uint32
	consumed bool
	released bool
}

// inheritance links a forked stack to the scope that was current in its
// parent when the fork happened.
type inheritance struct {
	stack  *Stack
	anchor *Scope
}

// Stack holds the chain of enrichment scopes of one flow of control.
//
// Scopes are pushed by Begin and may be released in any order. The zero value
// is an empty stack ready for use.
type Stack struct {
	mu      sync.Mutex
	id      string
	nodes   []node
	free    []nodeID
	current nodeID
	active  int
	inherit *inheritance
}

// NewStack creates an empty Stack.
func NewStack() *Stack {
	return &Stack{
		id:      uuid.NewString(),
		current: noNode,
	}
}

// ID returns the identifier of the stack, used to correlate diagnostics.
func (s *Stack) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.id == "" {
		s.id = uuid.NewString()
	}
	return s.id
}

// Begin opens a new scope on top of the stack. The scope becomes Current and
// remembers the previous Current as its parent.
func (s *Stack) Begin(action Action, target Target) (*Scope, error) {
	if err := validate(action, target); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.allocate()
	n := &s.nodes[id]
	scope := &Scope{stack: s, id: id, gen: n.gen, target: target}
	*n = node{
		scope:  scope,
		action: action,
		parent: s.current,
		child:  noNode,
		target: target,
		gen:    n.gen,
	}

	if s.current != noNode {
		s.nodes[s.current].child = id
	}
	s.current = id
	s.active++

	return scope, nil
}

// Current returns the most recently opened scope that is still active, or nil.
func (s *Stack) Current() *Scope {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == noNode {
		return nil
	}
	return s.nodes[s.current].scope
}

// Len returns the number of active scopes on the stack.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Enrich applies the scopes reachable from anchor to span, nearest scope first,
// and returns how many actions ran. AllChildren scopes always apply; a
// FirstChild scope applies once and is marked consumed.
//
// A nil anchor enriches nothing from this stack. An anchor that was released,
// or belongs to another stack, yields ErrScopeReleased.
//
// Actions run outside the stack lock. A panicking action propagates to the
// caller; FirstChild scopes claimed for actions that never ran are handed back.
func (s *Stack) Enrich(span trace.Span, anchor *Scope) (int, error) {
	claims, err := s.claim(anchor, nil)
	if err != nil {
		return 0, err
	}
	return applyClaims(span, claims), nil
}

func validate(action Action, target Target) error {
	if action == nil {
		return ErrNilAction
	}
	if !target.valid() {
		return fmt.Errorf("%w: %s", ErrInvalidTarget, target)
	}
	return nil
}

func (s *Stack) allocate() nodeID {
	if k := len(s.free); k > 0 {
		id := s.free[k-1]
		s.free = s.free[:k-1]
		return id
	}

	if len(s.nodes) == 0 {
		s.nodes = append(s.nodes, node{released: true})
	}
	s.nodes = append(s.nodes, node{parent: noNode, child: noNode})
	return nodeID(len(s.nodes) - 1)
}

// lookup resolves a live scope handle to its node. Callers must hold s.mu.
func (s *Stack) lookup(scope *Scope) (nodeID, bool) {
	if scope == nil || scope.stack != s {
		return noNode, false
	}
	if scope.id <= noNode || int(scope.id) >= len(s.nodes) {
		return noNode, false
	}

	n := &s.nodes[scope.id]
	if n.released || n.gen != scope.gen {
		return noNode, false
	}
	return scope.id, true
}

// Release removes scope from the chain wherever it sits. Its parent and child
// are linked to each other; Current moves only when scope was Current, to the
// child if there is one, otherwise to the parent. Releasing a scope that is
// already released or belongs to another stack returns ErrScopeReleased.
func (s *Stack) Release(scope *Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.lookup(scope)
	if !ok {
		return ErrScopeReleased
	}

	n := &s.nodes[id]
	parent, child := n.parent, n.child

	if child != noNode {
		s.nodes[child].parent = parent
	}
	if parent != noNode {
		s.nodes[parent].child = child
	}
	if s.current == id {
		if child != noNode {
			s.current = child
		} else {
			s.current = parent
		}
	}

	*n = node{
		parent:   noNode,
		child:    noNode,
		gen:      n.gen + 1,
		released: true,
	}
	s.free = append(s.free, id)
	s.active--

	return nil
}

func (s *Stack) fork() *Stack {
	forked := NewStack()

	if anchor := s.Current(); anchor != nil {
		forked.inherit = &inheritance{stack: s, anchor: anchor}
		return forked
	}

	s.mu.Lock()
	forked.inherit = s.inherit
	s.mu.Unlock()

	return forked
}

// claim collects the actions to run for a span anchored at anchor, marking
// FirstChild scopes consumed, then continues into the inherited chain.
func (s *Stack) claim(anchor *Scope, claims []claim) ([]claim, error) {
	s.mu.Lock()

	start := noNode
	if anchor != nil {
		id, ok := s.lookup(anchor)
		if !ok {
			s.mu.Unlock()
			return claims, ErrScopeReleased
		}
		start = id
	}

	for id := start; id != noNode; id = s.nodes[id].parent {
		n := &s.nodes[id]
		switch n.target {
		case AllChildren:
			claims = append(claims, claim{stack: s, id: id, gen: n.gen, action: n.action})
		case FirstChild:
			if n.consumed {
				continue
			}
			n.consumed = true
			claims = append(claims, claim{stack: s, id: id, gen: n.gen, action: n.action, once: true})
		}
	}

	inherit := s.inherit
	s.mu.Unlock()

	if inherit == nil {
		return claims, nil
	}

	inherited, err := inherit.stack.claim(inherit.anchor, claims)
	if err != nil {
		// the scope that was current at fork time has been closed
		return claims, nil
	}
	return inherited, nil
}

type claim struct {
	stack  *Stack
	action Action
	id     nodeID
	gen    uint32
	once   bool
}

func applyClaims(span trace.Span, claims []claim) (applied int) {
	defer func() {
		if applied < len(claims) {
			// claims[applied] panicked and counts as consumed
			for _, c := range claims[applied+1:] {
				c.unclaim()
			}
		}
	}()

	for _, c := range claims {
		c.action(span)
		applied++
	}
	return applied
}

func (c claim) unclaim() {
	if !c.once {
		return
	}

	c.stack.mu.Lock()
	defer c.stack.mu.Unlock()

	if c.id <= noNode || int(c.id) >= len(c.stack.nodes) {
		return
	}
	n := &c.stack.nodes[c.id]
	if !n.released && n.gen == c.gen {
		n.consumed = false
	}
}
