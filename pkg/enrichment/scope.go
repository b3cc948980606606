package enrichment

import "fmt"

// Scope is the owning handle of an enrichment scope returned by Begin.
// Close must be called exactly once, typically with defer.
type Scope struct {
	stack  *Stack
	id     nodeID
	gen    uint32
	target Target
}

// Close releases the scope. The scope may be anywhere in its chain; its parent
// and child are linked to each other. Closing a scope twice returns
// ErrScopeReleased and leaves the chain untouched.
func (s *Scope) Close() error {
	if !s.bound() {
		return ErrScopeReleased
	}
	if err := s.stack.Release(s); err != nil {
		return fmt.Errorf("close %s scope: %w", s.target, err)
	}
	return nil
}

// Target returns the target the scope was opened with.
func (s *Scope) Target() Target {
	return s.target
}

// Stack returns the stack the scope belongs to.
func (s *Scope) Stack() *Stack {
	if s == nil {
		return nil
	}
	return s.stack
}

// Released reports whether the scope has been closed. A nil or zero Scope
// counts as released.
func (s *Scope) Released() bool {
	if !s.bound() {
		return true
	}

	s.stack.mu.Lock()
	defer s.stack.mu.Unlock()

	_, ok := s.stack.lookup(s)
	return !ok
}

// Consumed reports whether a FirstChild scope has already enriched a span.
// It is always false for AllChildren scopes and for released scopes.
func (s *Scope) Consumed() bool {
	if !s.bound() {
		return false
	}

	s.stack.mu.Lock()
	defer s.stack.mu.Unlock()

	id, ok := s.stack.lookup(s)
	if !ok {
		return false
	}
	return s.stack.nodes[id].consumed
}

// Parent returns the scope that was current when this one began, after any
// relinking caused by out-of-order releases. It is nil for the root scope and
// for released scopes.
func (s *Scope) Parent() *Scope {
	return s.link(func(n *node) nodeID { return n.parent })
}

// Child returns the scope opened directly on top of this one, or nil.
func (s *Scope) Child() *Scope {
	return s.link(func(n *node) nodeID { return n.child })
}

func (s *Scope) link(next func(*node) nodeID) *Scope {
	if !s.bound() {
		return nil
	}

	s.stack.mu.Lock()
	defer s.stack.mu.Unlock()

	id, ok := s.stack.lookup(s)
	if !ok {
		return nil
	}

	linked := next(&s.stack.nodes[id])
	if linked == noNode {
		return nil
	}
	return s.stack.nodes[linked].scope
}

func (s *Scope) bound() bool {
	return s != nil && s.stack != nil
}
