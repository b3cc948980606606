package enrichment

import "context"

type stackKey struct{}

// NewContext returns a copy of ctx carrying a new, empty Stack.
func NewContext(ctx context.Context) context.Context {
	return ContextWithStack(ctx, NewStack())
}

// ContextWithStack returns a copy of ctx carrying stack.
func ContextWithStack(ctx context.Context, stack *Stack) context.Context {
	return context.WithValue(ctx, stackKey{}, stack)
}

// FromContext returns the Stack carried by ctx, or nil.
func FromContext(ctx context.Context) *Stack {
	if ctx == nil {
		return nil
	}

	stack, _ := ctx.Value(stackKey{}).(*Stack)
	return stack
}

// Current returns the current scope of the stack carried by ctx, or nil.
func Current(ctx context.Context) *Scope {
	stack := FromContext(ctx)
	if stack == nil {
		return nil
	}
	return stack.Current()
}

// Begin opens a scope on the stack carried by ctx. When ctx has no stack yet,
// one is created and the returned context carries it; otherwise ctx is
// returned unchanged.
func Begin(ctx context.Context, action Action, target Target) (context.Context, *Scope, error) {
	if err := validate(action, target); err != nil {
		return ctx, nil, err
	}

	stack := FromContext(ctx)
	if stack == nil {
		stack = NewStack()
		ctx = ContextWithStack(ctx, stack)
	}

	scope, err := stack.Begin(action, target)
	if err != nil {
		return ctx, nil, err
	}
	return ctx, scope, nil
}

// BeginWith is Begin for an Enricher that takes a state value.
func BeginWith[T any](ctx context.Context, enricher Enricher[T], state T, target Target) (context.Context, *Scope, error) {
	return Begin(ctx, bind(enricher, state), target)
}

// Fork returns a copy of ctx carrying a new Stack for another goroutine.
// Scopes opened on the forked stack stay private to it, while spans started from
// it are still enriched by the scopes that were active in ctx at fork time.
func Fork(ctx context.Context) context.Context {
	parent := FromContext(ctx)
	if parent == nil {
		return NewContext(ctx)
	}
	return ContextWithStack(ctx, parent.fork())
}
