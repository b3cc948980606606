// Package enrichment lets calling code declare that every span started within a
// dynamic extent should receive extra attributes, without threading that intent
// through function signatures.
//
// A scope is opened with Begin and closed with Scope.Close, usually deferred:
//
//	ctx, scope, err := enrichment.Begin(ctx, enrichment.Attributes(attribute.String("tenant", id)), enrichment.AllChildren)
//	if err != nil {
//		return err
//	}
//	defer scope.Close()
//
// Scopes live on a per-flow Stack carried by the context. The Processor, registered on
// an sdktrace.TracerProvider, reads the stack from the context handed to tracer.Start
// and applies every eligible scope to the new span, nearest scope first.
//
// Scopes may be closed in any order. Closing a scope that is not the innermost one
// relinks its parent directly to its child and leaves the current scope untouched.
//
// A Stack is meant to be driven by one flow of control at a time. Goroutines that
// open their own scopes should call Fork to get a chain of their own that still
// sees the scopes active in the parent at the time of the fork.
package enrichment
