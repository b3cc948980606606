package enrichment_test

import (
	"context"
	"testing"

	"github.com/JailtonJunior94/otel-enrichment/pkg/enrichment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestFromContext(t *testing.T) {
	//nolint:staticcheck // nil context is part of the contract
	assert.Nil(t, enrichment.FromContext(nil))
	assert.Nil(t, enrichment.FromContext(context.Background()))
	assert.Nil(t, enrichment.Current(context.Background()))

	stack := enrichment.NewStack()
	ctx := enrichment.ContextWithStack(context.Background(), stack)
	assert.Same(t, stack, enrichment.FromContext(ctx))
}

func TestBegin_CreatesStackLazily(t *testing.T) {
	ctx := context.Background()

	scopeCtx, scope, err := enrichment.Begin(ctx, enrichmentAction, enrichment.AllChildren)
	require.NoError(t, err)
	require.NotNil(t, enrichment.FromContext(scopeCtx))
	assert.Same(t, scope, enrichment.Current(scopeCtx))
	assert.Same(t, enrichment.FromContext(scopeCtx), scope.Stack())

	sameCtx, nested, err := enrichment.Begin(scopeCtx, enrichmentAction, enrichment.FirstChild)
	require.NoError(t, err)
	assert.Equal(t, scopeCtx, sameCtx)
	assert.Same(t, nested, enrichment.Current(scopeCtx))
	assert.Same(t, scope, nested.Parent())
	assert.Same(t, nested, scope.Child())

	require.NoError(t, nested.Close())
	require.NoError(t, scope.Close())
	assert.Nil(t, enrichment.Current(scopeCtx))
	assert.Zero(t, enrichment.FromContext(scopeCtx).Len())
}

func TestBegin_Validation(t *testing.T) {
	ctx := context.Background()

	got, scope, err := enrichment.Begin(ctx, nil, enrichment.FirstChild)
	assert.ErrorIs(t, err, enrichment.ErrNilAction)
	assert.Nil(t, scope)
	assert.Nil(t, enrichment.FromContext(got))

	_, scope, err = enrichment.Begin(ctx, enrichmentAction, enrichment.Target(42))
	assert.ErrorIs(t, err, enrichment.ErrInvalidTarget)
	assert.Nil(t, scope)

	_, scope, err = enrichment.BeginWith[string](ctx, nil, "state", enrichment.AllChildren)
	assert.ErrorIs(t, err, enrichment.ErrNilAction)
	assert.Nil(t, scope)
}

func TestScope_CloseTwice(t *testing.T) {
	ctx, scope, err := enrichment.Begin(context.Background(), enrichmentAction, enrichment.AllChildren)
	require.NoError(t, err)

	require.NoError(t, scope.Close())
	assert.True(t, scope.Released())

	err = scope.Close()
	assert.ErrorIs(t, err, enrichment.ErrScopeReleased)
	assert.Contains(t, err.Error(), "all_children")
	assert.Zero(t, enrichment.FromContext(ctx).Len())
}

func TestBeginWith_BindsStateAtCreation(t *testing.T) {
	var seen []int
	enricher := enrichment.Enricher[int](func(_ trace.Span, state int) {
		seen = append(seen, state)
	})

	ctx := context.Background()
	state := 1
	ctx, first, err := enrichment.BeginWith(ctx, enricher, state, enrichment.AllChildren)
	require.NoError(t, err)
	state = 2
	_, second, err := enrichment.BeginWith(ctx, enricher, state, enrichment.AllChildren)
	require.NoError(t, err)

	stack := enrichment.FromContext(ctx)
	applied, err := stack.Enrich(nil, stack.Current())
	require.NoError(t, err)
	assert.Equal(t, 2, applied)
	assert.Equal(t, []int{2, 1}, seen)

	require.NoError(t, first.Close())
	require.NoError(t, second.Close())
}

func TestFork(t *testing.T) {
	t.Run("without stack", func(t *testing.T) {
		ctx := enrichment.Fork(context.Background())
		stack := enrichment.FromContext(ctx)
		require.NotNil(t, stack)
		assert.Zero(t, stack.Len())
	})

	t.Run("scopes stay private", func(t *testing.T) {
		ctx, scope, err := enrichment.Begin(context.Background(), enrichmentAction, enrichment.AllChildren)
		require.NoError(t, err)
		defer scope.Close()

		forked := enrichment.Fork(ctx)
		assert.NotSame(t, enrichment.FromContext(ctx), enrichment.FromContext(forked))
		assert.Nil(t, enrichment.Current(forked))

		_, private, err := enrichment.Begin(forked, enrichmentAction, enrichment.FirstChild)
		require.NoError(t, err)
		assert.Same(t, scope, enrichment.Current(ctx))
		assert.Same(t, private, enrichment.Current(forked))
		assert.Nil(t, private.Parent())

		assert.ErrorIs(t, enrichment.FromContext(ctx).Release(private), enrichment.ErrScopeReleased)
		require.NoError(t, private.Close())
	})
}
