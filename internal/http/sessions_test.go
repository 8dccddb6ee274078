package httpapi

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/mirror"
)

func TestSessionRegistryEvictsIdleStores(t *testing.T) {
	ctx := context.Background()
	reg := NewSessionRegistry(mirror.NewMemory(), nil, WithSessionIdle(10*time.Minute))
	now := time.Unix(0, 0)
	reg.now = func() time.Time { return now }

	first, err := reg.Store(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, first.AddToCart(ctx, cart.Product{ID: "p1", Price: decimal.NewFromInt(500)}, 2, cart.SizeM))

	_, err = reg.Store(ctx, "s2")
	require.NoError(t, err)
	again, err := reg.Store(ctx, "s1")
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, 2, reg.Len())

	// s2 stays busy while s1 goes idle
	now = now.Add(6 * time.Minute)
	_, err = reg.Store(ctx, "s2")
	require.NoError(t, err)
	now = now.Add(6 * time.Minute)
	_, err = reg.Store(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())

	// the evicted session comes back from the mirror
	back, err := reg.Store(ctx, "s1")
	require.NoError(t, err)
	assert.NotSame(t, first, back)
	require.Len(t, back.Items(), 1)
	assert.Equal(t, 2, back.Items()[0].Quantity)
}

func TestSessionRegistryRequiresID(t *testing.T) {
	reg := NewSessionRegistry(mirror.NewMemory(), nil)
	_, err := reg.Store(context.Background(), "")
	require.ErrorIs(t, err, ErrMissingSession)
	assert.Zero(t, reg.Len())
}
