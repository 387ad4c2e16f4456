package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/checklist/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunClaimerContract verifies that a Claimer implementation adheres to the port contract.
// first and second must share a backend, as two replicas would.
func RunClaimerContract(t *testing.T, first, second ports.Claimer) {
	t.Helper()
	ctx := context.Background()
	key := "contract-" + time.Now().Format("20060102150405.000000")

	t.Run("Exclusive", func(t *testing.T) {
		release, ok, err := first.Claim(ctx, key, time.Minute)
		require.NoError(t, err)
		require.True(t, ok, "first claim must succeed")

		_, ok, err = second.Claim(ctx, key, time.Minute)
		require.NoError(t, err)
		assert.False(t, ok, "second replica must not get a held key")

		require.NoError(t, release(ctx))

		release, ok, err = second.Claim(ctx, key, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "released key must be claimable")
		require.NoError(t, release(ctx))
	})

	t.Run("Independent_Keys", func(t *testing.T) {
		r1, ok, err := first.Claim(ctx, key+"-a", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)
		defer r1(ctx)

		r2, ok, err := second.Claim(ctx, key+"-b", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)
		defer r2(ctx)
	})

	t.Run("Stale_Release_Is_Harmless", func(t *testing.T) {
		release, ok, err := first.Claim(ctx, key+"-stale", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, release(ctx))

		other, ok, err := second.Claim(ctx, key+"-stale", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		// Releasing twice must not drop the claim now held by someone else.
		require.NoError(t, release(ctx))
		_, ok, err = first.Claim(ctx, key+"-stale", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, other(ctx))
	})
}
