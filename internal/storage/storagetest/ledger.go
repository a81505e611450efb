// Package storagetest checks that a kitties.Ledger honours the store contract.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/pixil98/go-kitties/internal/kitties"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunLedgerTests runs the contract suite. newLedger must return an empty ledger
// for every call.
func RunLedgerTests(t *testing.T, newLedger func(t *testing.T) kitties.Ledger) {
	t.Run("empty", func(t *testing.T) {
		ctx := context.Background()
		l := newLedger(t)

		_, ok, err := l.KittiesCount(ctx)
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = l.Kitty(ctx, 1)
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = l.Owner(ctx, 1)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("put and get", func(t *testing.T) {
		ctx := context.Background()
		l := newLedger(t)
		dna := kitties.DNA{0xde, 0xad, 0xbe, 0xef}

		require.NoError(t, l.PutKitty(ctx, 7, kitties.Kitty{DNA: dna}))
		require.NoError(t, l.PutOwner(ctx, 7, "alice"))
		require.NoError(t, l.SetKittiesCount(ctx, 7))

		k, ok, err := l.Kitty(ctx, 7)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, dna, k.DNA)

		owner, ok, err := l.Owner(ctx, 7)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, kitties.AccountID("alice"), owner)

		count, ok, err := l.KittiesCount(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, kitties.KittyIndex(7), count)
	})

	t.Run("overwrite", func(t *testing.T) {
		ctx := context.Background()
		l := newLedger(t)

		require.NoError(t, l.PutOwner(ctx, 1, "alice"))
		require.NoError(t, l.PutOwner(ctx, 1, "bob"))
		require.NoError(t, l.SetKittiesCount(ctx, 1))
		require.NoError(t, l.SetKittiesCount(ctx, 2))

		owner, _, err := l.Owner(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, kitties.AccountID("bob"), owner)

		count, _, err := l.KittiesCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, kitties.KittyIndex(2), count)
	})

	t.Run("max id", func(t *testing.T) {
		ctx := context.Background()
		l := newLedger(t)

		require.NoError(t, l.SetKittiesCount(ctx, kitties.MaxKittyIndex))
		require.NoError(t, l.PutKitty(ctx, kitties.MaxKittyIndex, kitties.Kitty{}))

		count, _, err := l.KittiesCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, kitties.MaxKittyIndex, count)

		_, ok, err := l.Kitty(ctx, kitties.MaxKittyIndex)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("atomic commit", func(t *testing.T) {
		ctx := context.Background()
		l := newLedger(t)

		err := l.Atomic(ctx, func(ctx context.Context, st kitties.Store) error {
			require.NoError(t, st.PutKitty(ctx, 1, kitties.Kitty{DNA: kitties.DNA{1}}))
			require.NoError(t, st.PutOwner(ctx, 1, "alice"))
			require.NoError(t, st.SetKittiesCount(ctx, 1))

			count, ok, err := st.KittiesCount(ctx)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, kitties.KittyIndex(1), count)
			return nil
		})
		require.NoError(t, err)

		owner, ok, err := l.Owner(ctx, 1)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, kitties.AccountID("alice"), owner)
	})

	t.Run("atomic rollback", func(t *testing.T) {
		ctx := context.Background()
		l := newLedger(t)
		require.NoError(t, l.PutOwner(ctx, 1, "alice"))

		errBoom := errors.New("boom")
		err := l.Atomic(ctx, func(ctx context.Context, st kitties.Store) error {
			require.NoError(t, st.PutOwner(ctx, 1, "mallory"))
			require.NoError(t, st.PutKitty(ctx, 2, kitties.Kitty{}))
			require.NoError(t, st.SetKittiesCount(ctx, 2))
			return errBoom
		})
		require.ErrorIs(t, err, errBoom)

		owner, _, err := l.Owner(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, kitties.AccountID("alice"), owner)

		_, ok, err := l.Kitty(ctx, 2)
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = l.KittiesCount(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
