package bsky_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hobosky/hobosky-go/internal/bsky"
)

func TestCollectAll(t *testing.T) {
	t.Run("walks pages until the cursor is omitted", func(t *testing.T) {
		pages := map[string]struct {
			items []int
			next  string
		}{
			"":   {items: []int{1, 2}, next: "p2"},
			"p2": {items: []int{3}, next: "p3"},
			"p3": {items: []int{4, 5}, next: ""},
		}
		var requested []string

		items, err := bsky.CollectAll(context.Background(), func(ctx context.Context, cursor string) ([]int, string, error) {
			requested = append(requested, cursor)
			page := pages[cursor]
			return page.items, page.next, nil
		})

		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3, 4, 5}, items)
		assert.Equal(t, []string{"", "p2", "p3"}, requested)
	})

	t.Run("only requests cursors the server returned", func(t *testing.T) {
		var requested []string
		_, err := bsky.CollectAll(context.Background(), func(ctx context.Context, cursor string) ([]string, string, error) {
			requested = append(requested, cursor)
			if cursor == "" {
				return []string{"a"}, "server-issued", nil
			}
			return []string{"b"}, "", nil
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"", "server-issued"}, requested)
	})

	t.Run("terminates when the server repeats a cursor", func(t *testing.T) {
		calls := 0
		items, err := bsky.CollectAll(context.Background(), func(ctx context.Context, cursor string) ([]int, string, error) {
			calls++
			return []int{calls}, "stuck", nil
		})

		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, items)
		assert.Equal(t, 2, calls)
	})

	t.Run("empty first page with no cursor yields no items", func(t *testing.T) {
		items, err := bsky.CollectAll(context.Background(), func(ctx context.Context, cursor string) ([]int, string, error) {
			return nil, "", nil
		})

		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("returns the items gathered before a failing page", func(t *testing.T) {
		boom := errors.New("boom")
		items, err := bsky.CollectAll(context.Background(), func(ctx context.Context, cursor string) ([]int, string, error) {
			if cursor == "p2" {
				return nil, "", boom
			}
			return []int{1}, "p2", nil
		})

		require.ErrorIs(t, err, boom)
		assert.Equal(t, []int{1}, items)
	})
}
