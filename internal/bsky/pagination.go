package bsky

import "context"

// PageFunc fetches one page: items plus the next cursor, empty when the
// server has no further pages.
type PageFunc[T any] func(ctx context.Context, cursor string) ([]T, string, error)

// CollectAll walks a cursor-paginated endpoint to exhaustion: it only ever
// requests cursors the server returned, and stops when a response omits the
// cursor or repeats one (a repeated cursor would otherwise loop forever).
func CollectAll[T any](ctx context.Context, fetch PageFunc[T]) ([]T, error) {
	var (
		items  []T
		cursor string
		seen   = map[string]struct{}{}
	)
	for {
		page, next, err := fetch(ctx, cursor)
		if err != nil {
			return items, err
		}
		items = append(items, page...)

		if next == "" {
			return items, nil
		}
		if _, dup := seen[next]; dup {
			return items, nil
		}
		seen[next] = struct{}{}
		cursor = next
	}
}
