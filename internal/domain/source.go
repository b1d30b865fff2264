package domain

import "context"

// FeedSource fetches the collection described by a selector. Implementations
// must honour ctx cancellation; a cancelled fetch returns ctx's error.
type FeedSource interface {
	Fetch(ctx context.Context, sel Selector) (Collection, error)
}
