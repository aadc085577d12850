package ports

import (
	"context"

	"agentdash/domain/lookup"
)

// LookupClient runs one search query against an external provider.
// Implementations never retry and never return an error: transport and
// protocol failures come back as a failure Result for that query.
type LookupClient interface {
	Search(ctx context.Context, query string) lookup.Result
}

// LookupClientFunc adapts a function to LookupClient
type LookupClientFunc func(ctx context.Context, query string) lookup.Result

// Search calls f
func (f LookupClientFunc) Search(ctx context.Context, query string) lookup.Result {
	return f(ctx, query)
}
