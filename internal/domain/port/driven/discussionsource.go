package driven

import (
	"context"

	"github.com/ericfisherdev/discusswatch/internal/domain/model"
)

// DiscussionSource defines the driven port for fetching an owner's
// repositories and their most recently updated discussions.
// A returned error means the whole run must abort; no partial result is
// returned alongside an error.
type DiscussionSource interface {
	FetchDiscussions(ctx context.Context, owner string) (*model.FetchResult, error)
}
