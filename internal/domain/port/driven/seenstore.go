package driven

import (
	"context"
	"time"
)

// SeenStore defines the driven port for remembering which discussions were
// already announced. It is optional: without it every matching run
// re-announces the same discussions.
type SeenStore interface {
	Seen(ctx context.Context, discussionID string) (bool, error)
	// MarkSeen is idempotent.
	MarkSeen(ctx context.Context, discussionID, repository string, at time.Time) error
	// Prune deletes entries recorded before the given time and returns how many were removed.
	Prune(ctx context.Context, before time.Time) (int64, error)
}
