package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/ericfisherdev/discusswatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SeenStore = (*SeenRepo)(nil)

// seenAtLayout sorts lexically in chronological order.
const seenAtLayout = "2006-01-02T15:04:05Z"

// SeenRepo is the SQLite implementation of the SeenStore port interface.
type SeenRepo struct {
	db *DB
}

// NewSeenRepo creates a new SeenRepo backed by the given DB.
func NewSeenRepo(db *DB) *SeenRepo {
	return &SeenRepo{db: db}
}

// Seen returns whether the discussion was already announced.
func (r *SeenRepo) Seen(ctx context.Context, discussionID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM seen_discussions WHERE discussion_id = ?`
	var count int
	if err := r.db.Reader.QueryRowContext(ctx, query, discussionID).Scan(&count); err != nil {
		return false, fmt.Errorf("check seen discussion %s: %w", discussionID, err)
	}
	return count > 0, nil
}

// MarkSeen records the discussion as announced. Idempotent: the first
// recorded time is kept.
func (r *SeenRepo) MarkSeen(ctx context.Context, discussionID, repository string, at time.Time) error {
	const query = `INSERT OR IGNORE INTO seen_discussions (discussion_id, repository, seen_at) VALUES (?, ?, ?)`
	_, err := r.db.Writer.ExecContext(ctx, query, discussionID, repository, at.UTC().Format(seenAtLayout))
	if err != nil {
		return fmt.Errorf("mark discussion %s seen: %w", discussionID, err)
	}
	return nil
}

// Prune deletes entries recorded strictly before the given time.
func (r *SeenRepo) Prune(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM seen_discussions WHERE seen_at < ?`
	res, err := r.db.Writer.ExecContext(ctx, query, before.UTC().Format(seenAtLayout))
	if err != nil {
		return 0, fmt.Errorf("prune seen discussions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune seen discussions: rows affected: %w", err)
	}
	return n, nil
}

// Count returns the number of remembered discussions.
func (r *SeenRepo) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM seen_discussions`
	var count int
	if err := r.db.Reader.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count seen discussions: %w", err)
	}
	return count, nil
}
