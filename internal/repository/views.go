package repository

import (
	"context"
)

// ViewStore counts post visits.
type ViewStore struct {
	db *DB
}

// RecordView increments the visit counter of the post with the given slug
// and returns the new count.
func (s *ViewStore) RecordView(ctx context.Context, slug string) (int64, error) {
	var postID int64
	if err := s.db.sqlDB.QueryRowContext(ctx, `SELECT id FROM posts WHERE slug = ?`, slug).Scan(&postID); err != nil {
		return 0, translate(err)
	}
	var count int64
	err := s.db.sqlDB.QueryRowContext(ctx,
		`INSERT INTO post_views (post_id, views_count, updated_at) VALUES (?, 1, ?)
		 ON CONFLICT(post_id) DO UPDATE SET views_count = views_count + 1, updated_at = excluded.updated_at
		 RETURNING views_count`,
		postID, toMillis(s.db.now())).Scan(&count)
	if err != nil {
		return 0, translate(err)
	}
	return count, nil
}

// Count returns the visits of one post; unseen posts have zero.
func (s *ViewStore) Count(ctx context.Context, slug string) (int64, error) {
	var count int64
	err := s.db.sqlDB.QueryRowContext(ctx,
		`SELECT COALESCE(v.views_count, 0) FROM posts p LEFT JOIN post_views v ON v.post_id = p.id WHERE p.slug = ?`,
		slug).Scan(&count)
	if err != nil {
		return 0, translate(err)
	}
	return count, nil
}
