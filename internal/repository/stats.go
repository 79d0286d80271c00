package repository

import (
	"context"
	"time"

	"github.com/bassista/go_quill/internal/model"
	"golang.org/x/sync/errgroup"
)

// StatsStore aggregates dashboard figures.
type StatsStore struct {
	db *DB
}

// Dashboard computes totals and month-over-month trends for posts and users.
func (s *StatsStore) Dashboard(ctx context.Context) (model.DashboardStats, error) {
	now := s.db.now().UTC()
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	lastMonth := thisMonth.AddDate(0, -1, 0)

	var (
		postsTotal, postsCurrent, postsLast int64
		usersTotal, usersCurrent, usersLast int64
		labels, comments, views             int64
	)

	g, ctx := errgroup.WithContext(ctx)
	count := func(dst *int64, query string, args ...any) {
		g.Go(func() error {
			return s.db.sqlDB.QueryRowContext(ctx, query, args...).Scan(dst)
		})
	}
	const (
		monthly = ` WHERE created_at >= ? AND created_at < ?`
		far     = int64(1<<63 - 1)
	)
	count(&postsTotal, `SELECT COUNT(*) FROM posts`)
	count(&postsCurrent, `SELECT COUNT(*) FROM posts`+monthly, toMillis(thisMonth), far)
	count(&postsLast, `SELECT COUNT(*) FROM posts`+monthly, toMillis(lastMonth), toMillis(thisMonth))
	count(&usersTotal, `SELECT COUNT(*) FROM users`)
	count(&usersCurrent, `SELECT COUNT(*) FROM users`+monthly, toMillis(thisMonth), far)
	count(&usersLast, `SELECT COUNT(*) FROM users`+monthly, toMillis(lastMonth), toMillis(thisMonth))
	count(&labels, `SELECT COUNT(*) FROM labels`)
	count(&comments, `SELECT COUNT(*) FROM comments`)
	count(&views, `SELECT COALESCE(SUM(views_count), 0) FROM post_views`)

	if err := g.Wait(); err != nil {
		return model.DashboardStats{}, err
	}
	return model.DashboardStats{
		Posts:    model.NewTrend(postsTotal, postsCurrent, postsLast),
		Users:    model.NewTrend(usersTotal, usersCurrent, usersLast),
		Labels:   model.TotalStats{Total: labels},
		Comments: model.TotalStats{Total: comments},
		Views:    model.TotalStats{Total: views},
	}, nil
}
