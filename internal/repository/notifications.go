package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/bassista/go_quill/internal/model"
)

const (
	// NotificationWindow is how far back new posts and users are reported.
	NotificationWindow = 7 * 24 * time.Hour
	// ViewMilestone is the view count from which a post is reported.
	ViewMilestone = 10
)

// NotificationStore derives the admin activity feed from recent rows.
type NotificationStore struct {
	db *DB
}

// Recent returns new posts, new users and view milestones, newest first.
func (s *NotificationStore) Recent(ctx context.Context) ([]model.AdminNotification, error) {
	since := toMillis(s.db.now().Add(-NotificationWindow))
	out := []model.AdminNotification{}

	err := s.collect(ctx, &out,
		`SELECT id, title, excerpt, created_at FROM posts WHERE created_at >= ? ORDER BY created_at DESC`,
		[]any{since},
		func(rows *sql.Rows) (model.AdminNotification, error) {
			var (
				id             int64
				title, excerpt string
				created        int64
			)
			if err := rows.Scan(&id, &title, &excerpt, &created); err != nil {
				return model.AdminNotification{}, err
			}
			if excerpt == "" {
				excerpt = "A new blog post has been published"
			}
			return model.AdminNotification{
				ID:        "post-" + strconv.FormatInt(id, 10),
				Type:      model.NotificationPostCreated,
				Title:     "New Post: " + title,
				Message:   excerpt,
				Timestamp: fromMillis(created),
				Priority:  2,
			}, nil
		})
	if err != nil {
		return nil, err
	}

	err = s.collect(ctx, &out,
		`SELECT id, name, email, created_at FROM users WHERE created_at >= ? ORDER BY created_at DESC`,
		[]any{since},
		func(rows *sql.Rows) (model.AdminNotification, error) {
			var (
				id          int64
				name, email string
				created     int64
			)
			if err := rows.Scan(&id, &name, &email, &created); err != nil {
				return model.AdminNotification{}, err
			}
			return model.AdminNotification{
				ID:        "user-" + strconv.FormatInt(id, 10),
				Type:      model.NotificationUserJoined,
				Title:     "New User: " + name,
				Message:   email + " joined",
				Timestamp: fromMillis(created),
				Priority:  1,
			}, nil
		})
	if err != nil {
		return nil, err
	}

	err = s.collect(ctx, &out,
		`SELECT p.id, p.title, v.views_count, v.updated_at
  FROM post_views v JOIN posts p ON p.id = v.post_id
  WHERE v.views_count >= ?
  ORDER BY v.views_count DESC`,
		[]any{ViewMilestone},
		func(rows *sql.Rows) (model.AdminNotification, error) {
			var (
				id      int64
				title   string
				count   int64
				updated int64
			)
			if err := rows.Scan(&id, &title, &count, &updated); err != nil {
				return model.AdminNotification{}, err
			}
			return model.AdminNotification{
				ID:        "milestone-" + strconv.FormatInt(id, 10),
				Type:      model.NotificationViewMilestone,
				Title:     "Milestone: " + title,
				Message:   fmt.Sprintf("%q reached %d views!", title, count),
				Timestamp: fromMillis(updated),
				Priority:  3,
			}, nil
		})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (s *NotificationStore) collect(ctx context.Context, out *[]model.AdminNotification, query string, args []any,
	scan func(*sql.Rows) (model.AdminNotification, error)) error {
	rows, err := s.db.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return translate(err)
	}
	defer rows.Close()
	for rows.Next() {
		n, err := scan(rows)
		if err != nil {
			return err
		}
		*out = append(*out, n)
	}
	return rows.Err()
}
