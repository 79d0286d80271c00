package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/bassista/go_quill/internal/model"
)

// DefaultSearchLimit caps the hits of a text search.
const DefaultSearchLimit = 10

// SearchStore runs text searches over posts.
type SearchStore struct {
	db *DB
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Posts matches query against title, excerpt, content and label name, newest
// first. A non-empty typeID restricts hits to that type.
func (s *SearchStore) Posts(ctx context.Context, query, typeID string, limit int) ([]model.SearchHit, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	pattern := "%" + likeEscaper.Replace(strings.TrimSpace(query)) + "%"
	stmt := `SELECT p.id, p.slug, p.title, p.excerpt, p.cover_image, p.created_at, l.name, t.name, u.name
  FROM posts p
  LEFT JOIN labels l ON l.id = p.label_id
  LEFT JOIN types t ON t.id = p.type_id
  LEFT JOIN users u ON u.id = p.author_id
 WHERE (p.title LIKE ? ESCAPE '\' OR p.excerpt LIKE ? ESCAPE '\'
        OR p.content LIKE ? ESCAPE '\' OR l.name LIKE ? ESCAPE '\')`
	args := []any{pattern, pattern, pattern, pattern}
	if typeID != "" {
		stmt += ` AND p.type_id = ?`
		args = append(args, typeID)
	}
	stmt += ` ORDER BY p.created_at DESC, p.id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.sqlDB.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hits := []model.SearchHit{}
	for rows.Next() {
		var (
			h                  model.SearchHit
			created            int64
			label, typ, author sql.NullString
		)
		if err := rows.Scan(&h.ID, &h.Slug, &h.Title, &h.Excerpt, &h.CoverImage, &created,
			&label, &typ, &author); err != nil {
			return nil, err
		}
		h.CreatedAt = fromMillis(created)
		h.Label = stringPtr(label)
		h.Type = stringPtr(typ)
		h.Author = stringPtr(author)
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
