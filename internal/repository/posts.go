package repository

import (
	"context"
	"database/sql"

	"github.com/bassista/go_quill/internal/model"
)

// PostStore persists articles. Slugs are unique.
type PostStore struct {
	db *DB
}

const postColumns = `id, slug, title, cover_image, content, excerpt, author_id, label_id, type_id, created_at, updated_at, deleted_at`

func scanPost(row scanner) (model.Post, error) {
	var (
		p                model.Post
		author           sql.NullInt64
		label, typ       sql.NullString
		created          int64
		updated, deleted sql.NullInt64
	)
	if err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.CoverImage, &p.Content, &p.Excerpt,
		&author, &label, &typ, &created, &updated, &deleted); err != nil {
		return model.Post{}, translate(err)
	}
	p.AuthorID = int64Ptr(author)
	p.LabelID = stringPtr(label)
	p.TypeID = stringPtr(typ)
	p.CreatedAt = fromMillis(created)
	p.UpdatedAt = timePtr(updated)
	p.DeletedAt = timePtr(deleted)
	return p, nil
}

// List returns posts newest first. The "typeId" and "labelId" filters narrow the result.
func (s *PostStore) List(ctx context.Context, params model.ListParams) ([]model.Post, error) {
	limit, offset := page(params.Limit, params.Offset)
	query := `SELECT ` + postColumns + ` FROM posts WHERE 1 = 1`
	var args []any
	if v := params.Filters["typeId"]; v != "" {
		query += ` AND type_id = ?`
		args = append(args, v)
	}
	if v := params.Filters["labelId"]; v != "" {
		query += ` AND label_id = ?`
		args = append(args, v)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostStore) Get(ctx context.Context, id string) (model.Post, error) {
	n, err := serialID(id)
	if err != nil {
		return model.Post{}, err
	}
	return s.get(ctx, n)
}

func (s *PostStore) get(ctx context.Context, id int64) (model.Post, error) {
	return scanPost(s.db.sqlDB.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id))
}

// GetBySlug looks a post up by its public slug.
func (s *PostStore) GetBySlug(ctx context.Context, slug string) (model.Post, error) {
	return scanPost(s.db.sqlDB.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = ?`, slug))
}

func (s *PostStore) Create(ctx context.Context, in model.PostInput) (model.Post, error) {
	res, err := s.db.sqlDB.ExecContext(ctx,
		`INSERT INTO posts (slug, title, cover_image, content, excerpt, author_id, label_id, type_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Slug, in.Title, in.CoverImage, in.Content, in.Excerpt,
		nullInt64(in.AuthorID), nullString(emptyToNil(in.LabelID)), nullString(emptyToNil(in.TypeID)),
		toMillis(s.db.now()))
	if err != nil {
		return model.Post{}, translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Post{}, err
	}
	return s.get(ctx, id)
}

func (s *PostStore) Update(ctx context.Context, id string, patch model.PostPatch) (model.Post, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return model.Post{}, err
	}
	next := patch.Apply(current)
	err = mustAffect(s.db.sqlDB.ExecContext(ctx,
		`UPDATE posts SET slug = ?, title = ?, cover_image = ?, content = ?, excerpt = ?,
		        author_id = ?, label_id = ?, type_id = ?, updated_at = ?
		 WHERE id = ?`,
		next.Slug, next.Title, next.CoverImage, next.Content, next.Excerpt,
		nullInt64(next.AuthorID), nullString(next.LabelID), nullString(next.TypeID),
		toMillis(s.db.now()), current.ID))
	if err != nil {
		return model.Post{}, err
	}
	return s.get(ctx, current.ID)
}

func (s *PostStore) Delete(ctx context.Context, id string) error {
	n, err := serialID(id)
	if err != nil {
		return err
	}
	return mustAffect(s.db.sqlDB.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, n))
}
