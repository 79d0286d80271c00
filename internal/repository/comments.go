package repository

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/bassista/go_quill/internal/model"
)

// CommentStore persists comments together with their author projection.
type CommentStore struct {
	db *DB
}

const commentSelect = `SELECT c.id, c.content, c.author_id, c.post_id, c.parent_id,
       c.created_at, c.updated_at, c.deleted_at,
       u.id, u.name, u.image, u.role
  FROM comments c
  LEFT JOIN users u ON u.id = c.author_id`

func scanComment(row scanner) (model.Comment, error) {
	var (
		c                         model.Comment
		author, parent            sql.NullInt64
		created                   int64
		updated, deleted          sql.NullInt64
		userID                    sql.NullInt64
		userName, userImage, role sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Content, &author, &c.PostID, &parent,
		&created, &updated, &deleted,
		&userID, &userName, &userImage, &role); err != nil {
		return model.Comment{}, translate(err)
	}
	c.AuthorID = int64Ptr(author)
	c.ParentID = int64Ptr(parent)
	c.CreatedAt = fromMillis(created)
	c.UpdatedAt = timePtr(updated)
	c.DeletedAt = timePtr(deleted)
	if userID.Valid {
		c.Author = &model.CommentAuthor{
			ID:    userID.Int64,
			Name:  userName.String,
			Image: stringPtr(userImage),
			Role:  model.Role(role.String),
		}
	}
	return c, nil
}

// List returns comments newest first; the "postId" filter restricts them to one post.
func (s *CommentStore) List(ctx context.Context, params model.ListParams) ([]model.Comment, error) {
	limit, offset := page(params.Limit, params.Offset)
	query := commentSelect
	var args []any
	if v := params.Filters["postId"]; v != "" {
		postID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return []model.Comment{}, nil
		}
		query += ` WHERE c.post_id = ?`
		args = append(args, postID)
	}
	query += ` ORDER BY c.created_at DESC, c.id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *CommentStore) Get(ctx context.Context, id string) (model.Comment, error) {
	n, err := serialID(id)
	if err != nil {
		return model.Comment{}, err
	}
	return s.get(ctx, n)
}

func (s *CommentStore) get(ctx context.Context, id int64) (model.Comment, error) {
	return scanComment(s.db.sqlDB.QueryRowContext(ctx, commentSelect+` WHERE c.id = ?`, id))
}

func (s *CommentStore) Create(ctx context.Context, in model.CommentInput) (model.Comment, error) {
	res, err := s.db.sqlDB.ExecContext(ctx,
		`INSERT INTO comments (content, author_id, post_id, parent_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		in.Content, nullInt64(in.AuthorID), in.PostID, nullInt64(in.ParentID), toMillis(s.db.now()))
	if err != nil {
		return model.Comment{}, translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Comment{}, err
	}
	return s.get(ctx, id)
}

func (s *CommentStore) Update(ctx context.Context, id string, patch model.CommentPatch) (model.Comment, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return model.Comment{}, err
	}
	next := patch.Apply(current)
	err = mustAffect(s.db.sqlDB.ExecContext(ctx,
		`UPDATE comments SET content = ?, updated_at = ? WHERE id = ?`,
		next.Content, toMillis(s.db.now()), current.ID))
	if err != nil {
		return model.Comment{}, err
	}
	return s.get(ctx, current.ID)
}

func (s *CommentStore) Delete(ctx context.Context, id string) error {
	n, err := serialID(id)
	if err != nil {
		return err
	}
	return mustAffect(s.db.sqlDB.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, n))
}
