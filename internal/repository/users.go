package repository

import (
	"context"
	"database/sql"

	"github.com/bassista/go_quill/internal/model"
)

// UserStore persists accounts. Emails and external ids are unique.
type UserStore struct {
	db *DB
}

const userColumns = `id, external_id, name, email, image, bio, role, created_at, updated_at, deleted_at`

func scanUser(row scanner) (model.User, error) {
	var (
		u                    model.User
		external, image, bio sql.NullString
		role                 string
		created              int64
		updated, deleted     sql.NullInt64
	)
	if err := row.Scan(&u.ID, &external, &u.Name, &u.Email, &image, &bio, &role,
		&created, &updated, &deleted); err != nil {
		return model.User{}, translate(err)
	}
	u.ExternalID = stringPtr(external)
	u.Image = stringPtr(image)
	u.Bio = stringPtr(bio)
	u.Role = model.Role(role)
	u.CreatedAt = fromMillis(created)
	u.UpdatedAt = timePtr(updated)
	u.DeletedAt = timePtr(deleted)
	return u, nil
}

func (s *UserStore) List(ctx context.Context, params model.ListParams) ([]model.User, error) {
	limit, offset := page(params.Limit, params.Offset)
	query := `SELECT ` + userColumns + ` FROM users`
	var args []any
	if v := params.Filters["role"]; v != "" {
		query += ` WHERE role = ?`
		args = append(args, v)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *UserStore) Get(ctx context.Context, id string) (model.User, error) {
	n, err := serialID(id)
	if err != nil {
		return model.User{}, err
	}
	return s.get(ctx, n)
}

func (s *UserStore) get(ctx context.Context, id int64) (model.User, error) {
	return scanUser(s.db.sqlDB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (s *UserStore) Create(ctx context.Context, in model.UserInput) (model.User, error) {
	role := in.Role
	if role == "" {
		role = model.RoleVisitor
	}
	res, err := s.db.sqlDB.ExecContext(ctx,
		`INSERT INTO users (external_id, name, email, image, bio, role, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nullString(emptyToNil(in.ExternalID)), in.Name, in.Email,
		nullString(emptyToNil(in.Image)), nullString(emptyToNil(in.Bio)), string(role),
		toMillis(s.db.now()))
	if err != nil {
		return model.User{}, translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return s.get(ctx, id)
}

func (s *UserStore) Update(ctx context.Context, id string, patch model.UserPatch) (model.User, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	next := patch.Apply(current)
	err = mustAffect(s.db.sqlDB.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, image = ?, bio = ?, role = ?, updated_at = ? WHERE id = ?`,
		next.Name, next.Email, nullString(next.Image), nullString(next.Bio), string(next.Role),
		toMillis(s.db.now()), current.ID))
	if err != nil {
		return model.User{}, err
	}
	return s.get(ctx, current.ID)
}

func (s *UserStore) Delete(ctx context.Context, id string) error {
	n, err := serialID(id)
	if err != nil {
		return err
	}
	return mustAffect(s.db.sqlDB.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, n))
}
