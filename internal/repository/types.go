package repository

import (
	"context"
	"database/sql"

	"github.com/bassista/go_quill/internal/model"
	"github.com/google/uuid"
)

// TypeStore persists post categories.
type TypeStore struct {
	db *DB
}

const typeColumns = `id, name, description, created_at, updated_at, deleted_at`

func scanType(row scanner) (model.Type, error) {
	var (
		t                model.Type
		description      sql.NullString
		created          int64
		updated, deleted sql.NullInt64
	)
	if err := row.Scan(&t.ID, &t.Name, &description, &created, &updated, &deleted); err != nil {
		return model.Type{}, translate(err)
	}
	t.Description = stringPtr(description)
	t.CreatedAt = fromMillis(created)
	t.UpdatedAt = timePtr(updated)
	t.DeletedAt = timePtr(deleted)
	return t, nil
}

func (s *TypeStore) List(ctx context.Context, params model.ListParams) ([]model.Type, error) {
	limit, offset := page(params.Limit, params.Offset)
	rows, err := s.db.sqlDB.QueryContext(ctx,
		`SELECT `+typeColumns+` FROM types ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Type{}
	for rows.Next() {
		t, err := scanType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *TypeStore) Get(ctx context.Context, id string) (model.Type, error) {
	return scanType(s.db.sqlDB.QueryRowContext(ctx, `SELECT `+typeColumns+` FROM types WHERE id = ?`, id))
}

func (s *TypeStore) Create(ctx context.Context, in model.TypeInput) (model.Type, error) {
	id := uuid.NewString()
	_, err := s.db.sqlDB.ExecContext(ctx,
		`INSERT INTO types (id, name, description, created_at) VALUES (?, ?, ?, ?)`,
		id, in.Name, nullString(emptyToNil(in.Description)), toMillis(s.db.now()))
	if err != nil {
		return model.Type{}, translate(err)
	}
	return s.Get(ctx, id)
}

func (s *TypeStore) Update(ctx context.Context, id string, patch model.TypePatch) (model.Type, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return model.Type{}, err
	}
	next := patch.Apply(current)
	err = mustAffect(s.db.sqlDB.ExecContext(ctx,
		`UPDATE types SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		next.Name, nullString(next.Description), toMillis(s.db.now()), id))
	if err != nil {
		return model.Type{}, err
	}
	return s.Get(ctx, id)
}

func (s *TypeStore) Delete(ctx context.Context, id string) error {
	return mustAffect(s.db.sqlDB.ExecContext(ctx, `DELETE FROM types WHERE id = ?`, id))
}
