package repository

import (
	"context"
	"database/sql"

	"github.com/bassista/go_quill/internal/model"
	"github.com/google/uuid"
)

// LabelStore persists colored post labels.
type LabelStore struct {
	db *DB
}

const labelColumns = `id, name, color, description, created_at, updated_at, deleted_at`

func scanLabel(row scanner) (model.Label, error) {
	var (
		l                model.Label
		description      sql.NullString
		created          int64
		updated, deleted sql.NullInt64
	)
	if err := row.Scan(&l.ID, &l.Name, &l.Color, &description, &created, &updated, &deleted); err != nil {
		return model.Label{}, translate(err)
	}
	l.Description = stringPtr(description)
	l.CreatedAt = fromMillis(created)
	l.UpdatedAt = timePtr(updated)
	l.DeletedAt = timePtr(deleted)
	return l, nil
}

func (s *LabelStore) List(ctx context.Context, params model.ListParams) ([]model.Label, error) {
	limit, offset := page(params.Limit, params.Offset)
	rows, err := s.db.sqlDB.QueryContext(ctx,
		`SELECT `+labelColumns+` FROM labels ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Label{}
	for rows.Next() {
		l, err := scanLabel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *LabelStore) Get(ctx context.Context, id string) (model.Label, error) {
	return scanLabel(s.db.sqlDB.QueryRowContext(ctx, `SELECT `+labelColumns+` FROM labels WHERE id = ?`, id))
}

func (s *LabelStore) Create(ctx context.Context, in model.LabelInput) (model.Label, error) {
	id := uuid.NewString()
	_, err := s.db.sqlDB.ExecContext(ctx,
		`INSERT INTO labels (id, name, color, description, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, in.Name, in.Color, nullString(emptyToNil(in.Description)), toMillis(s.db.now()))
	if err != nil {
		return model.Label{}, translate(err)
	}
	return s.Get(ctx, id)
}

func (s *LabelStore) Update(ctx context.Context, id string, patch model.LabelPatch) (model.Label, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return model.Label{}, err
	}
	next := patch.Apply(current)
	err = mustAffect(s.db.sqlDB.ExecContext(ctx,
		`UPDATE labels SET name = ?, color = ?, description = ?, updated_at = ? WHERE id = ?`,
		next.Name, next.Color, nullString(next.Description), toMillis(s.db.now()), id))
	if err != nil {
		return model.Label{}, err
	}
	return s.Get(ctx, id)
}

func (s *LabelStore) Delete(ctx context.Context, id string) error {
	return mustAffect(s.db.sqlDB.ExecContext(ctx, `DELETE FROM labels WHERE id = ?`, id))
}
