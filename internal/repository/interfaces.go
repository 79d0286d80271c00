package repository

import (
	"context"

	"github.com/bassista/go_quill/internal/model"
)

// Store is the CRUD surface shared by every resource table.
type Store[T any, C any, U any] interface {
	List(ctx context.Context, params model.ListParams) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, in C) (T, error)
	Update(ctx context.Context, id string, patch U) (T, error)
	Delete(ctx context.Context, id string) error
}

var (
	_ Store[model.Type, model.TypeInput, model.TypePatch]          = (*TypeStore)(nil)
	_ Store[model.Label, model.LabelInput, model.LabelPatch]       = (*LabelStore)(nil)
	_ Store[model.Post, model.PostInput, model.PostPatch]          = (*PostStore)(nil)
	_ Store[model.Comment, model.CommentInput, model.CommentPatch] = (*CommentStore)(nil)
	_ Store[model.User, model.UserInput, model.UserPatch]          = (*UserStore)(nil)
)
