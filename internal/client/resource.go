package client

import (
	"context"
	"net/http"

	"github.com/bassista/go_quill/internal/model"
)

// Resource is the typed CRUD surface of one REST resource: T is the entity,
// C its create input and U its patch.
type Resource[T, C, U any] struct {
	http *HTTP
	name string
}

func NewResource[T, C, U any](h *HTTP, name string) *Resource[T, C, U] {
	return &Resource[T, C, U]{http: h, name: name}
}

// Name is the resource's path segment, e.g. "types".
func (r *Resource[T, C, U]) Name() string { return r.name }

func (r *Resource[T, C, U]) List(ctx context.Context, params model.ListParams) ([]T, error) {
	var items []T
	if err := r.http.Do(ctx, http.MethodGet, resourcePath(r.name), listQuery(params), nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (r *Resource[T, C, U]) Get(ctx context.Context, id string) (T, error) {
	var item T
	err := r.http.Do(ctx, http.MethodGet, resourcePath(r.name, id), nil, nil, &item)
	return item, err
}

// Reply is a decoded entity together with the server's message.
type Reply[T any] struct {
	Data    T
	Message string
}

// Validate checks a create input or patch the way Create and Update do.
func (r *Resource[T, C, U]) Validate(v any) error {
	return r.http.Check(v)
}

// Create validates in locally and only then sends it.
func (r *Resource[T, C, U]) Create(ctx context.Context, in C) (T, error) {
	reply, err := r.CreateReply(ctx, in)
	return reply.Data, err
}

func (r *Resource[T, C, U]) CreateReply(ctx context.Context, in C) (Reply[T], error) {
	var reply Reply[T]
	if err := r.http.Check(in); err != nil {
		return reply, err
	}
	msg, err := r.http.Send(ctx, http.MethodPost, resourcePath(r.name), nil, in, &reply.Data)
	reply.Message = msg
	return reply, err
}

// Update validates patch locally and only then sends it. Nil patch fields
// are omitted from the body.
func (r *Resource[T, C, U]) Update(ctx context.Context, id string, patch U) (T, error) {
	reply, err := r.UpdateReply(ctx, id, patch)
	return reply.Data, err
}

func (r *Resource[T, C, U]) UpdateReply(ctx context.Context, id string, patch U) (Reply[T], error) {
	var reply Reply[T]
	if err := r.http.Check(patch); err != nil {
		return reply, err
	}
	msg, err := r.http.Send(ctx, http.MethodPatch, resourcePath(r.name, id), nil, patch, &reply.Data)
	reply.Message = msg
	return reply, err
}

func (r *Resource[T, C, U]) Delete(ctx context.Context, id string) error {
	_, err := r.DeleteReply(ctx, id)
	return err
}

func (r *Resource[T, C, U]) DeleteReply(ctx context.Context, id string) (string, error) {
	return r.http.Send(ctx, http.MethodDelete, resourcePath(r.name, id), nil, nil, nil)
}

// Blog groups the resources of the blog API.
type Blog struct {
	HTTP     *HTTP
	Types    *Resource[model.Type, model.TypeInput, model.TypePatch]
	Labels   *Resource[model.Label, model.LabelInput, model.LabelPatch]
	Posts    *Resource[model.Post, model.PostInput, model.PostPatch]
	Comments *Resource[model.Comment, model.CommentInput, model.CommentPatch]
	Users    *Resource[model.User, model.UserInput, model.UserPatch]
	Views    *ViewRecorder
	Insights *Insights
}

func NewBlog(h *HTTP) *Blog {
	return &Blog{
		HTTP:     h,
		Types:    NewResource[model.Type, model.TypeInput, model.TypePatch](h, "types"),
		Labels:   NewResource[model.Label, model.LabelInput, model.LabelPatch](h, "labels"),
		Posts:    NewResource[model.Post, model.PostInput, model.PostPatch](h, "posts"),
		Comments: NewResource[model.Comment, model.CommentInput, model.CommentPatch](h, "comments"),
		Users:    NewResource[model.User, model.UserInput, model.UserPatch](h, "users"),
		Views:    NewViewRecorder(h),
		Insights: &Insights{http: h},
	}
}
