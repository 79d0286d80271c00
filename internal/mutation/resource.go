package mutation

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bassista/go_quill/internal/client"
	"github.com/bassista/go_quill/internal/model"
	"github.com/bassista/go_quill/internal/notify"
	"github.com/bassista/go_quill/internal/querycache"
)

// Keys builds the query keys of one resource.
type Keys struct {
	Resource string
}

func (k Keys) All() querycache.Key     { return querycache.Key{Resource: k.Resource} }
func (k Keys) Lists() querycache.Key   { return querycache.Key{Resource: k.Resource, Kind: querycache.KindList} }
func (k Keys) Details() querycache.Key { return querycache.Key{Resource: k.Resource, Kind: querycache.KindDetail} }

func (k Keys) List(params model.ListParams) querycache.Key {
	return querycache.ListKey(k.Resource, params.AsMap())
}

func (k Keys) Detail(id string) querycache.Key {
	return querycache.DetailKey(k.Resource, id)
}

// FirstPage accepts a new item into unpaginated lists and first pages only.
func FirstPage[T any](params map[string]string, _ T) bool {
	off := params["offset"]
	return off == "" || off == "0"
}

// Resource binds a REST resource to the query cache: reads go through the
// cache, writes through the coordinator.
type Resource[T model.Entity, C model.Draft[T], U model.Patch[T]] struct {
	Keys Keys

	api      *client.Resource[T, C, U]
	co       *Coordinator
	alloc    *Allocator
	singular string
	belongs  func(params map[string]string, item T) bool
	now      func() time.Time
}

func NewResource[T model.Entity, C model.Draft[T], U model.Patch[T]](api *client.Resource[T, C, U], co *Coordinator, alloc *Allocator, singular string) *Resource[T, C, U] {
	return &Resource[T, C, U]{
		Keys:     Keys{Resource: api.Name()},
		api:      api,
		co:       co,
		alloc:    alloc,
		singular: singular,
		belongs:  FirstPage[T],
		now:      time.Now,
	}
}

// WithBelongs replaces the rule deciding which cached lists receive an
// optimistic insert.
func (r *Resource[T, C, U]) WithBelongs(fn func(params map[string]string, item T) bool) *Resource[T, C, U] {
	r.belongs = fn
	return r
}

func (r *Resource[T, C, U]) cache() *querycache.Cache { return r.co.Cache() }

func (r *Resource[T, C, U]) listFetcher(params model.ListParams) func(context.Context) ([]T, error) {
	return func(ctx context.Context) ([]T, error) { return r.api.List(ctx, params) }
}

// List returns the cached list when fresh, fetching it otherwise.
func (r *Resource[T, C, U]) List(ctx context.Context, params model.ListParams) ([]T, error) {
	return querycache.FetchAs(ctx, r.cache(), r.Keys.List(params), r.listFetcher(params))
}

// Read never blocks: it returns what is cached and lets the cache refetch in
// the background.
func (r *Resource[T, C, U]) Read(params model.ListParams) ([]T, querycache.Status) {
	fetch := r.listFetcher(params)
	res := r.cache().Read(r.Keys.List(params), func(ctx context.Context) (any, error) { return fetch(ctx) })
	items, _ := res.Data.([]T)
	return items, res.Status
}

// Watch calls fn with every new version of the list until the returned
// function is called.
func (r *Resource[T, C, U]) Watch(params model.ListParams, fn func(items []T, status querycache.Status)) func() {
	unsubscribe := r.cache().Subscribe(r.Keys.List(params), func(res querycache.Result) {
		items, _ := res.Data.([]T)
		fn(items, res.Status)
	})
	r.Read(params)
	return unsubscribe
}

func (r *Resource[T, C, U]) Get(ctx context.Context, id string) (T, error) {
	return querycache.FetchAs(ctx, r.cache(), r.Keys.Detail(id), func(ctx context.Context) (T, error) {
		return r.api.Get(ctx, id)
	})
}

// Create inserts a placeholder at the head of every matching cached list and
// swaps it for the server's entity on success.
func (r *Resource[T, C, U]) Create(ctx context.Context, in C) *Mutation {
	plan := r.plan("create", "created", r.Keys.Lists())
	if err := r.api.Validate(in); err != nil {
		return r.co.Reject(plan, err)
	}

	placeholder := in.Placeholder(r.alloc.Next(), r.now())
	tempKey := placeholder.Key()

	plan.Apply = func(tx *Tx) {
		for _, k := range tx.Keys(r.Keys.Lists()) {
			if r.belongs(k.Params, placeholder) {
				tx.Write(k, listUpdater(prepend(placeholder)))
			}
		}
	}
	plan.Call = func(ctx context.Context) (any, error) {
		reply, err := r.api.CreateReply(ctx, in)
		if err != nil {
			return nil, err
		}
		return reply, nil
	}
	plan.Reconcile = func(c *querycache.Cache, result any) {
		reply := result.(client.Reply[T])
		c.WriteMatching(r.Keys.Lists(), listUpdater(replaceKey(tempKey, reply.Data)))
	}
	return r.co.Start(ctx, plan)
}

// Update patches the detail entry and every cached list holding id.
func (r *Resource[T, C, U]) Update(ctx context.Context, id string, patch U) *Mutation {
	plan := r.plan("update", "updated", r.Keys.Detail(id), r.Keys.Lists())
	if err := r.api.Validate(patch); err != nil {
		return r.co.Reject(plan, err)
	}

	plan.Apply = func(tx *Tx) {
		tx.Write(r.Keys.Detail(id), detailUpdater(func(v T) (T, bool) { return patch.Apply(v), true }))
		for _, k := range tx.Keys(r.Keys.Lists()) {
			tx.Write(k, listUpdater(patchKey[T](id, patch)))
		}
	}
	plan.Call = func(ctx context.Context) (any, error) {
		reply, err := r.api.UpdateReply(ctx, id, patch)
		if err != nil {
			return nil, err
		}
		return reply, nil
	}
	plan.Reconcile = func(c *querycache.Cache, result any) {
		updated := result.(client.Reply[T]).Data
		c.Write(r.Keys.Detail(id), detailUpdater(func(T) (T, bool) { return updated, true }))
		c.WriteMatching(r.Keys.Lists(), listUpdater(replaceKey(id, updated)))
	}
	return r.co.Start(ctx, plan)
}

// Delete removes id from every cached list; on failure the confirmed list,
// which still holds it in its original position, shows through again.
func (r *Resource[T, C, U]) Delete(ctx context.Context, id string) *Mutation {
	plan := r.plan("delete", "deleted", r.Keys.Lists(), r.Keys.Detail(id))

	plan.Apply = func(tx *Tx) {
		for _, k := range tx.Keys(r.Keys.Lists()) {
			tx.Write(k, listUpdater(removeKey[T](id)))
		}
	}
	plan.Call = func(ctx context.Context) (any, error) {
		msg, err := r.api.DeleteReply(ctx, id)
		if err != nil {
			return nil, err
		}
		return msg, nil
	}
	return r.co.Start(ctx, plan)
}

func (r *Resource[T, C, U]) plan(verb, past string, keys ...querycache.Key) Plan {
	name := verb + " " + r.singular
	title := capitalize(r.singular)
	return Plan{
		Name: name,
		Keys: keys,
		Success: func(result any) notify.Event {
			desc := messageOf[T](result)
			if desc == "" {
				desc = title + " " + past
			}
			return notify.Event{Title: title + " " + past + " successfully", Description: desc, Color: notify.ColorSuccess}
		},
		Failure: func(err error) notify.Event {
			return notify.Event{Title: "Failed to " + name, Description: client.MessageOf(err), Color: notify.ColorDanger}
		},
	}
}

// Result waits for m and returns its server entity.
func Result[T any](m *Mutation) (T, error) {
	var zero T
	v, err := m.Wait()
	if err != nil {
		return zero, err
	}
	switch x := v.(type) {
	case client.Reply[T]:
		return x.Data, nil
	case T:
		return x, nil
	}
	return zero, nil
}

func messageOf[T any](result any) string {
	switch x := result.(type) {
	case client.Reply[T]:
		return x.Message
	case string:
		return x
	}
	return ""
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Blog is the cached, optimistic view of every blog resource.
type Blog struct {
	Types    *Resource[model.Type, model.TypeInput, model.TypePatch]
	Labels   *Resource[model.Label, model.LabelInput, model.LabelPatch]
	Posts    *Resource[model.Post, model.PostInput, model.PostPatch]
	Comments *Resource[model.Comment, model.CommentInput, model.CommentPatch]
	Users    *Resource[model.User, model.UserInput, model.UserPatch]
}

func NewBlog(api *client.Blog, co *Coordinator, alloc *Allocator) *Blog {
	return &Blog{
		Types:  NewResource(api.Types, co, alloc, "type"),
		Labels: NewResource(api.Labels, co, alloc, "label"),
		Posts:  NewResource(api.Posts, co, alloc, "post"),
		Comments: NewResource(api.Comments, co, alloc, "comment").WithBelongs(func(params map[string]string, c model.Comment) bool {
			if id, ok := params["postId"]; ok && id != strconv.FormatInt(c.PostID, 10) {
				return false
			}
			return FirstPage(params, c)
		}),
		Users: NewResource(api.Users, co, alloc, "user"),
	}
}
