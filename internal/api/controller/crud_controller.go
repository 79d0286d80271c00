package controller

import (
	"context"
	"net/http"
	"strconv"

	"github.com/bassista/go_quill/internal/logger"
	"github.com/bassista/go_quill/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// CrudService defines the persistence operations behind the CRUD endpoints.
type CrudService[T, C, U any] interface {
	List(ctx context.Context, params model.ListParams) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, in C) (T, error)
	Update(ctx context.Context, id string, patch U) (T, error)
	Delete(ctx context.Context, id string) error
}

// CrudController provides generic envelope CRUD handlers for a resource.
type CrudController[T, C, U any] struct {
	Service   CrudService[T, C, U]
	Validator *validator.Validate
	// Name is the capitalized singular used in messages, e.g. "Type".
	Name string
	// Filters are the query parameters forwarded to List besides limit/offset.
	Filters []string

	log *logrus.Entry
}

// NewCrudController builds a controller for the named resource.
func NewCrudController[T, C, U any](svc CrudService[T, C, U], v *validator.Validate, name string, filters ...string) *CrudController[T, C, U] {
	if v == nil {
		v = model.NewValidator()
	}
	return &CrudController[T, C, U]{
		Service:   svc,
		Validator: v,
		Name:      name,
		Filters:   filters,
		log:       logger.WithComponent(lower(name) + "-controller"),
	}
}

// RegisterCrudRoutes registers list/get/create/update/delete under /resource.
// write runs before the mutating handlers (authentication).
func (cc *CrudController[T, C, U]) RegisterCrudRoutes(rg *gin.RouterGroup, resource string, write ...gin.HandlerFunc) {
	rg.GET("/"+resource, cc.List)
	rg.GET("/"+resource+"/:id", cc.Get)
	rg.POST("/"+resource, chain(write, cc.Create)...)
	rg.PATCH("/"+resource+"/:id", chain(write, cc.Update)...)
	rg.DELETE("/"+resource+"/:id", chain(write, cc.Delete)...)
}

// List handles GET /resource?limit=&offset=.
func (cc *CrudController[T, C, U]) List(c *gin.Context) {
	params, ok := cc.listParams(c)
	if !ok {
		return
	}
	items, err := cc.Service.List(c.Request.Context(), params)
	if err != nil {
		failStore(c, cc.log, err, cc.Name, "list")
		return
	}
	respond(c, http.StatusOK, items, "")
}

// Get handles GET /resource/:id.
func (cc *CrudController[T, C, U]) Get(c *gin.Context) {
	item, err := cc.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failStore(c, cc.log, err, cc.Name, "read")
		return
	}
	respond(c, http.StatusOK, item, "")
}

// Create handles POST /resource.
func (cc *CrudController[T, C, U]) Create(c *gin.Context) {
	var in C
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	cc.Insert(c, in)
}

// Insert validates and stores in, answering 201 with the stored item.
func (cc *CrudController[T, C, U]) Insert(c *gin.Context, in C) {
	if err := cc.Validator.Struct(in); err != nil {
		fail(c, http.StatusBadRequest, model.ValidationMessage(err))
		return
	}
	item, err := cc.Service.Create(c.Request.Context(), in)
	if err != nil {
		failStore(c, cc.log, err, cc.Name, "create")
		return
	}
	cc.log.Debugf("%s created", lower(cc.Name))
	respond(c, http.StatusCreated, item, cc.Name+" created successfully")
}

// Update handles PATCH /resource/:id with a partial body.
func (cc *CrudController[T, C, U]) Update(c *gin.Context) {
	var patch U
	if err := c.ShouldBindJSON(&patch); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := cc.Validator.Struct(patch); err != nil {
		fail(c, http.StatusBadRequest, model.ValidationMessage(err))
		return
	}
	item, err := cc.Service.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		failStore(c, cc.log, err, cc.Name, "update")
		return
	}
	respond(c, http.StatusOK, item, cc.Name+" updated successfully")
}

// Delete handles DELETE /resource/:id.
func (cc *CrudController[T, C, U]) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := cc.Service.Delete(c.Request.Context(), id); err != nil {
		failStore(c, cc.log, err, cc.Name, "delete")
		return
	}
	cc.log.Debugf("%s %s deleted", lower(cc.Name), id)
	respondMessage(c, http.StatusOK, cc.Name+" deleted successfully")
}

func (cc *CrudController[T, C, U]) listParams(c *gin.Context) (model.ListParams, bool) {
	var params model.ListParams
	for _, q := range []struct {
		name string
		dst  *int
	}{{"limit", &params.Limit}, {"offset", &params.Offset}} {
		raw := c.Query(q.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			fail(c, http.StatusBadRequest, "Invalid "+q.name)
			return params, false
		}
		*q.dst = n
	}
	for _, f := range cc.Filters {
		if v := c.Query(f); v != "" {
			if params.Filters == nil {
				params.Filters = map[string]string{}
			}
			params.Filters[f] = v
		}
	}
	return params, true
}
