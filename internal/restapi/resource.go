package restapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-playground/validator/v10"
)

// payloads are checked against their `validate` tags before they leave the
// process.
var validate = validator.New()

// Resource is typed CRUD over one collection path such as "/projects".
type Resource[T any] struct {
	c    *Client
	path string
}

// NewResource binds path on c.
func NewResource[T any](c *Client, path string) *Resource[T] {
	return &Resource[T]{c: c, path: path}
}

// Path returns the collection path.
func (r *Resource[T]) Path() string { return r.path }

// List fetches the collection.  q carries json-server filters such as
// _page, _limit, and q.
func (r *Resource[T]) List(ctx context.Context, q url.Values) ([]T, error) {
	p := r.path
	if len(q) > 0 {
		p += "?" + q.Encode()
	}
	var out []T
	if err := r.c.Do(ctx, http.MethodGet, p, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one record.
func (r *Resource[T]) Get(ctx context.Context, id ID) (T, error) {
	var out T
	err := r.c.Do(ctx, http.MethodGet, r.item(id), nil, &out)
	return out, err
}

// Create posts a new record and returns the stored copy with its ID.
func (r *Resource[T]) Create(ctx context.Context, in T) (T, error) {
	var out T
	if err := validate.Struct(in); err != nil {
		return out, fmt.Errorf("create %s: %w", r.path, err)
	}
	err := r.c.Do(ctx, http.MethodPost, r.path, in, &out)
	return out, err
}

// Update replaces record id.
func (r *Resource[T]) Update(ctx context.Context, id ID, in T) (T, error) {
	var out T
	if err := validate.Struct(in); err != nil {
		return out, fmt.Errorf("update %s: %w", r.item(id), err)
	}
	err := r.c.Do(ctx, http.MethodPut, r.item(id), in, &out)
	return out, err
}

// Delete removes record id.
func (r *Resource[T]) Delete(ctx context.Context, id ID) error {
	return r.c.Do(ctx, http.MethodDelete, r.item(id), nil, nil)
}

func (r *Resource[T]) item(id ID) string { return r.path + "/" + url.PathEscape(string(id)) }
