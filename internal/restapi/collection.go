// internal/restapi/collection.go
//
// Impact – optimistic in-memory list over a Resource.
//
// Context
//   List pages show the effect of a create, update, or delete immediately,
//   before the backend answers.  Every mutation applies its change
//   speculatively and, if the backend call fails, applies the compensating
//   change: drop the placeholder, restore the prior record, or re-insert
//   the deleted one.  Refresh reloads the
//   list from the backend; concurrent refreshes share one request through
//   singleflight.
//
// Notes
//   •  Created items carry a temporary "tmp-N" ID until the backend returns
//      the real record, which then replaces the placeholder.
//   •  Rollback undoes only the failing call's own change, so concurrent
//      mutations from different form sessions never erase each other.
//
//------------------------------------------------------------------------------

package restapi

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Collection keeps a cached, optimistically updated copy of a resource
// list.
type Collection[T Entity[T]] struct {
	res   *Resource[T]
	query url.Values

	mu      sync.RWMutex
	items   []T
	loaded  bool
	tempSeq int

	sf singleflight.Group
}

// NewCollection wraps res.  query is sent with every Refresh.
func NewCollection[T Entity[T]](res *Resource[T], query url.Values) *Collection[T] {
	return &Collection[T]{res: res, query: query}
}

// Items returns a copy of the cached list.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

// Find returns the cached record with id.
func (c *Collection[T]) Find(id ID) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexLocked(id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// Loaded reports whether the list has been fetched at least once.
func (c *Collection[T]) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Refresh reloads the list.  Concurrent callers share one backend request.
func (c *Collection[T]) Refresh(ctx context.Context) error {
	_, err, _ := c.sf.Do("list", func() (any, error) {
		items, err := c.res.List(ctx, c.query)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.items = items
		c.loaded = true
		c.mu.Unlock()
		return nil, nil
	})
	return err
}

// Create shows item in the list at once and posts it.  On failure only its
// placeholder is removed.
func (c *Collection[T]) Create(ctx context.Context, item T) (T, error) {
	c.mu.Lock()
	c.tempSeq++
	tmp := ID(fmt.Sprintf("tmp-%d", c.tempSeq))
	c.items = append(c.items, item.WithID(tmp))
	c.mu.Unlock()

	created, err := c.res.Create(ctx, item)

	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(tmp)
	if err != nil {
		if i >= 0 {
			c.items = slices.Delete(c.items, i, i+1)
		}
		return created, err
	}
	if i >= 0 {
		c.items[i] = created
	}
	return created, nil
}

// Update replaces record id in the list at once and puts it.  On failure the
// prior record is put back.
func (c *Collection[T]) Update(ctx context.Context, id ID, item T) (T, error) {
	c.mu.Lock()
	var (
		prior T
		had   bool
	)
	if i := c.indexLocked(id); i >= 0 {
		prior, had = c.items[i], true
		c.items[i] = item.WithID(id)
	}
	c.mu.Unlock()

	updated, err := c.res.Update(ctx, id, item)

	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(id)
	if err != nil {
		if had && i >= 0 {
			c.items[i] = prior
		}
		return updated, err
	}
	if i >= 0 {
		c.items[i] = updated
	}
	return updated, nil
}

// Delete drops record id from the list at once and deletes it.  On failure
// the record is re-inserted where it was.
func (c *Collection[T]) Delete(ctx context.Context, id ID) error {
	c.mu.Lock()
	var (
		removed T
		pos     = c.indexLocked(id)
	)
	if pos >= 0 {
		removed = c.items[pos]
		c.items = slices.Delete(c.items, pos, pos+1)
	}
	c.mu.Unlock()

	if err := c.res.Delete(ctx, id); err != nil {
		if pos >= 0 {
			c.mu.Lock()
			if c.indexLocked(id) < 0 {
				c.items = slices.Insert(c.items, min(pos, len(c.items)), removed)
			}
			c.mu.Unlock()
		}
		return err
	}
	return nil
}

func (c *Collection[T]) indexLocked(id ID) int {
	return slices.IndexFunc(c.items, func(t T) bool { return t.EntityID() == id })
}
