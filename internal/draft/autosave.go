// internal/draft/autosave.go
//
// Impact – autosave sidecar for a form session.
//
// Context
//   An Autosaver watches one form.State.  On mount it restores any stored
//   draft, then on every tick of a fixed interval it writes the current
//   snapshot if the form is dirty.  Flush does one last write when the page
//   unloads, and Discard drops the draft after a successful submit (wire it
//   with Controller.OnSuccess(a.Hook())).
//
//   Save and Discard are serialised by the Autosaver's own mutex, so a tick
//   that races a successful submit either lands before the delete or sees
//   the already reset, clean form.
//
// Notes
//   •  A draft that fails to decode is treated as absent and logged at debug
//      level only; it is overwritten by the next save.
//   •  The ticker is injectable so tests advance time by hand.
//
//------------------------------------------------------------------------------

package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/impact/internal/form"
	"github.com/yanizio/impact/internal/metrics"
)

// DefaultInterval is the autosave period.
const DefaultInterval = 5 * time.Second

// Ticker is the subset of *time.Ticker the Autosaver uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// NewTicker wraps time.NewTicker.
func NewTicker(d time.Duration) Ticker { return realTicker{time.NewTicker(d)} }

// Autosaver persists drafts of one form.
type Autosaver struct {
	state     *form.State
	store     Store
	key       string
	interval  time.Duration
	newTicker func(time.Duration) Ticker
	log       *zap.SugaredLogger

	mu sync.Mutex // serialises store writes
}

// Option customises an Autosaver.
type Option func(*Autosaver)

// WithInterval overrides DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(a *Autosaver) {
		if d > 0 {
			a.interval = d
		}
	}
}

// WithKey sets the storage key, usually Key(profile, DefaultKey).
func WithKey(key string) Option {
	return func(a *Autosaver) { a.key = key }
}

// WithTicker replaces the ticker factory.
func WithTicker(f func(time.Duration) Ticker) Option {
	return func(a *Autosaver) { a.newTicker = f }
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(a *Autosaver) { a.log = l }
}

// NewAutosaver binds state to store.
func NewAutosaver(state *form.State, store Store, opts ...Option) *Autosaver {
	a := &Autosaver{
		state:     state,
		store:     store,
		key:       DefaultKey,
		interval:  DefaultInterval,
		newTicker: NewTicker,
	}
	for _, o := range opts {
		o(a)
	}
	if a.log == nil {
		a.log = zap.S()
	}
	return a
}

// Key returns the storage key in use.
func (a *Autosaver) Key() string { return a.key }

// Restore loads a stored draft into the form.  It reports whether a draft
// was applied.  Missing and corrupt drafts are not errors.
func (a *Autosaver) Restore(ctx context.Context) (bool, error) {
	raw, err := a.store.Get(ctx, a.key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		metrics.DraftErrorsTotal.Inc()
		return false, fmt.Errorf("restore draft %s: %w", a.key, err)
	}

	var snap form.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		a.log.Debugw("ignoring corrupt draft", "key", a.key, "err", err)
		return false, nil
	}

	a.state.Load(snap)
	metrics.DraftRestoredTotal.Inc()
	a.log.Debugw("draft restored", "key", a.key)
	return true, nil
}

// Save writes the current snapshot when the form is dirty.
func (a *Autosaver) Save(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap, dirty := a.state.DirtySnapshot()
	if !dirty {
		return nil
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := a.store.Set(ctx, a.key, raw); err != nil {
		metrics.DraftErrorsTotal.Inc()
		return err
	}
	metrics.DraftSavedTotal.Inc()
	return nil
}

// Flush is the unload handler: one final save if dirty.
func (a *Autosaver) Flush(ctx context.Context) error { return a.Save(ctx) }

// Discard deletes the stored draft.
func (a *Autosaver) Discard(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.store.Delete(ctx, a.key); err != nil {
		metrics.DraftErrorsTotal.Inc()
		return err
	}
	metrics.DraftDiscardedTotal.Inc()
	return nil
}

// Hook returns a success hook that discards the draft.
func (a *Autosaver) Hook() form.SuccessHook {
	return func(ctx context.Context, _ form.Submission) {
		if err := a.Discard(ctx); err != nil {
			a.log.Warnw("draft discard failed", "key", a.key, "err", err)
		}
	}
}

// Run saves on every tick until ctx is cancelled.
func (a *Autosaver) Run(ctx context.Context) {
	t := a.newTicker(a.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			if err := a.Save(ctx); err != nil {
				a.log.Warnw("autosave failed", "key", a.key, "err", err)
			}
		}
	}
}
