// internal/message/message.go
//
// Impact – user notifications.
//
// Context
//   The form core reports outcomes ("Project created successfully!",
//   "Please fix 2 errors before submitting") as toast-style notifications.
//   The core only sees the Sink interface.  The dashboard gives every form
//   session an Outbox, which buffers notifications until the next response
//   drains them and logs each one as it arrives.
//
// Style
//   Two-space sentence spacing, Oxford comma, concise inline notes.
//
//------------------------------------------------------------------------------

package message

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Kind classifies a notification for display.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Info    Kind = "info"
)

// Notification is one transient user-facing message.
type Notification struct {
	Message string    `json:"message"`
	Kind    Kind      `json:"kind"`
	At      time.Time `json:"at"`
}

// Sink receives notifications.  Implementations must not block for long;
// Notify is called while a submission is completing.
type Sink interface {
	Notify(ctx context.Context, n Notification)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, n Notification)

// Notify calls f.
func (f SinkFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Discard drops every notification.
var Discard Sink = SinkFunc(func(context.Context, Notification) {})

// Outbox is a bounded FIFO of pending notifications.  Oldest entries are
// dropped once the limit is reached.
type Outbox struct {
	mu    sync.Mutex
	items []Notification
	limit int
	log   *zap.SugaredLogger
	now   func() time.Time
}

// NewOutbox returns an Outbox holding at most limit entries.  limit < 1
// defaults to 16; a nil logger falls back to zap.S().
func NewOutbox(limit int, log *zap.SugaredLogger) *Outbox {
	if limit < 1 {
		limit = 16
	}
	if log == nil {
		log = zap.S()
	}
	return &Outbox{limit: limit, log: log, now: time.Now}
}

// Notify appends n, stamping it if At is zero.
func (o *Outbox) Notify(_ context.Context, n Notification) {
	if n.At.IsZero() {
		n.At = o.now()
	}

	o.mu.Lock()
	o.items = append(o.items, n)
	if over := len(o.items) - o.limit; over > 0 {
		o.items = o.items[over:]
	}
	o.mu.Unlock()

	o.log.Infow("notification", "kind", n.Kind, "message", n.Message)
}

// Drain returns pending notifications in arrival order and empties the box.
func (o *Outbox) Drain() []Notification {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.items
	o.items = nil
	if out == nil {
		return []Notification{}
	}
	return out
}

// Len reports how many notifications are pending.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.items)
}
