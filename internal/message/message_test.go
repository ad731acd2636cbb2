package message

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestOutboxDrainOrder(t *testing.T) {
	o := NewOutbox(4, zap.NewNop().Sugar())
	ctx := context.Background()

	o.Notify(ctx, Notification{Message: "one", Kind: Info})
	o.Notify(ctx, Notification{Message: "two", Kind: Success})

	got := o.Drain()
	if len(got) != 2 || got[0].Message != "one" || got[1].Message != "two" {
		t.Fatalf("unexpected drain: %+v", got)
	}
	if got[0].At.IsZero() {
		t.Fatalf("notification not stamped")
	}
	if o.Len() != 0 {
		t.Fatalf("outbox not emptied")
	}
	if again := o.Drain(); len(again) != 0 {
		t.Fatalf("second drain should be empty, got %d", len(again))
	}
}

func TestOutboxDropsOldest(t *testing.T) {
	o := NewOutbox(2, zap.NewNop().Sugar())
	ctx := context.Background()
	for _, m := range []string{"a", "b", "c"} {
		o.Notify(ctx, Notification{Message: m, Kind: Info})
	}
	got := o.Drain()
	if len(got) != 2 || got[0].Message != "b" || got[1].Message != "c" {
		t.Fatalf("want [b c], got %+v", got)
	}
}

func TestSinkFunc(t *testing.T) {
	var seen Notification
	s := SinkFunc(func(_ context.Context, n Notification) { seen = n })
	s.Notify(context.Background(), Notification{Message: "x", Kind: Error})
	if seen.Kind != Error || seen.Message != "x" {
		t.Fatalf("SinkFunc did not forward: %+v", seen)
	}
}
