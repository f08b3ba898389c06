package event

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

func testListener() *Listener {
	return NewListener(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestListener_DispatchesInOrder(t *testing.T) {
	l := testListener()

	got := make(chan string, 4)
	l.Register(func(ctx context.Context, e Event) error {
		got <- e.Message()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- l.Listen(ctx) }()

	l.Emit(Text("first"))
	l.Emit(Text("second"))
	l.Emit(Text("third"))

	for _, want := range []string{"first", "second", "third"} {
		select {
		case msg := <-got:
			if msg != want {
				t.Fatalf("dispatched %q, want %q", msg, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Listen returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Listen did not stop on cancel")
	}
}

func TestListener_AllHandlersSeeEveryEvent(t *testing.T) {
	l := testListener()

	a := make(chan struct{}, 1)
	b := make(chan struct{}, 1)
	l.Register(func(ctx context.Context, e Event) error {
		a <- struct{}{}
		return nil
	})
	l.Register(func(ctx context.Context, e Event) error {
		b <- struct{}{}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Listen(ctx)

	l.Emit(Text("ping"))

	for name, ch := range map[string]chan struct{}{"first": a, "second": b} {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("%s handler never ran", name)
		}
	}
}

func TestListener_HandlerErrorDoesNotStopDispatch(t *testing.T) {
	l := testListener()

	got := make(chan struct{}, 1)
	l.Register(func(ctx context.Context, e Event) error {
		return context.DeadlineExceeded
	})
	l.Register(func(ctx context.Context, e Event) error {
		got <- struct{}{}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Listen(ctx)

	l.Emit(Text("ping"))

	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("handler after a failing one never ran")
	}
}
