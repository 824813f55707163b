package common

import (
	"errors"
	"testing"
	"time"
)

func TestEdgeWaitersNotify(t *testing.T) {
	w := newEdgeWaiters()

	id1, ch1, err := w.register()
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	id2, ch2, err := w.register()
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if id1 == id2 {
		t.Fatalf("duplicate waiter id %q", id1)
	}
	if got := w.len(); got != 2 {
		t.Fatalf("len = %d, want 2", got)
	}

	errEdge := errors.New("edge")
	w.notify(errEdge)
	for _, ch := range []chan error{ch1, ch2} {
		select {
		case err := <-ch:
			if !errors.Is(err, errEdge) {
				t.Fatalf("waiter got %v, want %v", err, errEdge)
			}
		case <-time.After(time.Second):
			t.Fatal("waiter not notified")
		}
	}
	if got := w.len(); got != 0 {
		t.Fatalf("len after notify = %d, want 0", got)
	}
}

func TestEdgeWaitersUnregister(t *testing.T) {
	w := newEdgeWaiters()

	id, ch, err := w.register()
	if err != nil {
		t.Fatal(err)
	}
	w.unregister(id)
	w.notify(nil)
	select {
	case <-ch:
		t.Fatal("unregistered waiter was notified")
	default:
	}
}
