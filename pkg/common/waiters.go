package common

import (
	"fmt"
	"sync"

	"github.com/mazen160/go-random"
)

// edgeWaiters holds channels of goroutines waiting for the next rising edge
type edgeWaiters struct {
	mu sync.Mutex // map protection mutex
	m  map[string]chan error
}

func newEdgeWaiters() *edgeWaiters {
	return &edgeWaiters{m: make(map[string]chan error)}
}

func (obj *edgeWaiters) register() (string, chan error, error) {
	id, err := random.String(16)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate random id: %w", err)
	}
	ch := make(chan error, 1)
	obj.mu.Lock()
	obj.m[id] = ch
	obj.mu.Unlock()
	return id, ch, nil
}

func (obj *edgeWaiters) unregister(id string) {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	delete(obj.m, id)
}

// notify wakes every registered waiter with err and forgets them
func (obj *edgeWaiters) notify(err error) {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	for id, ch := range obj.m {
		ch <- err
		close(ch)
		delete(obj.m, id)
	}
}

func (obj *edgeWaiters) len() int {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	return len(obj.m)
}
