package kvstore

import "sync"

// notifier fans change events out to in-process watchers. Backends
// without a native broadcast mechanism (sqlite, memory) rely on it
// exclusively; the redis backend uses pub/sub instead so other processes
// see the same events.
type notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan Event
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[string]map[int]chan Event)}
}

func (n *notifier) subscribe(key string) (<-chan Event, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.subs[key] == nil {
		n.subs[key] = make(map[int]chan Event)
	}
	id := n.nextID
	n.nextID++

	ch := make(chan Event, 8)
	n.subs[key][id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if sub, ok := n.subs[key][id]; ok {
			delete(n.subs[key], id)
			close(sub)
		}
	}
	return ch, cancel
}

// publish delivers the event without blocking. A watcher with a full
// buffer already has a pending wake-up, so dropping is safe.
func (n *notifier) publish(key string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.subs[key] {
		select {
		case ch <- Event{Key: key}:
		default:
		}
	}
}

func (n *notifier) closeAll() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for key, subs := range n.subs {
		for id, ch := range subs {
			delete(subs, id)
			close(ch)
		}
		delete(n.subs, key)
	}
}
