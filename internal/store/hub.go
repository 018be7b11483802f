package store

import "sync"

// Topics a client can subscribe to. Every mutation of a topic's data
// publishes a signal; subscribers then re-read the full current list.
const (
	TopicStudents = "students"
	TopicSchedule = "schedule"
	TopicGradings = "gradings"
)

type subKey struct {
	owner uint
	topic string
}

// Hub fans out change signals to per-owner subscribers. Publishing
// never blocks: a subscriber that has not drained its channel simply
// coalesces signals, which is safe because subscribers re-read the
// full list rather than consuming deltas.
type Hub struct {
	mu   sync.Mutex
	subs map[subKey]map[chan struct{}]bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[subKey]map[chan struct{}]bool)}
}

// Subscribe registers for change signals on one owner's topic. The
// returned channel carries one pending signal at most. The cancel
// function must be called when the listener goes away.
func (h *Hub) Subscribe(owner uint, topic string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	key := subKey{owner, topic}

	h.mu.Lock()
	if h.subs[key] == nil {
		h.subs[key] = make(map[chan struct{}]bool)
	}
	h.subs[key][ch] = true
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs[key], ch)
		if len(h.subs[key]) == 0 {
			delete(h.subs, key)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish signals every subscriber of the owner's topic.
func (h *Hub) Publish(owner uint, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[subKey{owner, topic}] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
