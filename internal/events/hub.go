package events

import (
	"context"
	"sync"
)

// Hub is the in-process feed used when Redis is not configured. Slow
// subscribers miss events rather than block publishers.
type Hub struct {
	mu   sync.Mutex
	subs map[chan ActivityEvent]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: map[chan ActivityEvent]struct{}{}}
}

func (h *Hub) Publish(_ context.Context, ev ActivityEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

func (h *Hub) Subscribe(ctx context.Context) (<-chan ActivityEvent, func(), error) {
	ch := make(chan ActivityEvent, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			close(ch)
			h.mu.Unlock()
		})
	}
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ch, cancel, nil
}
