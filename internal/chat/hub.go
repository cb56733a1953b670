package chat

import (
	"sync"

	"github.com/fixboard/fixboard/pkg/models"
)

// Hub fans persisted messages out to live websocket subscribers, keyed by
// chat room. Delivery here is best-effort push; the persisted row is the
// source of truth and slow subscribers simply miss frames and catch up by
// polling the message list.
type Hub struct {
	mu    sync.RWMutex
	rooms map[int64]map[chan models.Message]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[int64]map[chan models.Message]struct{})}
}

// Subscribe registers a listener on a room. The returned cancel func must be
// called exactly once; it closes the channel.
func (h *Hub) Subscribe(roomID int64) (<-chan models.Message, func()) {
	ch := make(chan models.Message, 16)

	h.mu.Lock()
	subs, ok := h.rooms[roomID]
	if !ok {
		subs = make(map[chan models.Message]struct{})
		h.rooms[roomID] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if subs, ok := h.rooms[roomID]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(h.rooms, roomID)
			}
		}
		h.mu.Unlock()
	}

	return ch, cancel
}

// Publish pushes a message to every live subscriber of the room. A full
// subscriber buffer drops the frame rather than blocking the sender.
func (h *Hub) Publish(roomID int64, m models.Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.rooms[roomID] {
		select {
		case ch <- m:
		default:
		}
	}
}

// Subscribers reports the live listener count of a room.
func (h *Hub) Subscribers(roomID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[roomID])
}
