// Package feed streams staff channel posts to connected operators.
package feed

import (
	"log/slog"
	"sync"
	"time"

	"github.com/candyxpe/supportbot/internal/domain"
)

// Post is a staff channel post as published on the feed.
type Post struct {
	Label       string    `json:"label"`
	SenderID    int64     `json:"sender_id"`
	Text        string    `json:"text"`
	Attachments []string  `json:"attachments,omitempty"`
	PostedAt    time.Time `json:"posted_at"`
}

func newPost(p domain.StaffPost, at time.Time) Post {
	return Post{
		Label:       p.Label,
		SenderID:    p.SenderID,
		Text:        p.Text,
		Attachments: p.Attachments,
		PostedAt:    at,
	}
}

const defaultBuffer = 32

// Subscription receives posts until it is cancelled.
type Subscription struct {
	C  <-chan Post
	ch chan Post
	id string
}

// Hub fans out posts to subscribers. A subscriber that falls behind loses
// posts instead of blocking the publisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{}), buffer: defaultBuffer}
}

// Subscribe registers a new subscriber identified by id for logging.
func (h *Hub) Subscribe(id string) *Subscription {
	ch := make(chan Post, h.buffer)
	sub := &Subscription{C: ch, ch: ch, id: id}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	slog.Info("Staff feed subscriber registered", "subscriber", id)
	return sub
}

// Unsubscribe removes sub and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	close(sub.ch)
	slog.Info("Staff feed subscriber unregistered", "subscriber", sub.id)
}

// Publish delivers p to every subscriber without blocking.
func (h *Hub) Publish(p Post) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		select {
		case sub.ch <- p:
		default:
			slog.Warn("Staff feed subscriber lagging, dropping post", "subscriber", sub.id, "label", p.Label)
		}
	}
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
