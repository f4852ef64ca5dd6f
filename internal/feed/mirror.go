package feed

import (
	"context"
	"time"

	"github.com/candyxpe/supportbot/internal/domain"
)

// Poster delivers staff channel posts.
type Poster interface {
	Post(ctx context.Context, post domain.StaffPost) error
}

// Mirror forwards posts to the staff channel and publishes the delivered
// ones on the hub.
type Mirror struct {
	next Poster
	hub  *Hub
	now  func() time.Time
}

// NewMirror wraps next.
func NewMirror(next Poster, hub *Hub) *Mirror {
	return &Mirror{next: next, hub: hub, now: time.Now}
}

// Post implements Poster.
func (m *Mirror) Post(ctx context.Context, post domain.StaffPost) error {
	if err := m.next.Post(ctx, post); err != nil {
		return err
	}
	m.hub.Publish(newPost(post, m.now().UTC()))
	return nil
}
