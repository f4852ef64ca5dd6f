package feed

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
)

const writeTimeout = 10 * time.Second

// Handler upgrades requests to a WebSocket and streams hub posts as JSON.
type Handler struct {
	hub           *Hub
	allowedOrigin string
}

// NewHandler creates a feed handler. An empty or "*" allowedOrigin accepts
// any origin.
func NewHandler(hub *Hub, allowedOrigin string) *Handler {
	return &Handler{hub: hub, allowedOrigin: allowedOrigin}
}

type hello struct {
	Type         string `json:"type"`
	SubscriberID string `json:"subscriber_id"`
}

type envelope struct {
	Type string `json:"type"`
	Post Post   `json:"post"`
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "ip", r.RemoteAddr)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "feed ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr)
		}
	}()

	id := uuid.NewString()
	sub := h.hub.Subscribe(id)
	defer h.hub.Unsubscribe(sub)

	// The feed is one-way; CloseRead handles control frames and cancels ctx
	// when the client goes away.
	ctx := ws.CloseRead(r.Context())

	if err := write(ctx, ws, hello{Type: "hello", SubscriberID: id}); err != nil {
		slog.Debug("Failed to send feed greeting", "error", err, "subscriber", id)
		return
	}

	for {
		select {
		case <-ctx.Done():
			slog.Debug("Staff feed client disconnected", "subscriber", id)
			return
		case p, ok := <-sub.C:
			if !ok {
				return
			}
			if err := write(ctx, ws, envelope{Type: "post", Post: p}); err != nil {
				if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
					slog.Warn("WebSocket write error", "error", err, "subscriber", id)
				}
				return
			}
		}
	}
}

func write(ctx context.Context, ws *websocket.Conn, v any) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, ws, v)
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}
