// Package api provides the operations HTTP surface of the support bot.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/candyxpe/supportbot/internal/bot"
	"github.com/candyxpe/supportbot/internal/domain"
)

// StatsSource reports runtime statistics.
type StatsSource interface {
	Stats(ctx context.Context) (bot.Stats, error)
}

// AgentLister is the read side of the staff repository.
type AgentLister interface {
	ListAgents(ctx context.Context) ([]domain.Agent, error)
	Ping(ctx context.Context) error
}

// BanLister lists the current ban table.
type BanLister interface {
	Bans() []domain.Ban
}

// Handler serves the operations endpoints.
type Handler struct {
	stats         StatsSource
	agents        AgentLister
	bans          BanLister
	healthTimeout time.Duration
}

// NewHandler creates a Handler.
func NewHandler(stats StatsSource, agents AgentLister, bans BanLister) *Handler {
	return &Handler{
		stats:         stats,
		agents:        agents,
		bans:          bans,
		healthTimeout: 5 * time.Second,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// Health reports whether durable storage is reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.healthTimeout)
	defer cancel()

	status := map[string]any{
		"status": "healthy",
		"checks": map[string]string{"api": "ok", "store": "ok"},
	}
	code := http.StatusOK
	if err := h.agents.Ping(ctx); err != nil {
		slog.Error("Health check failed", "error", err)
		status["status"] = "degraded"
		status["checks"] = map[string]string{"api": "ok", "store": "unreachable"}
		code = http.StatusServiceUnavailable
	}
	JSON(w, code, status)
}

// Stats returns bot.Stats as JSON.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.stats.Stats(r.Context())
	if err != nil {
		slog.Error("Failed to collect stats", "error", err)
		Error(w, http.StatusInternalServerError, "stats unavailable")
		return
	}
	JSON(w, http.StatusOK, st)
}

type agentView struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

// Agents lists staff members.
func (h *Handler) Agents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.agents.ListAgents(r.Context())
	if err != nil {
		slog.Error("Failed to list agents", "error", err)
		Error(w, http.StatusInternalServerError, "agents unavailable")
		return
	}
	out := make([]agentView, 0, len(agents))
	for _, a := range agents {
		out = append(out, agentView{UserID: a.UserID, Role: a.Role.String()})
	}
	JSON(w, http.StatusOK, map[string]any{"agents": out})
}

// Bans lists active bans.
func (h *Handler) Bans(w http.ResponseWriter, _ *http.Request) {
	bans := h.bans.Bans()
	if bans == nil {
		bans = []domain.Ban{}
	}
	JSON(w, http.StatusOK, map[string]any{"bans": bans})
}
