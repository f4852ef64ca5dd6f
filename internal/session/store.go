// Package session keeps per-user conversation state and the ban table in memory.
package session

import (
	"time"

	"github.com/candyxpe/supportbot/internal/domain"
)

// Store defines the session and ban operations the bot needs.
// Implementations must be safe for concurrent use.
type Store interface {
	// Snapshot returns a copy of the user's session, creating it on first use.
	Snapshot(userID int64) domain.Session

	// Mode returns the user's current mode.
	Mode(userID int64) domain.Mode

	// SetMode replaces the user's mode. Leaving AI chat clears the history.
	SetMode(userID int64, mode domain.Mode)

	// AppendHistory records a conversation turn, keeping the newest
	// domain.HistoryLimit entries.
	AppendHistory(userID int64, speaker domain.Speaker, text string)

	// ClearSession resets the user to Idle with an empty history.
	ClearSession(userID int64)

	IsBanned(userID int64, now time.Time) bool
	Ban(userID int64, until time.Time)

	// Unban removes a ban and reports whether one existed.
	Unban(userID int64) bool

	// PurgeExpiredBans removes every ban expired at now and returns how many were removed.
	PurgeExpiredBans(now time.Time) int

	// Bans lists the current ban table.
	Bans() []domain.Ban

	// Users lists every user with a session.
	Users() []int64

	Stats() Stats
}

// Stats summarizes the store contents.
type Stats struct {
	Sessions int `json:"sessions"`
	AIChats  int `json:"ai_chats"`
	Handoffs int `json:"handoffs"`
	Pending  int `json:"pending"`
	Banned   int `json:"banned"`
}
