// Package store provides durable persistence for staff records, language
// preferences and the rules document.
package store

import (
	"context"
	"errors"

	"github.com/candyxpe/supportbot/internal/domain"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAgentExists is returned when adding an agent id that is already registered.
	ErrAgentExists = errors.New("agent already exists")
)

// DefaultRules is written when no rules document exists yet.
const DefaultRules = "Правила CandyxPE отсутствуют."

// Repository defines the durable state the bot reads and writes.
type Repository interface {
	// ListAgents returns every staff record ordered by user id.
	ListAgents(ctx context.Context) ([]domain.Agent, error)

	// GetAgent returns the staff record for a user, or nil if the user is not staff.
	GetAgent(ctx context.Context, userID int64) (*domain.Agent, error)

	// AddAgent persists a new staff record. Returns ErrAgentExists on duplicates.
	AddAgent(ctx context.Context, agent domain.Agent) error

	// RemoveAgent deletes a staff record. Returns ErrNotFound if absent.
	RemoveAgent(ctx context.Context, userID int64) error

	// Language returns the stored language preference and whether one exists.
	Language(ctx context.Context, userID int64) (domain.Language, bool, error)

	// SetLanguage stores a language preference.
	SetLanguage(ctx context.Context, userID int64, lang domain.Language) error

	// RememberUser records a user with the given language unless already known.
	RememberUser(ctx context.Context, userID int64, lang domain.Language) error

	// KnownUsers lists every user with a stored language preference.
	KnownUsers(ctx context.Context) ([]int64, error)

	// Rules returns the raw rules document.
	Rules(ctx context.Context) (string, error)

	// Ping verifies the backing storage is reachable.
	Ping(ctx context.Context) error

	// Close releases the backing storage.
	Close() error
}
