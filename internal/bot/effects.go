package bot

import (
	"time"

	"github.com/candyxpe/supportbot/internal/domain"
)

// Effect is an outbound side effect produced by routing. Effects are applied
// in order by the executor.
type Effect interface {
	effect()
}

// Send delivers a catalog message to a user, localized for the recipient.
type Send struct {
	To       int64
	Key      msgKey
	Args     []any
	Keyboard KeyboardKind
}

// SendText delivers literal text.
type SendText struct {
	To       int64
	Text     string
	Keyboard KeyboardKind
}

// StaffLabel is the heading of a staff channel post.
type StaffLabel string

const (
	LabelStaffReport StaffLabel = "🚨 ЖАЛОБА НА ПЕРСОНАЛ"
	LabelBugReport   StaffLabel = "🐛 СООБЩЕНИЕ О БАГЕ"
	LabelHandoff     StaffLabel = "✅ ПЕРЕКЛЮЧЕНИЕ НА АГЕНТА"
	LabelBroadcast   StaffLabel = "📢 ОБЪЯВЛЕНИЕ"
	LabelBan         StaffLabel = "⛔ БАН ПОЛЬЗОВАТЕЛЯ"
	LabelUnban       StaffLabel = "✅ РАЗБАН ПОЛЬЗОВАТЕЛЯ"
	LabelAddAgent    StaffLabel = "➕ ДОБАВЛЕНИЕ АГЕНТА"
	LabelRemoveAgent StaffLabel = "➖ УДАЛЕНИЕ АГЕНТА"
)

// PostStaff sends a notification to the staff channel. A failed post sends
// the sender a delivery diagnostic, then OnFailure runs; otherwise OnSuccess runs.
type PostStaff struct {
	Label       StaffLabel
	From        int64
	Text        string
	Attachments []string
	OnSuccess   []Effect
	OnFailure   []Effect
}

// Complete answers an AI chat message through the completion service.
type Complete struct {
	UserID int64
	Text   string
}

// Broadcast delivers an announcement to every known user who is not banned
// and reports the count to the sender and the staff channel.
type Broadcast struct {
	From int64
	Text string
}

// SendStats reports runtime statistics.
type SendStats struct {
	To int64
}

// SendAgentList reports the staff roster.
type SendAgentList struct {
	To int64
}

// Commit effects mutate state. A failed commit aborts the remaining effects.

// BanUser stores a ban until the given time.
type BanUser struct {
	Target int64
	Until  time.Time
}

// LiftBan removes a ban.
type LiftBan struct {
	Target int64
}

// SaveAgent persists a new staff record.
type SaveAgent struct {
	Agent domain.Agent
}

// DropAgent deletes a staff record.
type DropAgent struct {
	Target int64
}

// SetLanguage persists a language preference.
type SetLanguage struct {
	UserID   int64
	Language domain.Language
}

func (Send) effect()          {}
func (SendText) effect()      {}
func (PostStaff) effect()     {}
func (Complete) effect()      {}
func (Broadcast) effect()     {}
func (SendStats) effect()     {}
func (SendAgentList) effect() {}
func (BanUser) effect()       {}
func (LiftBan) effect()       {}
func (SaveAgent) effect()     {}
func (DropAgent) effect()     {}
func (SetLanguage) effect()   {}

// Outcome is the result of routing one event.
type Outcome struct {
	// Mode is the user's next mode; nil leaves it unchanged.
	Mode    *domain.Mode
	Effects []Effect
}

func modePtr(m domain.Mode) *domain.Mode { return &m }
