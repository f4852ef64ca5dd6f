// Package domain contains core domain types for the support bot.
package domain

import "fmt"

// HistoryLimit is the number of conversation turns kept for an AI chat.
const HistoryLimit = 5

// ActionKind identifies a multi-step operation awaiting the user's next message.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionReportStaff
	ActionReportBug
	ActionBroadcast
	ActionAddAgent
	ActionRemoveAgent
	ActionBan
	ActionUnban
)

var actionNames = map[ActionKind]string{
	ActionNone:        "none",
	ActionReportStaff: "report_staff",
	ActionReportBug:   "report_bug",
	ActionBroadcast:   "broadcast",
	ActionAddAgent:    "add_agent",
	ActionRemoveAgent: "remove_agent",
	ActionBan:         "ban",
	ActionUnban:       "unban",
}

func (k ActionKind) String() string {
	if name, ok := actionNames[k]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(k))
}

// RequiresAdmin reports whether committing the action needs admin or manager rights.
func (k ActionKind) RequiresAdmin() bool {
	switch k {
	case ActionBroadcast, ActionAddAgent, ActionRemoveAgent, ActionBan, ActionUnban:
		return true
	default:
		return false
	}
}

type modeKind uint8

const (
	modeIdle modeKind = iota
	modeAIChat
	modeHandoff
	modePending
)

// Mode is the conversation mode of a user. The zero value is Idle.
// Exactly one mode is active at a time, so entering a mode replaces the
// previous one.
type Mode struct {
	kind   modeKind
	action ActionKind
}

// Idle returns the default mode.
func Idle() Mode { return Mode{} }

// AIChat returns the mode in which free text is answered by the completion service.
func AIChat() Mode { return Mode{kind: modeAIChat} }

// Handoff returns the mode in which free text is relayed to staff.
func Handoff() Mode { return Mode{kind: modeHandoff} }

// Pending returns the mode awaiting input for the given action.
// Pending(ActionNone) is Idle.
func Pending(kind ActionKind) Mode {
	if kind == ActionNone {
		return Idle()
	}
	return Mode{kind: modePending, action: kind}
}

// IsIdle reports whether no mode is active.
func (m Mode) IsIdle() bool { return m.kind == modeIdle }

// IsAIChat reports whether the AI chat mode is active.
func (m Mode) IsAIChat() bool { return m.kind == modeAIChat }

// IsHandoff reports whether the human handoff mode is active.
func (m Mode) IsHandoff() bool { return m.kind == modeHandoff }

// PendingAction returns the awaited action, if any.
func (m Mode) PendingAction() (ActionKind, bool) {
	if m.kind != modePending {
		return ActionNone, false
	}
	return m.action, true
}

func (m Mode) String() string {
	switch m.kind {
	case modeAIChat:
		return "ai_chat"
	case modeHandoff:
		return "handoff"
	case modePending:
		return "pending:" + m.action.String()
	default:
		return "idle"
	}
}
