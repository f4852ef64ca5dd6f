// Package bot routes inbound messages through the per-user mode state machine
// and applies the resulting effects.
package bot

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/orsinium-labs/enum"

	"github.com/candyxpe/supportbot/internal/domain"
)

// Command is a token from the fixed command vocabulary.
type Command enum.Member[string]

var (
	CmdStart          = Command{"start"}
	CmdAIAgent        = Command{"ai_agent"}
	CmdContactAgent   = Command{"contact_agent"}
	CmdEndAI          = Command{"end_ai"}
	CmdEndHuman       = Command{"end_human"}
	CmdReportStaff    = Command{"report_staff"}
	CmdReportBug      = Command{"report_bug"}
	CmdCancel         = Command{"cancel"}
	CmdAdminPanel     = Command{"admin_panel"}
	CmdManageAgents   = Command{"manage_agents"}
	CmdBanUser        = Command{"ban_user"}
	CmdBroadcast      = Command{"broadcast"}
	CmdAddAgent       = Command{"add_agent"}
	CmdRemoveAgent    = Command{"remove_agent"}
	CmdBan            = Command{"ban"}
	CmdUnban          = Command{"unban"}
	CmdGetAgents      = Command{"getagents"}
	CmdStats          = Command{"stats"}
	CmdVersion        = Command{"version"}
	CmdChangeLanguage = Command{"change_language"}

	Commands = enum.New(
		CmdStart, CmdAIAgent, CmdContactAgent, CmdEndAI, CmdEndHuman,
		CmdReportStaff, CmdReportBug, CmdCancel, CmdAdminPanel, CmdManageAgents,
		CmdBanUser, CmdBroadcast, CmdAddAgent, CmdRemoveAgent, CmdBan, CmdUnban,
		CmdGetAgents, CmdStats, CmdVersion, CmdChangeLanguage,
	)
)

func (c Command) String() string { return c.Value }

// pendingAction maps commands that open a follow-up prompt to their action.
var pendingAction = map[Command]domain.ActionKind{
	CmdReportStaff: domain.ActionReportStaff,
	CmdReportBug:   domain.ActionReportBug,
	CmdBroadcast:   domain.ActionBroadcast,
	CmdAddAgent:    domain.ActionAddAgent,
	CmdRemoveAgent: domain.ActionRemoveAgent,
	CmdBan:         domain.ActionBan,
	CmdUnban:       domain.ActionUnban,
}

// Input is an inbound message classified as a command or free text.
type Input struct {
	// IsCommand is set when the message was a slash command or carried a
	// command payload, even if the token is unknown.
	IsCommand bool
	// Command is the resolved command; Known is false for unknown tokens.
	Command Command
	Known   bool
	Token   string

	Text        string
	Attachments []string
}

// Empty reports whether a free-text input carries neither text nor media.
func (in Input) Empty() bool {
	return !in.IsCommand && in.Text == "" && len(in.Attachments) == 0
}

type commandPayload struct {
	Command string `json:"command"`
}

// ParseInput classifies an event. A structured payload wins over the text;
// a malformed payload is logged and the message is treated as free text.
func ParseInput(ev domain.Event) Input {
	in := Input{
		Text:        strings.TrimSpace(ev.Text),
		Attachments: ev.AttachmentRefs(),
	}

	if ev.Payload != "" {
		var p commandPayload
		if err := json.Unmarshal([]byte(ev.Payload), &p); err != nil {
			slog.Warn("Malformed payload, treating as text", "user_id", ev.SenderID, "event_id", ev.ID, "error", err)
		} else if p.Command != "" {
			return in.resolve(p.Command)
		}
	}

	if strings.HasPrefix(in.Text, "/") {
		token := ""
		if fields := strings.Fields(in.Text[1:]); len(fields) > 0 {
			token = fields[0]
		}
		return in.resolve(token)
	}
	return in
}

func (in Input) resolve(token string) Input {
	in.IsCommand = true
	in.Token = strings.ToLower(strings.TrimSpace(token))
	if cmd := Commands.Parse(in.Token); cmd != nil {
		in.Command = *cmd
		in.Known = true
	}
	return in
}

var (
	aiExitWords   = map[string]struct{}{"выйти": {}, "выход": {}, "стоп": {}, "exit": {}, "stop": {}}
	greetingWords = map[string]struct{}{"начать": {}, "привет": {}, "start": {}, "hello": {}}
)

func isAIExit(text string) bool {
	_, ok := aiExitWords[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

func isGreeting(text string) bool {
	_, ok := greetingWords[strings.ToLower(strings.TrimSpace(text))]
	return ok
}
