package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/candyxpe/supportbot/internal/domain"
)

// Directory looks up staff records. Roles are read on every command and
// never cached across events.
type Directory interface {
	GetAgent(ctx context.Context, userID int64) (*domain.Agent, error)
}

// BanView answers ban checks for routing decisions.
type BanView interface {
	IsBanned(userID int64, now time.Time) bool
}

// Router maps an event and the sender's session to an Outcome. It only reads
// state; every mutation is expressed as an effect.
type Router struct {
	agents Directory
	bans   BanView
}

// NewRouter creates a router.
func NewRouter(agents Directory, bans BanView) *Router {
	return &Router{agents: agents, bans: bans}
}

var actionPrompts = map[domain.ActionKind]msgKey{
	domain.ActionReportStaff: msgReportStaff,
	domain.ActionReportBug:   msgReportBug,
	domain.ActionBroadcast:   msgBroadcastPrompt,
	domain.ActionAddAgent:    msgAddAgentPrompt,
	domain.ActionRemoveAgent: msgRemoveAgentPrompt,
	domain.ActionBan:         msgBanPrompt,
	domain.ActionUnban:       msgUnbanPrompt,
}

// Route decides what to do with ev for the user in sess.
func (r *Router) Route(ctx context.Context, sess domain.Session, ev domain.Event, now time.Time) (Outcome, error) {
	in := ParseInput(ev)

	if in.Empty() {
		return reply(sess.UserID, msgNoInput, modeKeyboard(sess.Mode)), nil
	}
	if in.IsCommand {
		return r.command(ctx, sess, in)
	}
	if kind, ok := sess.Mode.PendingAction(); ok {
		return r.action(ctx, sess, kind, in, now)
	}

	switch {
	case sess.Mode.IsHandoff():
		return Outcome{Effects: []Effect{PostStaff{
			Label:       LabelHandoff,
			From:        sess.UserID,
			Text:        in.Text,
			Attachments: in.Attachments,
		}}}, nil

	case sess.Mode.IsAIChat():
		if isAIExit(in.Text) {
			return transition(domain.Idle(), Send{To: sess.UserID, Key: msgAIOff, Keyboard: KeyboardMain}), nil
		}
		if in.Text == "" {
			return reply(sess.UserID, msgNoInput, KeyboardAI), nil
		}
		return Outcome{Effects: []Effect{Complete{UserID: sess.UserID, Text: in.Text}}}, nil
	}

	if isGreeting(in.Text) {
		return reply(sess.UserID, msgWelcome, KeyboardMain), nil
	}
	return reply(sess.UserID, msgUnknown, KeyboardMain), nil
}

func (r *Router) command(ctx context.Context, sess domain.Session, in Input) (Outcome, error) {
	u := sess.UserID
	if !in.Known {
		return reply(u, msgUnknown, modeKeyboard(sess.Mode)), nil
	}

	switch in.Command {
	case CmdStart:
		return transition(domain.Idle(), Send{To: u, Key: msgWelcome, Keyboard: KeyboardMain}), nil

	case CmdAIAgent:
		return transition(domain.AIChat(), Send{To: u, Key: msgAIOn, Keyboard: KeyboardAI}), nil

	case CmdContactAgent:
		return transition(domain.Handoff(),
			PostStaff{Label: LabelHandoff, From: u, Text: text(sess.Language, msgStaffClientConnected)},
			Send{To: u, Key: msgHumanOn, Keyboard: KeyboardHuman},
		), nil

	case CmdEndAI:
		return transition(domain.Idle(), Send{To: u, Key: msgAIOff, Keyboard: KeyboardMain}), nil

	case CmdEndHuman:
		return transition(domain.Idle(), Send{To: u, Key: msgHumanOff, Keyboard: KeyboardMain}), nil

	case CmdCancel:
		return transition(domain.Idle(), Send{To: u, Key: msgCancel, Keyboard: KeyboardMain}), nil

	case CmdReportStaff, CmdReportBug:
		kind := pendingAction[in.Command]
		return transition(domain.Pending(kind), Send{To: u, Key: actionPrompts[kind], Keyboard: KeyboardAction}), nil

	case CmdChangeLanguage:
		return Outcome{Effects: []Effect{
			SetLanguage{UserID: u, Language: sess.Language.Toggle()},
			Send{To: u, Key: msgLangChanged, Keyboard: modeKeyboard(sess.Mode)},
		}}, nil

	case CmdVersion:
		return Outcome{Effects: []Effect{
			Send{To: u, Key: msgVersion, Args: []any{Version, CodeName}, Keyboard: modeKeyboard(sess.Mode)},
		}}, nil
	}

	actor, err := r.agent(ctx, u)
	if err != nil {
		return Outcome{}, err
	}

	switch in.Command {
	case CmdAdminPanel:
		if actor == nil {
			return reply(u, msgAdminDenied, modeKeyboard(sess.Mode)), nil
		}
		return reply(u, msgAdminPanel, KeyboardAdmin), nil

	case CmdStats:
		if actor == nil {
			return reply(u, msgAdminDenied, modeKeyboard(sess.Mode)), nil
		}
		return Outcome{Effects: []Effect{SendStats{To: u}}}, nil
	}

	if !canManage(actor) {
		return reply(u, msgAdminDenied, deniedKeyboard(actor, sess.Mode)), nil
	}

	switch in.Command {
	case CmdManageAgents:
		return reply(u, msgManageAgents, KeyboardManageAgents), nil
	case CmdBanUser:
		return reply(u, msgBanUser, KeyboardBanUser), nil
	case CmdGetAgents:
		return Outcome{Effects: []Effect{SendAgentList{To: u}}}, nil
	case CmdBroadcast, CmdAddAgent, CmdRemoveAgent, CmdBan, CmdUnban:
		kind := pendingAction[in.Command]
		return transition(domain.Pending(kind), Send{To: u, Key: actionPrompts[kind], Keyboard: KeyboardAction}), nil
	}

	return Outcome{}, fmt.Errorf("command %q has no route", in.Command)
}

func (r *Router) agent(ctx context.Context, userID int64) (*domain.Agent, error) {
	a, err := r.agents.GetAgent(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("look up agent %d: %w", userID, err)
	}
	return a, nil
}

func canManage(a *domain.Agent) bool {
	return a != nil && a.Role.CanManage()
}

// deniedKeyboard keeps staff on the admin panel and everyone else where they were.
func deniedKeyboard(actor *domain.Agent, mode domain.Mode) KeyboardKind {
	if actor != nil {
		return KeyboardAdmin
	}
	return modeKeyboard(mode)
}

func reply(to int64, key msgKey, kb KeyboardKind, args ...any) Outcome {
	return Outcome{Effects: []Effect{Send{To: to, Key: key, Args: args, Keyboard: kb}}}
}

func transition(mode domain.Mode, effects ...Effect) Outcome {
	return Outcome{Mode: modePtr(mode), Effects: effects}
}
