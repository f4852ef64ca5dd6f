package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/candyxpe/supportbot/internal/completion"
	"github.com/candyxpe/supportbot/internal/domain"
	"github.com/candyxpe/supportbot/internal/store"
)

// Platform error codes mapped to user notices.
const (
	codeMethodUnavailable = 27
	codeChatBotDisabled   = 912
	codeNoChatAccess      = 917
)

type codedError interface {
	ErrorCode() int
}

// execution carries per-event context through effect application.
type execution struct {
	actor   int64
	eventID string
	logger  *slog.Logger
}

// apply runs effects in order. A failed commit notifies the actor and stops.
func (e *Engine) apply(ctx context.Context, ex execution, effects []Effect) error {
	for _, eff := range effects {
		if err := e.applyOne(ctx, ex, eff); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) applyOne(ctx context.Context, ex execution, eff Effect) error {
	switch eff := eff.(type) {
	case Send:
		lang := e.language(ctx, eff.To)
		e.deliver(ctx, ex, eff.To, text(lang, eff.Key, localizeArgs(lang, eff.Args)...), eff.Keyboard)
	case SendText:
		e.deliver(ctx, ex, eff.To, eff.Text, eff.Keyboard)
	case PostStaff:
		return e.postStaff(ctx, ex, eff)
	case Complete:
		e.complete(ctx, ex, eff)
	case Broadcast:
		return e.broadcast(ctx, ex, eff)
	case SendStats:
		return e.sendStats(ctx, ex, eff)
	case SendAgentList:
		return e.sendAgentList(ctx, ex, eff)

	case BanUser:
		e.sessions.Ban(eff.Target, eff.Until)
		ex.logger.Info("User banned", "target_id", eff.Target, "until", eff.Until)
	case LiftBan:
		e.sessions.Unban(eff.Target)
		ex.logger.Info("User unbanned", "target_id", eff.Target)
	case SaveAgent:
		err := e.repo.AddAgent(ctx, eff.Agent)
		if errors.Is(err, store.ErrAgentExists) {
			return e.reject(ctx, ex, err, Send{To: ex.actor, Key: msgAlreadyAgent, Args: []any{eff.Agent.UserID}, Keyboard: KeyboardManageAgents})
		}
		if err != nil {
			return e.commitFailed(ctx, ex, fmt.Errorf("save agent: %w", err))
		}
		ex.logger.Info("Agent added", "target_id", eff.Agent.UserID, "role", eff.Agent.Role.String())
	case DropAgent:
		err := e.repo.RemoveAgent(ctx, eff.Target)
		if errors.Is(err, store.ErrNotFound) {
			return e.reject(ctx, ex, err, Send{To: ex.actor, Key: msgNotAgent, Args: []any{eff.Target}, Keyboard: KeyboardManageAgents})
		}
		if err != nil {
			return e.commitFailed(ctx, ex, fmt.Errorf("remove agent: %w", err))
		}
		ex.logger.Info("Agent removed", "target_id", eff.Target)
	case SetLanguage:
		if err := e.repo.SetLanguage(ctx, eff.UserID, eff.Language); err != nil {
			return e.commitFailed(ctx, ex, fmt.Errorf("set language: %w", err))
		}

	default:
		return fmt.Errorf("unhandled effect %T", eff)
	}
	return nil
}

func (e *Engine) reject(ctx context.Context, ex execution, cause error, notice Send) error {
	_ = e.applyOne(ctx, ex, notice)
	return cause
}

func (e *Engine) commitFailed(ctx context.Context, ex execution, err error) error {
	e.notifyError(ctx, ex)
	return err
}

// notifyError sends the generic error notice to the actor.
func (e *Engine) notifyError(ctx context.Context, ex execution) {
	lang := e.language(ctx, ex.actor)
	e.deliver(ctx, ex, ex.actor, text(lang, msgError), modeKeyboard(e.sessions.Mode(ex.actor)))
}

// deliver sends a direct message. Failures are logged and swallowed.
func (e *Engine) deliver(ctx context.Context, ex execution, to int64, body string, kb KeyboardKind) bool {
	msg := domain.Message{Text: body}
	if kb != KeyboardNone {
		msg.Keyboard = buildKeyboard(kb, e.language(ctx, to), e.isStaff(ctx, to))
	}
	if err := e.messenger.Send(ctx, to, msg); err != nil {
		attrs := []any{"recipient_id", to, "error", err}
		var coded codedError
		if errors.As(err, &coded) {
			attrs = append(attrs, "code", coded.ErrorCode())
		}
		ex.logger.Warn("Failed to send message", attrs...)
		return false
	}
	return true
}

func (e *Engine) postStaff(ctx context.Context, ex execution, p PostStaff) error {
	err := e.staff.Post(ctx, domain.StaffPost{
		Label:       string(p.Label),
		SenderID:    p.From,
		Text:        p.Text,
		Attachments: p.Attachments,
	})
	if err != nil {
		ex.logger.Warn("Failed to post to staff channel", "label", string(p.Label), "error", err)
		lang := e.language(ctx, p.From)
		e.deliver(ctx, ex, p.From, text(lang, transportNotice(err)), modeKeyboard(e.sessions.Mode(p.From)))
		return e.apply(ctx, ex, p.OnFailure)
	}
	return e.apply(ctx, ex, p.OnSuccess)
}

// transportNotice picks the notice for a failed staff channel post.
func transportNotice(err error) msgKey {
	var coded codedError
	if errors.As(err, &coded) {
		switch coded.ErrorCode() {
		case codeNoChatAccess:
			return msgNoChatAccess
		case codeChatBotDisabled:
			return msgChatBotDisabled
		case codeMethodUnavailable:
			return msgMethodUnavailable
		}
	}
	return msgChatUnavailable
}

func (e *Engine) complete(ctx context.Context, ex execution, c Complete) {
	e.sessions.AppendHistory(c.UserID, domain.SpeakerUser, c.Text)
	sess := e.sessions.Snapshot(c.UserID)
	lang := e.language(ctx, c.UserID)

	e.convLog.Log(completion.ConversationLogEvent{
		UserID: c.UserID, EventID: ex.eventID, Direction: "inbound", EventType: "ai_user_message", Content: c.Text,
	})

	answer, err := e.completer.Complete(ctx, SystemPrompt(e.rules, lang), sess.History)
	if err != nil {
		ex.logger.Warn("Completion failed", "error", err)
		e.deliver(ctx, ex, c.UserID, text(lang, msgAIError), KeyboardAI)
		return
	}

	e.sessions.AppendHistory(c.UserID, domain.SpeakerAssistant, answer)
	e.convLog.Log(completion.ConversationLogEvent{
		UserID: c.UserID, EventID: ex.eventID, Direction: "outbound", EventType: "ai_assistant_message", Content: answer,
	})
	e.deliver(ctx, ex, c.UserID, answer, KeyboardAI)
}

// broadcastRecipients returns every known user and agent who is not banned.
func (e *Engine) broadcastRecipients(ctx context.Context) ([]int64, error) {
	ids, err := e.repo.KnownUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list known users: %w", err)
	}
	agents, err := e.repo.ListAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	for _, a := range agents {
		ids = append(ids, a.UserID)
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)

	now := e.now()
	return slices.DeleteFunc(ids, func(id int64) bool {
		return e.sessions.IsBanned(id, now)
	}), nil
}

func (e *Engine) broadcast(ctx context.Context, ex execution, b Broadcast) error {
	recipients, err := e.broadcastRecipients(ctx)
	if err != nil {
		return e.commitFailed(ctx, ex, err)
	}

	sent := 0
	var failed []int64
	for _, id := range recipients {
		lang := e.language(ctx, id)
		if e.deliver(ctx, ex, id, text(lang, msgBroadcastMessage, b.Text), KeyboardNone) {
			sent++
		} else {
			failed = append(failed, id)
		}
	}
	if len(failed) > 0 {
		ex.logger.Warn("Broadcast partially failed", "failed", failed)
	}
	ex.logger.Info("Broadcast sent", "sent", sent, "recipients", len(recipients))

	lang := e.language(ctx, b.From)
	return e.apply(ctx, ex, []Effect{
		Send{To: b.From, Key: msgBroadcastSent, Args: []any{sent}, Keyboard: KeyboardAdmin},
		PostStaff{Label: LabelBroadcast, From: b.From, Text: text(lang, msgStaffBroadcast, sent, b.Text)},
	})
}

// Stats is a runtime summary for staff.
type Stats struct {
	Agents   int           `json:"agents"`
	Banned   int           `json:"banned"`
	Sessions int           `json:"sessions"`
	AIChats  int           `json:"ai_chats"`
	Handoffs int           `json:"handoffs"`
	Pending  int           `json:"pending"`
	Uptime   time.Duration `json:"-"`

	UptimeSeconds int64 `json:"uptime_seconds"`
}

// Stats summarizes sessions, bans and staff.
func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	agents, err := e.repo.ListAgents(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("list agents: %w", err)
	}
	s := e.sessions.Stats()
	uptime := e.now().Sub(e.startedAt).Truncate(time.Second)
	return Stats{
		Agents:   len(agents),
		Banned:   s.Banned,
		Sessions: s.Sessions,
		AIChats:  s.AIChats,
		Handoffs: s.Handoffs,
		Pending:  s.Pending,
		Uptime:   uptime,

		UptimeSeconds: int64(uptime / time.Second),
	}, nil
}

func (e *Engine) sendStats(ctx context.Context, ex execution, s SendStats) error {
	st, err := e.Stats(ctx)
	if err != nil {
		return e.commitFailed(ctx, ex, err)
	}
	return e.applyOne(ctx, ex, Send{
		To:       s.To,
		Key:      msgStats,
		Args:     []any{st.Agents, st.Banned, st.Sessions, st.AIChats, st.Handoffs, st.Pending, st.Uptime.String()},
		Keyboard: KeyboardAdmin,
	})
}

func (e *Engine) sendAgentList(ctx context.Context, ex execution, s SendAgentList) error {
	agents, err := e.repo.ListAgents(ctx)
	if err != nil {
		return e.commitFailed(ctx, ex, fmt.Errorf("list agents: %w", err))
	}
	if len(agents) == 0 {
		return e.applyOne(ctx, ex, Send{To: s.To, Key: msgAgentsEmpty, Keyboard: KeyboardAdmin})
	}

	lines := make([]string, 0, len(agents))
	for _, a := range agents {
		lines = append(lines, fmt.Sprintf("id%d: %s", a.UserID, a.Role.Title()))
	}
	return e.applyOne(ctx, ex, Send{To: s.To, Key: msgAgentsList, Args: []any{strings.Join(lines, "\n")}, Keyboard: KeyboardAdmin})
}

// language returns the stored preference or the default.
func (e *Engine) language(ctx context.Context, userID int64) domain.Language {
	lang, ok, err := e.repo.Language(ctx, userID)
	if err != nil || !ok {
		return e.defaultLang
	}
	return lang
}

func (e *Engine) isStaff(ctx context.Context, userID int64) bool {
	a, err := e.repo.GetAgent(ctx, userID)
	return err == nil && a != nil
}

// localizeArgs renders msgKey arguments in lang.
func localizeArgs(lang domain.Language, args []any) []any {
	if len(args) == 0 {
		return nil
	}
	out := make([]any, len(args))
	for i, a := range args {
		if k, ok := a.(msgKey); ok {
			out[i] = text(lang, k)
		} else {
			out[i] = a
		}
	}
	return out
}
