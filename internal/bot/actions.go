package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/candyxpe/supportbot/internal/domain"
)

// maxBanHours bounds a ban to ten years.
const maxBanHours = 24 * 365 * 10

// action consumes free text for a pending action. Format errors re-prompt and
// keep the action pending; success and semantic rejections return to Idle.
func (r *Router) action(ctx context.Context, sess domain.Session, kind domain.ActionKind, in Input, now time.Time) (Outcome, error) {
	u := sess.UserID

	if kind.RequiresAdmin() {
		actor, err := r.agent(ctx, u)
		if err != nil {
			return Outcome{}, err
		}
		if !canManage(actor) {
			return transition(domain.Idle(), Send{To: u, Key: msgAdminDenied, Keyboard: deniedKeyboard(actor, domain.Idle())}), nil
		}
	}

	switch kind {
	case domain.ActionReportStaff:
		return report(u, LabelStaffReport, msgReportStaffSent, msgReportStaffFailed, in), nil
	case domain.ActionReportBug:
		return report(u, LabelBugReport, msgReportBugSent, msgReportBugFailed, in), nil
	case domain.ActionBroadcast:
		return transition(domain.Idle(), Broadcast{From: u, Text: in.Text}), nil
	case domain.ActionAddAgent:
		return r.addAgent(ctx, sess, in)
	case domain.ActionRemoveAgent:
		return r.removeAgent(ctx, sess, in)
	case domain.ActionBan:
		return r.ban(ctx, sess, in, now)
	case domain.ActionUnban:
		return r.unban(sess, in, now), nil
	}

	return Outcome{}, fmt.Errorf("action %s has no handler", kind)
}

func report(u int64, label StaffLabel, sent, failed msgKey, in Input) Outcome {
	return transition(domain.Idle(), PostStaff{
		Label:       label,
		From:        u,
		Text:        in.Text,
		Attachments: in.Attachments,
		OnSuccess:   []Effect{Send{To: u, Key: sent, Keyboard: KeyboardMain}},
		OnFailure:   []Effect{Send{To: u, Key: failed, Keyboard: KeyboardMain}},
	})
}

func (r *Router) addAgent(ctx context.Context, sess domain.Session, in Input) (Outcome, error) {
	u := sess.UserID
	invalid := reply(u, msgInvalidFormat, KeyboardAction, msgHintAgentFormat, "123456 agent")

	fields := strings.Fields(in.Text)
	if len(fields) != 2 {
		return invalid, nil
	}
	target, ok := parseID(fields[0])
	if !ok {
		return invalid, nil
	}
	role, ok := domain.ParseRole(fields[1])
	if !ok {
		return invalid, nil
	}

	if target == u {
		return transition(domain.Idle(), Send{To: u, Key: msgSelfAgent, Keyboard: KeyboardManageAgents}), nil
	}
	existing, err := r.agent(ctx, target)
	if err != nil {
		return Outcome{}, err
	}
	if existing != nil {
		return transition(domain.Idle(), Send{To: u, Key: msgAlreadyAgent, Args: []any{target}, Keyboard: KeyboardManageAgents}), nil
	}

	return transition(domain.Idle(),
		SaveAgent{Agent: domain.Agent{UserID: target, Role: role}},
		Send{To: u, Key: msgAgentAdded, Args: []any{role.Title(), target}, Keyboard: KeyboardAdmin},
		Send{To: target, Key: msgAgentAddedNotify, Args: []any{role.String()}, Keyboard: KeyboardMain},
		PostStaff{Label: LabelAddAgent, From: u, Text: text(sess.Language, msgStaffAgentAdded, role.Title(), target)},
	), nil
}

func (r *Router) removeAgent(ctx context.Context, sess domain.Session, in Input) (Outcome, error) {
	u := sess.UserID

	target, ok := parseID(in.Text)
	if !ok {
		return reply(u, msgInvalidID, KeyboardAction), nil
	}
	if target == u {
		return transition(domain.Idle(), Send{To: u, Key: msgSelfRemove, Keyboard: KeyboardManageAgents}), nil
	}
	existing, err := r.agent(ctx, target)
	if err != nil {
		return Outcome{}, err
	}
	if existing == nil {
		return transition(domain.Idle(), Send{To: u, Key: msgNotAgent, Args: []any{target}, Keyboard: KeyboardManageAgents}), nil
	}

	role := existing.Role
	return transition(domain.Idle(),
		DropAgent{Target: target},
		Send{To: u, Key: msgAgentRemoved, Args: []any{role.Title(), target}, Keyboard: KeyboardAdmin},
		Send{To: target, Key: msgAgentRemovedNotify, Args: []any{role.String()}, Keyboard: KeyboardMain},
		PostStaff{Label: LabelRemoveAgent, From: u, Text: text(sess.Language, msgStaffAgentRemoved, role.Title(), target)},
	), nil
}

func (r *Router) ban(ctx context.Context, sess domain.Session, in Input, now time.Time) (Outcome, error) {
	u := sess.UserID
	invalid := reply(u, msgInvalidFormat, KeyboardAction, msgHintBanFormat, "123456 24")

	fields := strings.Fields(in.Text)
	if len(fields) != 2 {
		return invalid, nil
	}
	target, ok := parseID(fields[0])
	if !ok {
		return invalid, nil
	}
	hours, err := strconv.Atoi(fields[1])
	if err != nil || hours <= 0 || hours > maxBanHours {
		return invalid, nil
	}

	if target == u {
		return transition(domain.Idle(), Send{To: u, Key: msgSelfBan, Keyboard: KeyboardBanUser}), nil
	}
	existing, err := r.agent(ctx, target)
	if err != nil {
		return Outcome{}, err
	}
	if existing != nil {
		return transition(domain.Idle(), Send{To: u, Key: msgAgentBan, Keyboard: KeyboardBanUser}), nil
	}

	return transition(domain.Idle(),
		BanUser{Target: target, Until: now.Add(time.Duration(hours) * time.Hour)},
		Send{To: u, Key: msgBanned, Args: []any{target, hours}, Keyboard: KeyboardBanUser},
		Send{To: target, Key: msgBannedNotify, Args: []any{hours}, Keyboard: KeyboardNone},
		PostStaff{Label: LabelBan, From: u, Text: text(sess.Language, msgStaffBanned, target, hours)},
	), nil
}

func (r *Router) unban(sess domain.Session, in Input, now time.Time) Outcome {
	u := sess.UserID

	target, ok := parseID(in.Text)
	if !ok {
		return reply(u, msgInvalidID, KeyboardAction)
	}
	if !r.bans.IsBanned(target, now) {
		return transition(domain.Idle(), Send{To: u, Key: msgNotBanned, Args: []any{target}, Keyboard: KeyboardBanUser})
	}

	return transition(domain.Idle(),
		LiftBan{Target: target},
		Send{To: u, Key: msgUnbanned, Args: []any{target}, Keyboard: KeyboardBanUser},
		Send{To: target, Key: msgUnbannedNotify, Keyboard: KeyboardMain},
		PostStaff{Label: LabelUnban, From: u, Text: text(sess.Language, msgStaffUnbanned, target)},
	)
}

// parseID accepts a single positive numeric user id.
func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
