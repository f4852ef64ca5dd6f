package bot

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/candyxpe/supportbot/internal/domain"
)

type mapDirectory map[int64]domain.Role

func (d mapDirectory) GetAgent(_ context.Context, userID int64) (*domain.Agent, error) {
	role, ok := d[userID]
	if !ok {
		return nil, nil
	}
	return &domain.Agent{UserID: userID, Role: role}, nil
}

type banSet map[int64]time.Time

func (b banSet) IsBanned(userID int64, now time.Time) bool {
	until, ok := b[userID]
	return ok && now.Before(until)
}

var compareModes = cmp.Comparer(func(a, b domain.Mode) bool { return a == b })

func TestRoute(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	dir := mapDirectory{adminID: domain.RoleAdmin, agentID: domain.RoleAgent}
	bans := banSet{777: now.Add(time.Hour)}
	idle := domain.Idle()

	tests := []struct {
		name string
		sess domain.Session
		ev   domain.Event
		want Outcome
	}{
		{
			name: "payload wins over text",
			sess: domain.Session{UserID: userID},
			ev:   domain.Event{SenderID: userID, Text: "привет", Payload: `{"command":"ai_agent"}`},
			want: transition(domain.AIChat(), Send{To: userID, Key: msgAIOn, Keyboard: KeyboardAI}),
		},
		{
			name: "malformed payload falls back to text",
			sess: domain.Session{UserID: userID},
			ev:   domain.Event{SenderID: userID, Text: "привет", Payload: `{"command":`},
			want: reply(userID, msgWelcome, KeyboardMain),
		},
		{
			name: "unknown command keeps mode keyboard",
			sess: domain.Session{UserID: userID, Mode: domain.AIChat()},
			ev:   domain.Event{SenderID: userID, Text: "/dance"},
			want: reply(userID, msgUnknown, KeyboardAI),
		},
		{
			name: "ai chat text is completed",
			sess: domain.Session{UserID: userID, Mode: domain.AIChat()},
			ev:   domain.Event{SenderID: userID, Text: "  как купить привилегию?  "},
			want: Outcome{Effects: []Effect{Complete{UserID: userID, Text: "как купить привилегию?"}}},
		},
		{
			name: "ai exit word leaves chat",
			sess: domain.Session{UserID: userID, Mode: domain.AIChat()},
			ev:   domain.Event{SenderID: userID, Text: "Стоп"},
			want: transition(idle, Send{To: userID, Key: msgAIOff, Keyboard: KeyboardMain}),
		},
		{
			name: "pending ban with bad hours stays pending",
			sess: domain.Session{UserID: adminID, Mode: domain.Pending(domain.ActionBan)},
			ev:   domain.Event{SenderID: adminID, Text: "123456 many"},
			want: reply(adminID, msgInvalidFormat, KeyboardAction, msgHintBanFormat, "123456 24"),
		},
		{
			name: "pending ban over ten years is rejected",
			sess: domain.Session{UserID: adminID, Mode: domain.Pending(domain.ActionBan)},
			ev:   domain.Event{SenderID: adminID, Text: "123456 87601"},
			want: reply(adminID, msgInvalidFormat, KeyboardAction, msgHintBanFormat, "123456 24"),
		},
		{
			name: "ban commits before notifications",
			sess: domain.Session{UserID: adminID, Mode: domain.Pending(domain.ActionBan), Language: domain.LangRU},
			ev:   domain.Event{SenderID: adminID, Text: "123456 24"},
			want: transition(idle,
				BanUser{Target: targetID, Until: now.Add(24 * time.Hour)},
				Send{To: adminID, Key: msgBanned, Args: []any{targetID, 24}, Keyboard: KeyboardBanUser},
				Send{To: targetID, Key: msgBannedNotify, Args: []any{24}, Keyboard: KeyboardNone},
				PostStaff{Label: LabelBan, From: adminID, Text: ru(msgStaffBanned, targetID, 24)},
			),
		},
		{
			name: "unban of user without ban",
			sess: domain.Session{UserID: adminID, Mode: domain.Pending(domain.ActionUnban)},
			ev:   domain.Event{SenderID: adminID, Text: "123456"},
			want: transition(idle, Send{To: adminID, Key: msgNotBanned, Args: []any{targetID}, Keyboard: KeyboardBanUser}),
		},
		{
			name: "unban of banned user",
			sess: domain.Session{UserID: adminID, Mode: domain.Pending(domain.ActionUnban), Language: domain.LangRU},
			ev:   domain.Event{SenderID: adminID, Text: "777"},
			want: transition(idle,
				LiftBan{Target: 777},
				Send{To: adminID, Key: msgUnbanned, Args: []any{int64(777)}, Keyboard: KeyboardBanUser},
				Send{To: 777, Key: msgUnbannedNotify, Keyboard: KeyboardMain},
				PostStaff{Label: LabelUnban, From: adminID, Text: ru(msgStaffUnbanned, int64(777))},
			),
		},
		{
			name: "agent cannot commit admin action",
			sess: domain.Session{UserID: agentID, Mode: domain.Pending(domain.ActionBroadcast)},
			ev:   domain.Event{SenderID: agentID, Text: "всем привет"},
			want: transition(idle, Send{To: agentID, Key: msgAdminDenied, Keyboard: KeyboardAdmin}),
		},
		{
			name: "broadcast is handed to the executor",
			sess: domain.Session{UserID: adminID, Mode: domain.Pending(domain.ActionBroadcast)},
			ev:   domain.Event{SenderID: adminID, Text: "всем привет"},
			want: transition(idle, Broadcast{From: adminID, Text: "всем привет"}),
		},
		{
			name: "cancel from pending",
			sess: domain.Session{UserID: adminID, Mode: domain.Pending(domain.ActionAddAgent)},
			ev:   domain.Event{SenderID: adminID, Text: "/cancel"},
			want: transition(idle, Send{To: adminID, Key: msgCancel, Keyboard: KeyboardMain}),
		},
		{
			name: "agent gets admin panel",
			sess: domain.Session{UserID: agentID},
			ev:   domain.Event{SenderID: agentID, Payload: `{"command":"admin_panel"}`},
			want: reply(agentID, msgAdminPanel, KeyboardAdmin),
		},
	}

	r := NewRouter(dir, bans)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Route(context.Background(), tt.sess, tt.ev, now)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got, compareModes); diff != "" {
				t.Errorf("Route() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRouteLooksUpRolesEveryTime(t *testing.T) {
	dir := mapDirectory{}
	r := NewRouter(dir, banSet{})
	sess := domain.Session{UserID: userID}
	ev := domain.Event{SenderID: userID, Text: "/admin_panel"}

	got, err := r.Route(context.Background(), sess, ev, time.Now())
	require.NoError(t, err)
	if diff := cmp.Diff(reply(userID, msgAdminDenied, KeyboardMain), got, compareModes); diff != "" {
		t.Errorf("before promotion (-want +got):\n%s", diff)
	}

	dir[userID] = domain.RoleManager
	got, err = r.Route(context.Background(), sess, ev, time.Now())
	require.NoError(t, err)
	if diff := cmp.Diff(reply(userID, msgAdminPanel, KeyboardAdmin), got, compareModes); diff != "" {
		t.Errorf("after promotion (-want +got):\n%s", diff)
	}
}
