package bot

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/candyxpe/supportbot/internal/domain"
	"github.com/candyxpe/supportbot/internal/ratelimit"
)

func TestGreetingAndUnknownInput(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, []string{ru(msgWelcome)}, h.say(userID, "Привет"))
	assert.Equal(t, []string{ru(msgUnknown)}, h.say(userID, "что-то непонятное"))
	assert.Equal(t, []string{ru(msgUnknown)}, h.say(userID, "/teleport"))
	assert.Equal(t, []string{ru(msgNoInput)}, h.say(userID, "   "))
	assert.True(t, h.mode(userID).IsIdle())
}

func TestGroupChatEventsAreIgnored(t *testing.T) {
	h := newHarness(t)

	ev := h.event(userID, "привет")
	ev.FromGroupChat = true
	h.engine.Handle(context.Background(), ev)

	ev = h.event(userID, "привет")
	ev.AddressedToBot = false
	h.engine.Handle(context.Background(), ev)

	assert.Empty(t, h.messenger.all())
	assert.Empty(t, h.sessions.Users())
}

func TestModesAreExclusive(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, []string{ru(msgAIOn)}, h.press(userID, CmdAIAgent))
	assert.True(t, h.mode(userID).IsAIChat())

	assert.Equal(t, []string{ru(msgHumanOn)}, h.press(userID, CmdContactAgent))
	assert.True(t, h.mode(userID).IsHandoff())
	assert.False(t, h.mode(userID).IsAIChat())

	assert.Equal(t, []string{ru(msgReportBug)}, h.press(userID, CmdReportBug))
	kind, ok := h.mode(userID).PendingAction()
	require.True(t, ok)
	assert.Equal(t, domain.ActionReportBug, kind)

	assert.Equal(t, []string{ru(msgCancel)}, h.press(userID, CmdCancel))
	assert.True(t, h.mode(userID).IsIdle())
}

func TestAIChatKeepsBoundedHistory(t *testing.T) {
	h := newHarness(t)
	h.press(userID, CmdAIAgent)

	for i := 1; i <= 7; i++ {
		got := h.say(userID, "вопрос")
		require.Len(t, got, 1)
		assert.Equal(t, "answer "+string(rune('0'+i)), got[0])
	}

	sess := h.sessions.Snapshot(userID)
	require.Len(t, sess.History, domain.HistoryLimit)
	assert.Equal(t, domain.Turn{Speaker: domain.SpeakerAssistant, Text: "answer 7"}, sess.History[domain.HistoryLimit-1])

	last := h.completer.calls[len(h.completer.calls)-1]
	require.Len(t, last, domain.HistoryLimit)
	assert.Equal(t, domain.Turn{Speaker: domain.SpeakerUser, Text: "вопрос"}, last[domain.HistoryLimit-1])
	assert.Contains(t, h.completer.prompts[0], "Не ругаться.")

	assert.Equal(t, []string{ru(msgAIOff)}, h.say(userID, "выйти"))
	assert.True(t, h.mode(userID).IsIdle())
	assert.Empty(t, h.sessions.Snapshot(userID).History)
}

func TestAIChatApologizesOnFailure(t *testing.T) {
	h := newHarness(t)
	h.completer.err = errBoom
	h.press(userID, CmdAIAgent)

	assert.Equal(t, []string{ru(msgAIError)}, h.say(userID, "сколько стоит донат?"))
	assert.True(t, h.mode(userID).IsAIChat())

	sess := h.sessions.Snapshot(userID)
	assert.Equal(t, []domain.Turn{{Speaker: domain.SpeakerUser, Text: "сколько стоит донат?"}}, sess.History)
}

func TestHandoffRelaysToStaff(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, []string{ru(msgHumanOn)}, h.press(userID, CmdContactAgent))
	assert.Empty(t, h.say(userID, "не могу зайти на сервер"))

	want := []domain.StaffPost{
		{Label: string(LabelHandoff), SenderID: userID, Text: ru(msgStaffClientConnected)},
		{Label: string(LabelHandoff), SenderID: userID, Text: "не могу зайти на сервер"},
	}
	if diff := cmp.Diff(want, h.staff.posts); diff != "" {
		t.Errorf("staff posts mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, h.mode(userID).IsHandoff())
}

func TestReportForwardsAttachments(t *testing.T) {
	h := newHarness(t)
	h.press(userID, CmdReportBug)

	ev := h.event(userID, "текстуры пропали")
	ev.Attachments = []domain.Attachment{
		{Type: "photo", OwnerID: userID, ID: 42},
		{Type: "sticker", OwnerID: 1, ID: 2},
	}
	h.engine.Handle(context.Background(), ev)

	assert.Equal(t, []string{ru(msgReportBugSent)}, h.messenger.drain(userID))
	require.Len(t, h.staff.posts, 1)
	assert.Equal(t, string(LabelBugReport), h.staff.posts[0].Label)
	assert.Equal(t, []string{"photo100_42"}, h.staff.posts[0].Attachments)
	assert.True(t, h.mode(userID).IsIdle())
}

func TestStaffChannelFailureNotices(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want msgKey
	}{
		{"no chat access", codeError{917}, msgNoChatAccess},
		{"chat bot disabled", codeError{912}, msgChatBotDisabled},
		{"method unavailable", codeError{27}, msgMethodUnavailable},
		{"other platform code", codeError{5}, msgChatUnavailable},
		{"channel missing", domain.ErrChannelUnavailable, msgChatUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.staff.err = tt.err

			h.press(userID, CmdReportStaff)
			got := h.say(userID, "модератор грубит")

			assert.Equal(t, []string{ru(tt.want), ru(msgReportStaffFailed)}, got)
			assert.True(t, h.mode(userID).IsIdle())
		})
	}
}

func TestNonAdminIsDenied(t *testing.T) {
	h := newHarness(t)

	for _, cmd := range []Command{CmdBan, CmdUnban, CmdBroadcast, CmdManageAgents, CmdGetAgents} {
		assert.Equal(t, []string{ru(msgAdminDenied)}, h.press(userID, cmd), cmd.String())
		assert.True(t, h.mode(userID).IsIdle())
		assert.Equal(t, []string{ru(msgAdminDenied)}, h.press(agentID, cmd), cmd.String())
		assert.True(t, h.mode(agentID).IsIdle())
	}

	assert.Equal(t, []string{ru(msgAdminDenied)}, h.press(userID, CmdAdminPanel))
	assert.Equal(t, []string{ru(msgAdminPanel)}, h.press(agentID, CmdAdminPanel))
	assert.Equal(t, []string{ru(msgManageAgents)}, h.press(managerID, CmdManageAgents))
}

func TestAdminRightsRecheckedOnCommit(t *testing.T) {
	h := newHarness(t)

	h.press(adminID, CmdBan)
	require.NoError(t, h.repo.RemoveAgent(context.Background(), adminID))

	assert.Equal(t, []string{ru(msgAdminDenied)}, h.say(adminID, "123456 24"))
	assert.True(t, h.mode(adminID).IsIdle())
	assert.Empty(t, h.sessions.Bans())
}

func TestBanFlow(t *testing.T) {
	h := newHarness(t)
	start := h.clock.Now()

	assert.Equal(t, []string{ru(msgBanPrompt)}, h.press(adminID, CmdBan))

	assert.Equal(t, []string{ru(msgInvalidFormat, ru(msgHintBanFormat), "123456 24")}, h.say(adminID, "abc"))
	kind, ok := h.mode(adminID).PendingAction()
	require.True(t, ok)
	assert.Equal(t, domain.ActionBan, kind)

	assert.Equal(t, []string{ru(msgInvalidFormat, ru(msgHintBanFormat), "123456 24")}, h.say(adminID, "123456 -5"))
	assert.Equal(t, []string{ru(msgBanned, targetID, 24)}, h.say(adminID, "123456 24"))
	assert.True(t, h.mode(adminID).IsIdle())

	want := []domain.Ban{{UserID: targetID, ExpiresAt: start.Add(24 * time.Hour)}}
	if diff := cmp.Diff(want, h.sessions.Bans()); diff != "" {
		t.Errorf("bans mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{ru(msgBannedNotify, 24)}, h.messenger.drain(targetID))
	assert.Equal(t, []string{string(LabelBan)}, h.staff.labels())

	// Banned users only get the notice.
	assert.Equal(t, []string{ru(msgBannedUser)}, h.say(targetID, "/ai_agent"))
	assert.True(t, h.mode(targetID).IsIdle())
	assert.Len(t, h.staff.posts, 1)

	h.clock.Advance(24 * time.Hour)
	assert.Equal(t, []string{ru(msgWelcome)}, h.say(targetID, "привет"))
	assert.Empty(t, h.sessions.Bans())
}

func TestSelfProtection(t *testing.T) {
	h := newHarness(t)

	h.press(adminID, CmdBan)
	assert.Equal(t, []string{ru(msgSelfBan)}, h.say(adminID, "1 5"))
	h.press(adminID, CmdBan)
	assert.Equal(t, []string{ru(msgAgentBan)}, h.say(adminID, "2 5"))
	assert.Empty(t, h.sessions.Bans())

	h.press(adminID, CmdAddAgent)
	assert.Equal(t, []string{ru(msgSelfAgent)}, h.say(adminID, "1 manager"))
	h.press(adminID, CmdRemoveAgent)
	assert.Equal(t, []string{ru(msgSelfRemove)}, h.say(adminID, "1"))

	a, err := h.repo.GetAgent(context.Background(), adminID)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, domain.RoleAdmin, a.Role)
	assert.True(t, h.mode(adminID).IsIdle())
}

func TestAgentAddRemoveRoundTrip(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.press(adminID, CmdAddAgent)
	assert.Equal(t, []string{ru(msgAgentAdded, "Manager", int64(555))}, h.say(adminID, "555 MANAGER"))
	assert.Equal(t, []string{ru(msgAgentAddedNotify, "manager")}, h.messenger.drain(555))

	a, err := h.repo.GetAgent(ctx, 555)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, domain.RoleManager, a.Role)

	h.press(adminID, CmdAddAgent)
	assert.Equal(t, []string{ru(msgAlreadyAgent, int64(555))}, h.say(adminID, "555 agent"))

	h.press(adminID, CmdRemoveAgent)
	assert.Equal(t, []string{ru(msgInvalidID)}, h.say(adminID, "abc"))
	assert.Equal(t, []string{ru(msgAgentRemoved, "Manager", int64(555))}, h.say(adminID, "555"))

	a, err = h.repo.GetAgent(ctx, 555)
	require.NoError(t, err)
	assert.Nil(t, a)

	h.press(adminID, CmdRemoveAgent)
	assert.Equal(t, []string{ru(msgNotAgent, int64(555))}, h.say(adminID, "555"))
	assert.Equal(t, []string{string(LabelAddAgent), string(LabelRemoveAgent)}, h.staff.labels())
}

func TestUnban(t *testing.T) {
	h := newHarness(t)

	h.press(adminID, CmdUnban)
	assert.Equal(t, []string{ru(msgNotBanned, targetID)}, h.say(adminID, "123456"))

	h.sessions.Ban(targetID, h.clock.Now().Add(time.Hour))
	h.press(adminID, CmdUnban)
	assert.Equal(t, []string{ru(msgUnbanned, targetID)}, h.say(adminID, "123456"))
	assert.Equal(t, []string{ru(msgUnbannedNotify)}, h.messenger.drain(targetID))
	assert.False(t, h.sessions.IsBanned(targetID, h.clock.Now()))
}

func TestBroadcastSkipsBannedUsers(t *testing.T) {
	h := newHarness(t)
	for _, id := range []int64{10, 11, 12} {
		h.say(id, "привет")
	}
	h.press(adminID, CmdBan)
	h.say(adminID, "12 1")
	h.messenger.drain(12)
	h.messenger.fail = map[int64]error{11: errBoom}

	h.press(adminID, CmdBroadcast)
	got := h.say(adminID, "Завтра техработы")

	// Recipients are known users and staff: 1, 2, 3, 10, 11. Delivery to 11 fails.
	assert.Equal(t, []string{ru(msgBroadcastMessage, "Завтра техработы"), ru(msgBroadcastSent, 4)}, got)
	assert.Equal(t, []string{ru(msgBroadcastMessage, "Завтра техработы")}, h.messenger.drain(10))
	assert.Empty(t, h.messenger.drain(12))
	assert.Equal(t, []string{string(LabelBan), string(LabelBroadcast)}, h.staff.labels())
	assert.True(t, h.mode(adminID).IsIdle())
}

func TestChangeLanguagePersists(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, []string{text(domain.LangEN, msgLangChanged)}, h.press(userID, CmdChangeLanguage))
	assert.Equal(t, []string{text(domain.LangEN, msgWelcome)}, h.say(userID, "hello"))

	lang, ok, err := h.repo.Language(context.Background(), userID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.LangEN, lang)
}

func TestStaffSeeAdminButton(t *testing.T) {
	h := newHarness(t)

	h.engine.Handle(context.Background(), h.event(agentID, "привет"))
	h.engine.Handle(context.Background(), h.event(userID, "привет"))

	sent := h.messenger.all()
	require.Len(t, sent, 2)
	require.NotNil(t, sent[0].Keyboard)
	require.NotNil(t, sent[1].Keyboard)
	assert.Equal(t, CmdAdminPanel.String(), sent[0].Keyboard.Rows[0][0].Command)
	assert.Equal(t, CmdAIAgent.String(), sent[1].Keyboard.Rows[0][0].Command)
	assert.Len(t, sent[0].Keyboard.Rows, len(sent[1].Keyboard.Rows)+1)
}

func TestStatsAndAgentList(t *testing.T) {
	h := newHarness(t)
	h.press(userID, CmdAIAgent)
	h.sessions.Ban(targetID, h.clock.Now().Add(time.Hour))
	h.clock.Advance(90 * time.Second)

	st, err := h.engine.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{
		Agents:        3,
		Banned:        1,
		Sessions:      1,
		AIChats:       1,
		Uptime:        90 * time.Second,
		UptimeSeconds: 90,
	}, st)

	assert.Equal(t, []string{ru(msgAdminDenied)}, h.press(userID, CmdStats))
	assert.Equal(t, []string{ru(msgStats, 3, 1, 2, 1, 0, 0, "1m30s")}, h.press(agentID, CmdStats))
	assert.Equal(t, []string{ru(msgAgentsList, "id1: Admin\nid2: Agent\nid3: Manager")}, h.press(adminID, CmdGetAgents))
}

func TestVersionCommand(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, []string{ru(msgVersion, Version, CodeName)}, h.say(userID, "/version"))
}

func TestSpamGuardDropsBursts(t *testing.T) {
	h := newHarness(t, func(o *Options) {
		o.SpamGuard = ratelimit.NewWindow(2, time.Hour)
	})

	h.say(userID, "привет")
	h.say(userID, "привет")
	assert.Equal(t, []string{ru(msgError)}, h.say(userID, "привет"))
	assert.Equal(t, []string{ru(msgWelcome)}, h.say(agentID, "привет"))
}

func TestFailSendsGenericError(t *testing.T) {
	h := newHarness(t)
	h.engine.Fail(context.Background(), h.event(userID, "x"))
	assert.Equal(t, []string{ru(msgError)}, h.messenger.drain(userID))
}
