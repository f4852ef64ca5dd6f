package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeIsExclusive(t *testing.T) {
	t.Parallel()

	modes := []Mode{Idle(), AIChat(), Handoff(), Pending(ActionBan)}
	for _, m := range modes {
		active := 0
		if m.IsAIChat() {
			active++
		}
		if m.IsHandoff() {
			active++
		}
		if _, ok := m.PendingAction(); ok {
			active++
		}
		assert.LessOrEqual(t, active, 1, "mode %s", m)
		assert.Equal(t, active == 0, m.IsIdle(), "mode %s", m)
	}
}

func TestPendingNoneIsIdle(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Idle(), Pending(ActionNone))
	kind, ok := Pending(ActionUnban).PendingAction()
	require.True(t, ok)
	assert.Equal(t, ActionUnban, kind)
	assert.Equal(t, "pending:unban", Pending(ActionUnban).String())
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	r, ok := ParseRole("Admin")
	require.True(t, ok)
	assert.Equal(t, RoleAdmin, r)
	assert.True(t, r.CanManage())
	assert.False(t, RoleAgent.CanManage())
	assert.Equal(t, "Manager", RoleManager.Title())

	_, ok = ParseRole("owner")
	assert.False(t, ok)
}

func TestRoleJSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(Agent{UserID: 42, Role: RoleManager})
	require.NoError(t, err)
	assert.JSONEq(t, `{"user_id":42,"role":"manager"}`, string(data))

	var got Agent
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, RoleManager, got.Role)

	assert.Error(t, json.Unmarshal([]byte(`{"role":"root"}`), &got))
}

func TestBanExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	b := Ban{UserID: 1, ExpiresAt: now}
	assert.True(t, b.Expired(now))
	assert.False(t, b.Expired(now.Add(-time.Second)))
}

func TestAttachmentRefs(t *testing.T) {
	t.Parallel()

	ev := Event{Attachments: []Attachment{
		{Type: "photo", OwnerID: -5, ID: 10},
		{Type: "sticker", OwnerID: 1, ID: 2},
		{Type: "doc", OwnerID: 7, ID: 8, AccessKey: "abc"},
	}}
	assert.Equal(t, []string{"photo-5_10", "doc7_8_abc"}, ev.AttachmentRefs())
}

func TestLanguageToggle(t *testing.T) {
	t.Parallel()

	assert.Equal(t, LangEN, LangRU.Toggle())
	assert.Equal(t, LangRU, LangEN.Toggle())
	l, ok := ParseLanguage("EN")
	require.True(t, ok)
	assert.Equal(t, LangEN, l)
}
