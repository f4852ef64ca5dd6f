package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/candyxpe/supportbot/internal/domain"
	"github.com/candyxpe/supportbot/internal/session"
	"github.com/candyxpe/supportbot/internal/store"
)

type sentMessage struct {
	To       int64
	Text     string
	Keyboard *domain.Keyboard
}

type fakeMessenger struct {
	mu   sync.Mutex
	sent []sentMessage
	fail map[int64]error
}

func (m *fakeMessenger) Send(_ context.Context, userID int64, msg domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail[userID]; err != nil {
		return err
	}
	m.sent = append(m.sent, sentMessage{To: userID, Text: msg.Text, Keyboard: msg.Keyboard})
	return nil
}

// drain returns and forgets the texts sent to userID.
func (m *fakeMessenger) drain(userID int64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	rest := m.sent[:0]
	for _, s := range m.sent {
		if s.To == userID {
			out = append(out, s.Text)
		} else {
			rest = append(rest, s)
		}
	}
	m.sent = rest
	return out
}

func (m *fakeMessenger) all() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.sent...)
}

type fakeStaff struct {
	mu    sync.Mutex
	posts []domain.StaffPost
	err   error
}

func (s *fakeStaff) Post(_ context.Context, post domain.StaffPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.posts = append(s.posts, post)
	return nil
}

func (s *fakeStaff) labels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, p := range s.posts {
		out = append(out, p.Label)
	}
	return out
}

type fakeCompleter struct {
	mu      sync.Mutex
	err     error
	prompts []string
	calls   [][]domain.Turn
}

func (c *fakeCompleter) Complete(_ context.Context, prompt string, history []domain.Turn) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	c.calls = append(c.calls, history)
	if c.err != nil {
		return "", c.err
	}
	return fmt.Sprintf("answer %d", len(c.calls)), nil
}

type codeError struct{ code int }

func (e codeError) Error() string  { return fmt.Sprintf("platform error %d", e.code) }
func (e codeError) ErrorCode() int { return e.code }

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var errBoom = errors.New("boom")

const (
	adminID   int64 = 1
	agentID   int64 = 2
	managerID int64 = 3
	userID    int64 = 100
	targetID  int64 = 123456
)

type harness struct {
	engine    *Engine
	messenger *fakeMessenger
	staff     *fakeStaff
	completer *fakeCompleter
	sessions  *session.MemoryStore
	repo      *store.FileStore
	clock     *fakeClock
	seq       int
}

func newHarness(t *testing.T, opts ...func(*Options)) *harness {
	t.Helper()

	repo, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	ctx := context.Background()
	require.NoError(t, repo.AddAgent(ctx, domain.Agent{UserID: adminID, Role: domain.RoleAdmin}))
	require.NoError(t, repo.AddAgent(ctx, domain.Agent{UserID: agentID, Role: domain.RoleAgent}))
	require.NoError(t, repo.AddAgent(ctx, domain.Agent{UserID: managerID, Role: domain.RoleManager}))

	h := &harness{
		messenger: &fakeMessenger{},
		staff:     &fakeStaff{},
		completer: &fakeCompleter{},
		sessions:  session.NewMemoryStore(),
		repo:      repo,
		clock:     &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	o := Options{
		Rules:  "Не ругаться.",
		Now:    h.clock.Now,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, fn := range opts {
		fn(&o)
	}
	h.engine = NewEngine(Deps{
		Messenger: h.messenger,
		Staff:     h.staff,
		Sessions:  h.sessions,
		Repo:      repo,
		Completer: h.completer,
	}, o)
	return h
}

func (h *harness) event(from int64, body string) domain.Event {
	h.seq++
	return domain.Event{
		ID:             fmt.Sprintf("ev-%d", h.seq),
		SenderID:       from,
		PeerID:         from,
		Text:           body,
		AddressedToBot: true,
		ReceivedAt:     h.clock.Now(),
	}
}

// say handles a text message and returns what the sender received.
func (h *harness) say(from int64, body string) []string {
	h.engine.Handle(context.Background(), h.event(from, body))
	return h.messenger.drain(from)
}

func (h *harness) press(from int64, cmd Command) []string {
	ev := h.event(from, "")
	ev.Payload = fmt.Sprintf(`{"command":%q}`, cmd.String())
	h.engine.Handle(context.Background(), ev)
	return h.messenger.drain(from)
}

func (h *harness) mode(id int64) domain.Mode {
	return h.sessions.Mode(id)
}

func ru(key msgKey, args ...any) string {
	return text(domain.LangRU, key, args...)
}
