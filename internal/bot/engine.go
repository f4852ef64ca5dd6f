package bot

import (
	"context"
	"log/slog"
	"time"

	"github.com/candyxpe/supportbot/internal/completion"
	"github.com/candyxpe/supportbot/internal/domain"
	"github.com/candyxpe/supportbot/internal/ratelimit"
	"github.com/candyxpe/supportbot/internal/session"
	"github.com/candyxpe/supportbot/internal/store"
)

// Messenger delivers direct messages.
type Messenger interface {
	Send(ctx context.Context, userID int64, msg domain.Message) error
}

// StaffChannel delivers notifications to the staff group chat.
type StaffChannel interface {
	Post(ctx context.Context, post domain.StaffPost) error
}

// Deps are the collaborators the engine drives.
type Deps struct {
	Messenger Messenger
	Staff     StaffChannel
	Sessions  session.Store
	Repo      store.Repository
	Completer completion.Completer
}

// Options tune engine behaviour. Zero values select defaults.
type Options struct {
	DefaultLanguage domain.Language
	// Rules is embedded in the AI system prompt.
	Rules string
	// SpamGuard drops messages over its limit; nil disables it.
	SpamGuard       *ratelimit.Window
	ConversationLog completion.ConversationLogger
	Now             func() time.Time
	Logger          *slog.Logger
}

// Engine processes one inbound event at a time for a given user.
// Callers must not process two events of the same user concurrently.
type Engine struct {
	router    *Router
	messenger Messenger
	staff     StaffChannel
	sessions  session.Store
	repo      store.Repository
	completer completion.Completer
	convLog   completion.ConversationLogger
	spam      *ratelimit.Window

	defaultLang domain.Language
	rules       string
	now         func() time.Time
	startedAt   time.Time
	logger      *slog.Logger
}

// NewEngine wires an engine.
func NewEngine(deps Deps, opts Options) *Engine {
	if opts.DefaultLanguage == (domain.Language{}) {
		opts.DefaultLanguage = domain.LangRU
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ConversationLog == nil {
		opts.ConversationLog = completion.NoopConversationLogger{}
	}
	return &Engine{
		router:      NewRouter(deps.Repo, deps.Sessions),
		messenger:   deps.Messenger,
		staff:       deps.Staff,
		sessions:    deps.Sessions,
		repo:        deps.Repo,
		completer:   deps.Completer,
		convLog:     opts.ConversationLog,
		spam:        opts.SpamGuard,
		defaultLang: opts.DefaultLanguage,
		rules:       opts.Rules,
		now:         opts.Now,
		startedAt:   opts.Now(),
		logger:      opts.Logger,
	}
}

// Handle processes one event: ban gate, spam guard, routing, mode update and
// effect application. Errors are logged and answered with the generic notice.
func (e *Engine) Handle(ctx context.Context, ev domain.Event) {
	if ev.FromGroupChat || !ev.AddressedToBot {
		return
	}

	ex := execution{
		actor:   ev.SenderID,
		eventID: ev.ID,
		logger:  e.logger.With("user_id", ev.SenderID, "event_id", ev.ID),
	}
	now := e.now()

	if n := e.sessions.PurgeExpiredBans(now); n > 0 {
		ex.logger.Debug("Expired bans purged", "count", n)
	}
	if e.sessions.IsBanned(ev.SenderID, now) {
		ex.logger.Info("Dropping message from banned user")
		e.deliver(ctx, ex, ev.SenderID, text(e.language(ctx, ev.SenderID), msgBannedUser), KeyboardNone)
		return
	}

	if e.spam != nil && !e.spam.Allow(ev.SenderID) {
		ex.logger.Warn("Spam guard tripped, dropping message")
		e.deliver(ctx, ex, ev.SenderID, text(e.language(ctx, ev.SenderID), msgError), KeyboardNone)
		return
	}

	if err := e.repo.RememberUser(ctx, ev.SenderID, e.defaultLang); err != nil {
		ex.logger.Warn("Failed to remember user", "error", err)
	}

	sess := e.sessions.Snapshot(ev.SenderID)
	sess.Language = e.language(ctx, ev.SenderID)

	out, err := e.router.Route(ctx, sess, ev, now)
	if err != nil {
		ex.logger.Error("Routing failed", "error", err)
		e.notifyError(ctx, ex)
		return
	}

	if out.Mode != nil && *out.Mode != sess.Mode {
		ex.logger.Info("Mode changed", "from", sess.Mode.String(), "to", out.Mode.String())
		e.sessions.SetMode(ev.SenderID, *out.Mode)
	}

	if err := e.apply(ctx, ex, out.Effects); err != nil {
		ex.logger.Warn("Effects aborted", "error", err)
	}
}

// Fail answers an event whose processing crashed.
func (e *Engine) Fail(ctx context.Context, ev domain.Event) {
	ex := execution{actor: ev.SenderID, eventID: ev.ID, logger: e.logger.With("user_id", ev.SenderID, "event_id", ev.ID)}
	e.notifyError(ctx, ex)
}
