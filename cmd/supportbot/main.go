// CandyxPE support bot for VK communities.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/candyxpe/supportbot/internal/api"
	"github.com/candyxpe/supportbot/internal/bot"
	"github.com/candyxpe/supportbot/internal/completion"
	"github.com/candyxpe/supportbot/internal/config"
	"github.com/candyxpe/supportbot/internal/domain"
	"github.com/candyxpe/supportbot/internal/feed"
	"github.com/candyxpe/supportbot/internal/ratelimit"
	"github.com/candyxpe/supportbot/internal/session"
	"github.com/candyxpe/supportbot/internal/store"
	"github.com/candyxpe/supportbot/internal/vk"
)

type args struct {
	EnvFile     string `arg:"--env-file,env:SUPPORTBOT_ENV_FILE" default:".env" help:"dotenv file to load before reading the environment"`
	CheckConfig bool   `arg:"--check-config" help:"validate configuration and exit"`
}

func (args) Version() string {
	return fmt.Sprintf("supportbot %s (%s)", bot.Version, bot.CodeName)
}

func (args) Description() string {
	return "CandyxPE support bot: AI chat, human handoff, reports and staff tools over the VK bots long poll."
}

func main() {
	var a args
	arg.MustParse(&a)

	if err := godotenv.Load(a.EnvFile); err != nil {
		slog.Info("No .env file found, using environment variables", "path", a.EnvFile)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if a.CheckConfig {
		fmt.Println("configuration OK")
		return
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		slog.Error("Support bot stopped with error", "error", err)
		stop()
		os.Exit(1)
	}
	slog.Info("Support bot stopped")
}

func newLogger(cfg *config.Config) *slog.Logger {
	var out io.Writer = os.Stdout
	if cfg.Log.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			Compress:   true,
		})
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: cfg.LogLevel()}))
}

//nolint:funlen // Startup wiring is intentionally sequential to keep dependency setup explicit.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	slog.Info("Starting support bot", "version", bot.Version, "group_id", cfg.VK.GroupID, "store", cfg.Store.Backend)

	repo, err := store.Open(cfg.Store.Backend, cfg.Store.DataDir, cfg.Store.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()
	if err := repo.Ping(ctx); err != nil {
		return fmt.Errorf("store health check: %w", err)
	}
	rules := store.LoadRules(ctx, repo, cfg.Store.RulesMaxChars)

	gate := ratelimit.NewGate(cfg.VK.MinInterval, logger)
	client := vk.NewClient(vk.Config{
		Token:      cfg.VK.Token,
		GroupID:    cfg.VK.GroupID,
		APIVersion: cfg.VK.APIVersion,
		APIURL:     cfg.VK.APIURL,
	}, gate, logger)
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			slog.Debug("Failed to close VK client", "error", closeErr)
		}
	}()
	if err := client.Validate(ctx); err != nil {
		return fmt.Errorf("authenticate with VK: %w", err)
	}
	slog.Info("VK token validated")

	hub := feed.NewHub()
	staff := feed.NewMirror(vk.NewStaffChannel(client, cfg.VK.StaffChatID), hub)

	completer := completion.New(cfg.LLM.Mode, completion.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	})
	convLog, err := completion.NewConversationLogger(completion.ConversationLogConfig{
		Enabled:   cfg.ConversationLog.Enabled,
		Dir:       cfg.ConversationLog.Dir,
		QueueSize: cfg.ConversationLog.QueueSize,
	}, logger)
	if err != nil {
		return fmt.Errorf("init conversation logger: %w", err)
	}
	defer func() {
		if closeErr := convLog.Close(); closeErr != nil {
			slog.Warn("Failed to flush conversation log", "error", closeErr)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	sessions := session.NewMemoryStore()
	var spam *ratelimit.Window
	if cfg.Bot.SpamLimit > 0 {
		spam = ratelimit.NewWindow(cfg.Bot.SpamLimit, cfg.Bot.SpamWindow)
		spam.StartEviction(gctx)
	}
	lang, _ := domain.ParseLanguage(cfg.Bot.DefaultLanguage)

	engine := bot.NewEngine(bot.Deps{
		Messenger: client,
		Staff:     staff,
		Sessions:  sessions,
		Repo:      repo,
		Completer: completer,
	}, bot.Options{
		DefaultLanguage: lang,
		Rules:           rules,
		SpamGuard:       spam,
		ConversationLog: convLog,
		Logger:          logger,
	})
	dispatcher := bot.NewDispatcher(gctx, engine, bot.DispatcherOptions{
		MaxConcurrent: cfg.Bot.MaxConcurrentUsers,
		Logger:        logger,
	})
	poll := vk.NewLongPoll(client, cfg.VK.LongPollWait)

	g.Go(func() error {
		slog.Info("Long poll started", "wait", cfg.VK.LongPollWait)
		return bot.Run(gctx, poll, dispatcher, cfg.VK.PollRetryDelay, logger)
	})

	g.Go(func() error {
		<-session.StartBanSweeper(gctx, sessions, cfg.Bot.BanSweepInterval, nil)
		return nil
	})

	if cfg.Ops.Addr != "" {
		router := api.NewRouter(api.NewHandler(engine, repo, sessions), api.RouterConfig{
			Token:         cfg.Ops.Token,
			AllowedOrigin: cfg.Ops.AllowedOrigin,
			Feed:          feed.NewHandler(hub, cfg.Ops.AllowedOrigin),
		})
		// The staff feed is a long-lived WebSocket, so there is no write timeout.
		srv := &http.Server{
			Addr:              cfg.Ops.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		if cfg.Ops.Token == "" {
			slog.Warn("STAFF_FEED_TOKEN is empty, ops API is unauthenticated", "addr", cfg.Ops.Addr)
		}

		g.Go(func() error {
			slog.Info("Ops server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("ops server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("Ops server forced to shutdown", "error", err)
			}
			return nil
		})
	}

	return g.Wait()
}
