// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	VK              VKConfig
	LLM             LLMConfig
	Store           StoreConfig
	Bot             BotConfig
	Ops             OpsConfig
	Log             LogConfig
	ConversationLog ConversationLogConfig
}

// VKConfig configures the platform API client and long poll.
type VKConfig struct {
	Token          string
	GroupID        int64
	APIVersion     string
	APIURL         string
	StaffChatID    int64
	MinInterval    time.Duration
	LongPollWait   time.Duration
	PollRetryDelay time.Duration
}

// LLMConfig configures the completion gateway.
type LLMConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float32
	// Mode "MOCK" selects the offline completer.
	Mode string
}

// StoreConfig selects and locates durable storage.
type StoreConfig struct {
	Backend       string
	DataDir       string
	DBPath        string
	RulesMaxChars int
}

// BotConfig tunes message handling.
type BotConfig struct {
	DefaultLanguage    string
	SpamLimit          int
	SpamWindow         time.Duration
	MaxConcurrentUsers int
	BanSweepInterval   time.Duration
}

// OpsConfig configures the operations HTTP server. An empty Addr disables it.
type OpsConfig struct {
	Addr          string
	Token         string
	AllowedOrigin string
}

// LogConfig controls process logging.
type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// ConversationLogConfig controls JSON conversation logging.
type ConversationLogConfig struct {
	Enabled   bool
	Dir       string
	QueueSize int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		VK: VKConfig{
			Token:          getEnv("VK_TOKEN", ""),
			GroupID:        getEnvInt64("VK_GROUP_ID", 0),
			APIVersion:     getEnv("VK_API_VERSION", "5.199"),
			APIURL:         getEnv("VK_API_URL", "https://api.vk.com/method"),
			StaffChatID:    getEnvInt64("STAFF_CHAT_ID", 1),
			MinInterval:    getEnvDuration("API_MIN_INTERVAL", 340*time.Millisecond),
			LongPollWait:   getEnvDuration("LONGPOLL_WAIT", 25*time.Second),
			PollRetryDelay: getEnvDuration("POLL_RETRY_DELAY", 5*time.Second),
		},
		LLM: LLMConfig{
			BaseURL:     getEnv("LLM_BASE_URL", ""),
			APIKey:      getEnv("LLM_API_KEY", ""),
			Model:       getEnv("LLM_MODEL", "gpt-4"),
			Timeout:     getEnvDuration("LLM_TIMEOUT", 5*time.Second),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 300),
			Temperature: getEnvFloat32("LLM_TEMPERATURE", 0.1),
			Mode:        strings.ToUpper(getEnv("BOT_MODE", "")),
		},
		Store: StoreConfig{
			Backend:       strings.ToLower(getEnv("STORE_BACKEND", "json")),
			DataDir:       getEnv("DATA_DIR", "./data"),
			DBPath:        getEnv("DB_PATH", "./data/supportbot.db"),
			RulesMaxChars: getEnvInt("RULES_MAX_CHARS", 1000),
		},
		Bot: BotConfig{
			DefaultLanguage:    strings.ToLower(getEnv("DEFAULT_LANGUAGE", "ru")),
			SpamLimit:          getEnvInt("SPAM_LIMIT", 10),
			SpamWindow:         getEnvDuration("SPAM_WINDOW", time.Minute),
			MaxConcurrentUsers: getEnvInt("MAX_CONCURRENT_USERS", 8),
			BanSweepInterval:   getEnvDuration("BAN_SWEEP_INTERVAL", time.Minute),
		},
		Ops: OpsConfig{
			Addr:          getEnv("OPS_ADDR", ":8080"),
			Token:         getEnv("STAFF_FEED_TOKEN", ""),
			AllowedOrigin: getEnv("OPS_ALLOWED_ORIGIN", ""),
		},
		Log: LogConfig{
			Level:      strings.ToLower(getEnv("LOG_LEVEL", "info")),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 50),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		},
		ConversationLog: ConversationLogConfig{
			Enabled:   getEnvBool("CONVERSATION_LOG_ENABLED", false),
			Dir:       getEnv("CONVERSATION_LOG_DIR", "./data/logs/conversations"),
			QueueSize: getEnvInt("CONVERSATION_LOG_QUEUE_SIZE", 256),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set and every
// value is in range. All problems are reported at once.
func (c *Config) Validate() error {
	var errs []error
	if c.VK.Token == "" {
		errs = append(errs, errors.New("VK_TOKEN cannot be empty"))
	}
	if c.VK.GroupID <= 0 {
		errs = append(errs, errors.New("VK_GROUP_ID must be a positive number"))
	}
	if c.VK.StaffChatID <= 0 {
		errs = append(errs, errors.New("STAFF_CHAT_ID must be > 0"))
	}
	if c.VK.MinInterval <= 0 {
		errs = append(errs, errors.New("API_MIN_INTERVAL must be > 0"))
	}
	if c.VK.LongPollWait <= 0 || c.VK.LongPollWait > 90*time.Second {
		errs = append(errs, errors.New("LONGPOLL_WAIT must be between 1s and 90s"))
	}
	if c.LLM.Mode != "MOCK" && c.LLM.BaseURL == "" {
		errs = append(errs, errors.New("LLM_BASE_URL cannot be empty unless BOT_MODE=MOCK"))
	}
	if c.LLM.MaxTokens <= 0 {
		errs = append(errs, errors.New("LLM_MAX_TOKENS must be > 0"))
	}
	if c.Store.Backend != "json" && c.Store.Backend != "sqlite" {
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be json or sqlite, got %q", c.Store.Backend))
	}
	if c.Store.DataDir == "" {
		errs = append(errs, errors.New("DATA_DIR cannot be empty"))
	}
	if c.Store.Backend == "sqlite" && c.Store.DBPath == "" {
		errs = append(errs, errors.New("DB_PATH cannot be empty"))
	}
	if c.Store.RulesMaxChars <= 0 {
		errs = append(errs, errors.New("RULES_MAX_CHARS must be > 0"))
	}
	if c.Bot.DefaultLanguage != "ru" && c.Bot.DefaultLanguage != "en" {
		errs = append(errs, fmt.Errorf("DEFAULT_LANGUAGE must be ru or en, got %q", c.Bot.DefaultLanguage))
	}
	if c.Bot.SpamLimit < 0 {
		errs = append(errs, errors.New("SPAM_LIMIT must be >= 0"))
	}
	if c.Bot.SpamLimit > 0 && c.Bot.SpamWindow <= 0 {
		errs = append(errs, errors.New("SPAM_WINDOW must be > 0"))
	}
	if c.Bot.MaxConcurrentUsers <= 0 {
		errs = append(errs, errors.New("MAX_CONCURRENT_USERS must be > 0"))
	}
	if c.Bot.BanSweepInterval <= 0 {
		errs = append(errs, errors.New("BAN_SWEEP_INTERVAL must be > 0"))
	}
	if _, ok := parseLevel(c.Log.Level); !ok {
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", c.Log.Level))
	}
	if c.ConversationLog.Enabled && c.ConversationLog.Dir == "" {
		errs = append(errs, errors.New("CONVERSATION_LOG_DIR cannot be empty"))
	}
	if c.ConversationLog.QueueSize <= 0 {
		errs = append(errs, errors.New("CONVERSATION_LOG_QUEUE_SIZE must be > 0"))
	}
	return errors.Join(errs...)
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

func parseLevel(s string) (slog.Level, bool) {
	switch s {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

// getEnvInt64 returns 0 for malformed values so required ids fail validation
// instead of silently taking a default.
func getEnvInt64(key string, fallback int64) int64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func getEnvFloat32(key string, fallback float32) float32 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 32)
	if err != nil {
		return fallback
	}
	return float32(f)
}

// getEnvDuration accepts Go duration strings ("340ms", "5s") or a bare
// number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return fallback
}
