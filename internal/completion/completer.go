// Package completion talks to the chat completion gateway that answers
// users in AI chat mode.
package completion

import (
	"context"
	"errors"
	"time"

	"github.com/candyxpe/supportbot/internal/domain"
)

// ErrEmptyResponse is returned when the gateway answers without any text.
var ErrEmptyResponse = errors.New("empty completion response")

// Completer produces an assistant reply for a conversation.
type Completer interface {
	Complete(ctx context.Context, systemPrompt string, history []domain.Turn) (string, error)
}

// Config configures the completion gateway.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// Defaults for Config fields left zero.
const (
	DefaultModel       = "gpt-4"
	DefaultMaxTokens   = 300
	DefaultTemperature = 0.1
	DefaultTimeout     = 5 * time.Second
)

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Temperature < 0 {
		c.Temperature = DefaultTemperature
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}
