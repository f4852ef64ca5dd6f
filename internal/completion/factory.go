package completion

import "log/slog"

// ModeMock selects the mock completer.
const ModeMock = "MOCK"

// New creates a completer for mode. ModeMock returns a MockClient; anything
// else returns an OpenAIClient for cfg.
func New(mode string, cfg Config) Completer {
	if mode == ModeMock {
		slog.Info("BOT_MODE=MOCK detected, using mock completion client")
		return NewMockClient()
	}
	return NewOpenAIClient(cfg)
}
