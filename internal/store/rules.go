package store

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// DefaultRulesMaxChars bounds the rules text embedded in prompts.
const DefaultRulesMaxChars = 1000

// LoadRules reads the rules document and truncates it to maxChars characters,
// appending "..." when cut. Read failures fall back to DefaultRules.
func LoadRules(ctx context.Context, repo Repository, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultRulesMaxChars
	}

	rules, err := repo.Rules(ctx)
	if err != nil {
		slog.Error("Failed to load rules, using default", "error", err)
		return DefaultRules
	}
	rules = strings.TrimSpace(rules)
	if rules == "" {
		return DefaultRules
	}

	if utf8.RuneCountInString(rules) > maxChars {
		slog.Warn("Rules truncated", "limit", maxChars, "length", utf8.RuneCountInString(rules))
		return string([]rune(rules)[:maxChars]) + "..."
	}
	return rules
}
