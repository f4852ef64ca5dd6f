package domain

import (
	"strings"

	"github.com/orsinium-labs/enum"
)

// Language is a display language code.
type Language enum.Member[string]

var (
	LangRU    = Language{"ru"}
	LangEN    = Language{"en"}
	Languages = enum.New(LangRU, LangEN)
)

// ParseLanguage resolves a language code.
func ParseLanguage(s string) (Language, bool) {
	l := Languages.Parse(strings.ToLower(strings.TrimSpace(s)))
	if l == nil {
		return Language{}, false
	}
	return *l, true
}

func (l Language) String() string { return l.Value }

// Toggle returns the other supported language.
func (l Language) Toggle() Language {
	if l == LangRU {
		return LangEN
	}
	return LangRU
}

// MarshalText implements encoding.TextMarshaler.
func (l Language) MarshalText() ([]byte, error) {
	return []byte(l.Value), nil
}
