package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/orsinium-labs/enum"
)

// Role is the privilege level of a staff member.
type Role enum.Member[string]

var (
	RoleAgent   = Role{"agent"}
	RoleAdmin   = Role{"admin"}
	RoleManager = Role{"manager"}
	Roles       = enum.New(RoleAgent, RoleAdmin, RoleManager)
)

// ParseRole resolves a role token. Matching is case-insensitive.
func ParseRole(s string) (Role, bool) {
	r := Roles.Parse(strings.ToLower(strings.TrimSpace(s)))
	if r == nil {
		return Role{}, false
	}
	return *r, true
}

func (r Role) String() string { return r.Value }

// Title returns the role name with an upper-case first letter.
func (r Role) Title() string {
	if r.Value == "" {
		return ""
	}
	return strings.ToUpper(r.Value[:1]) + r.Value[1:]
}

// CanManage reports whether the role grants admin privileges.
func (r Role) CanManage() bool {
	return r == RoleAdmin || r == RoleManager
}

// Agent is a persisted staff record.
type Agent struct {
	UserID int64 `json:"user_id"`
	Role   Role  `json:"role"`
}

// Ban is a temporary block of a user.
type Ban struct {
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the ban no longer applies at now.
func (b Ban) Expired(now time.Time) bool {
	return !now.Before(b.ExpiresAt)
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.Value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, ok := ParseRole(string(text))
	if !ok {
		return fmt.Errorf("unknown role %q", text)
	}
	*r = parsed
	return nil
}
