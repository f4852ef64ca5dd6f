package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSQLiteErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		busy       bool
		locked     bool
		constraint bool
	}{
		{name: "nil", err: nil},
		{name: "plain", err: errors.New("disk full")},
		{name: "busy text", err: errors.New("exec: SQLITE_BUSY"), busy: true},
		{name: "locked text", err: fmt.Errorf("wrap: %w", errors.New("database is locked (5)")), locked: true},
		{name: "constraint text", err: errors.New("UNIQUE constraint failed: agents.user_id"), constraint: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.busy, IsSQLiteBusyError(tt.err))
			assert.Equal(t, tt.locked, IsSQLiteLockedError(tt.err))
			assert.Equal(t, tt.busy || tt.locked, IsSQLiteConflictError(tt.err))
			assert.Equal(t, tt.constraint, IsSQLiteConstraintError(tt.err))
		})
	}
}
