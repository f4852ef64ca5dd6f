package completion

import (
	"context"
	"fmt"

	"github.com/candyxpe/supportbot/internal/domain"
)

// MockClient answers without contacting any gateway. Used with BOT_MODE=MOCK.
type MockClient struct{}

// NewMockClient creates a new mock completer.
func NewMockClient() *MockClient {
	return &MockClient{}
}

var _ Completer = (*MockClient)(nil)

// Complete echoes the latest user turn.
func (m *MockClient) Complete(ctx context.Context, _ string, history []domain.Turn) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Speaker == domain.SpeakerUser {
			return fmt.Sprintf("[mock] %s", history[i].Text), nil
		}
	}
	return "", ErrEmptyResponse
}
