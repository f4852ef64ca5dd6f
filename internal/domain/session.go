package domain

// Speaker is the author of a conversation turn.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Turn is one entry of an AI conversation.
type Turn struct {
	Speaker Speaker `json:"role"`
	Text    string  `json:"content"`
}

// Session is a point-in-time copy of a user's conversational state.
type Session struct {
	UserID   int64
	Mode     Mode
	History  []Turn
	Language Language
}
