package types

import (
	"time"

	"github.com/google/uuid"
)

// Conversation groups the chat exchange a user has about one trip.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	TripID    uuid.UUID `json:"trip_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// Message is a single chat entry. Content is plain text for user messages and
// HTML for assistant responses.
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	Sender         string    `json:"sender"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}
