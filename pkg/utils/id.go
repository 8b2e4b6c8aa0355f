package utils

import "github.com/google/uuid"

// GenMessageID returns a random unique message identifier. Random IDs
// replace the legacy participant+timestamp scheme, which collided when two
// messages landed within the same formatted-time resolution.
func GenMessageID() string {
	return uuid.NewString()
}

// ConversationID derives a conversation's immutable identifier from its
// first message.
func ConversationID(firstMessageID string) string {
	return "conversation_" + firstMessageID
}
