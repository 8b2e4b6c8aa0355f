// Package convo maintains the mirrored per-user conversation lists and
// the shared per-conversation message logs.
//
// Every mutation is a read-modify-write of a whole list document. The two
// mirrors of a conversation are written sequentially with no transaction
// spanning them: a failure between the writes leaves the mirrors
// divergent, and committed steps are not rolled back. Callers see a
// single error kind with no indication of which steps committed.
package convo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/pebble"

	"chatsync/pkg/codec"
	"chatsync/pkg/logger"
	"chatsync/pkg/models"
	"chatsync/pkg/store"
	"chatsync/pkg/users"
	"chatsync/pkg/utils"
)

func conversationsPath(userKey string) string { return userKey + "/conversations" }
func messagesPath(convID string) string       { return convID + "/messages" }

// latestOf builds the denormalized latest-message summary for a message.
func latestOf(m models.Message) models.LatestMessage {
	return models.LatestMessage{
		Date:   m.SentAt,
		Text:   codec.Encode(m).Content,
		IsRead: m.IsRead,
		Kind:   string(m.Kind),
	}
}

// readConversations loads a user's conversation list, tolerating an
// absent document (empty list) and dropping entries that are missing
// required fields rather than failing the whole read.
func readConversations(userKey string) ([]models.Conversation, error) {
	raw, err := store.Read(conversationsPath(userKey))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, models.ErrFetchFailed
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, models.ErrFetchFailed
	}
	out := make([]models.Conversation, 0, len(entries))
	for _, e := range entries {
		var c models.Conversation
		if err := json.Unmarshal(e, &c); err != nil || c.ID == "" || c.Participant == "" {
			logger.Warn("conversation_entry_dropped", "user", userKey)
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func writeConversations(userKey string, list []models.Conversation) error {
	b, err := json.Marshal(list)
	if err != nil {
		return models.ErrFetchFailed
	}
	if err := store.Write(conversationsPath(userKey), b); err != nil {
		return models.ErrFetchFailed
	}
	return nil
}

// CreateConversation starts a new conversation between self and other,
// seeded with firstMessage, and returns the conversation ID.
//
// Write order is recipient list, then sender list, then the message log.
// Each step short-circuits on failure; earlier steps are not compensated.
func CreateConversation(ctx context.Context, selfKey, otherKey, otherName string, firstMessage models.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	self, err := users.Get(selfKey)
	if err != nil {
		return "", models.ErrUserNotFound
	}

	if firstMessage.ID == "" {
		firstMessage.ID = utils.GenMessageID()
	}
	if firstMessage.SentAt == "" {
		firstMessage.SentAt = utils.FormatTime(time.Now())
	}
	firstMessage.Sender = selfKey
	convID := utils.ConversationID(firstMessage.ID)
	latest := latestOf(firstMessage)

	selfEntry := models.Conversation{
		ID:          convID,
		Participant: otherKey,
		Name:        otherName,
		Latest:      latest,
	}
	otherEntry := models.Conversation{
		ID:          convID,
		Participant: selfKey,
		Name:        self.FirstName + " " + self.LastName,
		Latest:      latest,
	}

	// recipient's mirror first
	otherList, err := readConversations(otherKey)
	if err != nil {
		return "", err
	}
	if err := writeConversations(otherKey, append(otherList, otherEntry)); err != nil {
		return "", err
	}

	// then the sender's mirror
	selfList, err := readConversations(selfKey)
	if err != nil {
		return "", err
	}
	if err := writeConversations(selfKey, append(selfList, selfEntry)); err != nil {
		return "", err
	}

	// finally the shared log
	log := []codec.Record{codec.Encode(firstMessage)}
	b, err := json.Marshal(log)
	if err != nil {
		return "", models.ErrFetchFailed
	}
	if err := store.Write(messagesPath(convID), b); err != nil {
		return "", models.ErrFetchFailed
	}
	logger.Info("conversation_created", "id", convID, "self", selfKey, "other", otherKey)
	return convID, nil
}

// SendMessage appends a message to an existing conversation and refreshes
// the latest-message cache in both participants' lists. The log must
// already exist. The self mirror is fully written before the other mirror
// is read, so a crash mid-operation can leave one side stale.
func SendMessage(ctx context.Context, convID, selfKey, otherKey, otherName string, m models.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := store.Read(messagesPath(convID))
	if err != nil {
		return models.ErrFetchFailed
	}
	var log []codec.Record
	if err := json.Unmarshal(raw, &log); err != nil {
		return models.ErrFetchFailed
	}

	if m.ID == "" {
		m.ID = utils.GenMessageID()
	}
	if m.SentAt == "" {
		m.SentAt = utils.FormatTime(time.Now())
	}
	m.Sender = selfKey
	log = append(log, codec.Encode(m))
	b, err := json.Marshal(log)
	if err != nil {
		return models.ErrFetchFailed
	}
	if err := store.Write(messagesPath(convID), b); err != nil {
		return models.ErrFetchFailed
	}

	latest := latestOf(m)
	if err := updateLatest(selfKey, convID, otherKey, otherName, latest); err != nil {
		return err
	}
	selfName := selfKey
	if self, err := users.Get(selfKey); err == nil {
		selfName = self.FirstName + " " + self.LastName
	}
	if err := updateLatest(otherKey, convID, selfKey, selfName, latest); err != nil {
		return err
	}
	logger.Info("message_sent", "conversation", convID, "sender", selfKey, "kind", string(m.Kind))
	return nil
}

// updateLatest locates the entry for convID in userKey's list and
// replaces its latest-message cache, appending a fresh entry when the
// user deleted their copy of the conversation.
func updateLatest(userKey, convID, participant, participantName string, latest models.LatestMessage) error {
	list, err := readConversations(userKey)
	if err != nil {
		return err
	}
	found := false
	for i := range list {
		if list[i].ID == convID {
			list[i].Latest = latest
			found = true
			break
		}
	}
	if !found {
		list = append(list, models.Conversation{
			ID:          convID,
			Participant: participant,
			Name:        participantName,
			Latest:      latest,
		})
	}
	return writeConversations(userKey, list)
}

// ListConversations returns the user's conversation list. Entries that
// fail to decode are dropped, not surfaced as errors.
func ListConversations(ctx context.Context, userKey string) ([]models.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return readConversations(userKey)
}

// ListMessages returns the full message log for a conversation in
// insertion order. Records that fail to decode are skipped.
func ListMessages(ctx context.Context, convID string) ([]models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := store.Read(messagesPath(convID))
	if err != nil {
		return nil, models.ErrFetchFailed
	}
	return decodeLog(convID, raw), nil
}

// StreamMessages subscribes to a conversation's log. Each event carries
// the full decoded log; the subscription ends when ctx is canceled.
func StreamMessages(ctx context.Context, convID string) <-chan []models.Message {
	out := make(chan []models.Message, 1)
	updates := store.Watch(ctx, messagesPath(convID))
	go func() {
		defer close(out)
		for raw := range updates {
			if raw == nil {
				continue
			}
			select {
			case out <- decodeLog(convID, raw):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func decodeLog(convID string, raw []byte) []models.Message {
	var records []codec.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		logger.Warn("message_log_unreadable", "conversation", convID, "error", err)
		return nil
	}
	out := make([]models.Message, 0, len(records))
	for _, r := range records {
		m, err := codec.Decode(r)
		if err != nil {
			logger.Warn("message_dropped", "conversation", convID, "error", err)
			continue
		}
		out = append(out, m)
	}
	return out
}

// DeleteConversation removes the first entry matching convID from the
// caller's own list only; the shared log and the other participant's
// entry persist. A missing entry is a silent no-op: the unmodified list
// is written back and the operation reports success.
func DeleteConversation(ctx context.Context, userKey, convID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	list, err := readConversations(userKey)
	if err != nil {
		return err
	}
	for i := range list {
		if list[i].ID == convID {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if err := writeConversations(userKey, list); err != nil {
		return err
	}
	logger.Info("conversation_deleted", "user", userKey, "id", convID)
	return nil
}

// ConversationExists scans the recipient's list for an entry whose
// participant is selfKey and returns its conversation ID.
func ConversationExists(ctx context.Context, selfKey, otherKey string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	list, err := readConversations(otherKey)
	if err != nil {
		return "", false, err
	}
	for _, c := range list {
		if c.Participant == selfKey {
			return c.ID, true, nil
		}
	}
	return "", false, nil
}
