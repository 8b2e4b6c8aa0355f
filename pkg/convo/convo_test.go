package convo

import (
	"context"
	"testing"
	"time"

	"chatsync/pkg/logger"
	"chatsync/pkg/models"
	"chatsync/pkg/store"
	"chatsync/pkg/users"
)

const (
	alice = "alice-example-com"
	bob   = "bob-example-com"
)

func setup(t *testing.T) context.Context {
	t.Helper()
	logger.Init("error")
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := users.Insert(alice, models.User{FirstName: "Alice", LastName: "Anderson"}); err != nil {
		t.Fatalf("insert alice: %v", err)
	}
	if err := users.Insert(bob, models.User{FirstName: "Bob", LastName: "Brown"}); err != nil {
		t.Fatalf("insert bob: %v", err)
	}
	return context.Background()
}

func textMessage(text string) models.Message {
	return models.Message{Kind: models.KindText, Text: text}
}

func TestCreateConversationMirrors(t *testing.T) {
	ctx := setup(t)

	id, err := CreateConversation(ctx, alice, bob, "Bob Brown", textMessage("hi bob"))
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if id == "" {
		t.Fatal("empty conversation id")
	}

	aliceList, err := ListConversations(ctx, alice)
	if err != nil {
		t.Fatalf("ListConversations(alice): %v", err)
	}
	bobList, err := ListConversations(ctx, bob)
	if err != nil {
		t.Fatalf("ListConversations(bob): %v", err)
	}
	if len(aliceList) != 1 || len(bobList) != 1 {
		t.Fatalf("mirror lengths: alice=%d bob=%d", len(aliceList), len(bobList))
	}
	if aliceList[0].ID != id || bobList[0].ID != id {
		t.Fatalf("mirror ids diverge: %s vs %s (want %s)", aliceList[0].ID, bobList[0].ID, id)
	}
	if aliceList[0].Participant != bob {
		t.Fatalf("alice's entry points at %s", aliceList[0].Participant)
	}
	if bobList[0].Participant != alice {
		t.Fatalf("bob's entry points at %s", bobList[0].Participant)
	}
	if aliceList[0].Latest.Text != "hi bob" || bobList[0].Latest.Text != "hi bob" {
		t.Fatalf("latest text: %q / %q", aliceList[0].Latest.Text, bobList[0].Latest.Text)
	}
	if bobList[0].Name != "Alice Anderson" {
		t.Fatalf("recipient sees sender name %q", bobList[0].Name)
	}
}

func TestCreateConversationUnknownSender(t *testing.T) {
	ctx := setup(t)
	if _, err := CreateConversation(ctx, "ghost-example-com", bob, "Bob Brown", textMessage("boo")); err != models.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSendMessageAppends(t *testing.T) {
	ctx := setup(t)
	id, err := CreateConversation(ctx, alice, bob, "Bob Brown", textMessage("one"))
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	before, err := ListMessages(ctx, id)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if err := SendMessage(ctx, id, bob, alice, "Alice Anderson", textMessage("two")); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	after, err := ListMessages(ctx, id)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(after) != len(before)+1 {
		t.Fatalf("expected %d messages, got %d", len(before)+1, len(after))
	}
	last := after[len(after)-1]
	if last.Text != "two" || last.Sender != bob {
		t.Fatalf("last message %+v", last)
	}

	// both latest-message caches must reflect the new message
	for _, key := range []string{alice, bob} {
		list, err := ListConversations(ctx, key)
		if err != nil {
			t.Fatalf("ListConversations(%s): %v", key, err)
		}
		if list[0].Latest.Text != "two" {
			t.Fatalf("%s latest = %q", key, list[0].Latest.Text)
		}
	}
}

func TestSendMessageMissingLog(t *testing.T) {
	ctx := setup(t)
	if err := SendMessage(ctx, "conversation_nope", alice, bob, "Bob Brown", textMessage("x")); err != models.ErrFetchFailed {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
}

func TestSendMessageRestoresDeletedEntry(t *testing.T) {
	ctx := setup(t)
	id, err := CreateConversation(ctx, alice, bob, "Bob Brown", textMessage("one"))
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	// bob deletes his copy; alice keeps sending
	if err := DeleteConversation(ctx, bob, id); err != nil {
		t.Fatalf("DeleteConversation: %v", err)
	}
	if err := SendMessage(ctx, id, alice, bob, "Bob Brown", textMessage("still here")); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	bobList, err := ListConversations(ctx, bob)
	if err != nil {
		t.Fatalf("ListConversations(bob): %v", err)
	}
	if len(bobList) != 1 || bobList[0].ID != id {
		t.Fatalf("bob's entry not restored: %+v", bobList)
	}
	if bobList[0].Latest.Text != "still here" {
		t.Fatalf("restored latest = %q", bobList[0].Latest.Text)
	}
}

func TestDeleteConversationUnknownIDKeepsList(t *testing.T) {
	ctx := setup(t)
	id, err := CreateConversation(ctx, alice, bob, "Bob Brown", textMessage("keep me"))
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if err := DeleteConversation(ctx, alice, "conversation_does_not_exist"); err != nil {
		t.Fatalf("DeleteConversation reported failure: %v", err)
	}
	list, err := ListConversations(ctx, alice)
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(list) != 1 || list[0].ID != id {
		t.Fatalf("list corrupted: %+v", list)
	}
}

func TestDeleteConversationOneSided(t *testing.T) {
	ctx := setup(t)
	id, err := CreateConversation(ctx, alice, bob, "Bob Brown", textMessage("hello"))
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if err := DeleteConversation(ctx, alice, id); err != nil {
		t.Fatalf("DeleteConversation: %v", err)
	}
	aliceList, _ := ListConversations(ctx, alice)
	if len(aliceList) != 0 {
		t.Fatalf("alice still has %d entries", len(aliceList))
	}
	// bob's mirror and the shared log persist
	bobList, _ := ListConversations(ctx, bob)
	if len(bobList) != 1 {
		t.Fatalf("bob lost his entry")
	}
	msgs, err := ListMessages(ctx, id)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("shared log gone: %v (%d msgs)", err, len(msgs))
	}
}

func TestConversationExists(t *testing.T) {
	ctx := setup(t)
	id, err := CreateConversation(ctx, alice, bob, "Bob Brown", textMessage("hello"))
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	got, ok, err := ConversationExists(ctx, alice, bob)
	if err != nil {
		t.Fatalf("ConversationExists: %v", err)
	}
	if !ok || got != id {
		t.Fatalf("got %q ok=%v; want %q", got, ok, id)
	}
	if _, ok, _ := ConversationExists(ctx, "carol-example-com", bob); ok {
		t.Fatal("phantom conversation found")
	}
}

func TestStreamMessages(t *testing.T) {
	ctx := setup(t)
	id, err := CreateConversation(ctx, alice, bob, "Bob Brown", textMessage("first"))
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	sctx, cancel := context.WithCancel(ctx)
	defer cancel()
	feed := StreamMessages(sctx, id)

	select {
	case msgs := <-feed:
		if len(msgs) != 1 || msgs[0].Text != "first" {
			t.Fatalf("initial feed %+v", msgs)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no initial feed event")
	}

	if err := SendMessage(ctx, id, bob, alice, "Alice Anderson", textMessage("second")); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	select {
	case msgs := <-feed:
		if len(msgs) != 2 || msgs[1].Text != "second" {
			t.Fatalf("feed after send %+v", msgs)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no feed event after send")
	}
}

func TestListConversationsDropsBadEntries(t *testing.T) {
	ctx := setup(t)
	// one well-formed entry, one missing required fields
	raw := `[{"id":"conversation_x","participant":"bob-example-com","name":"Bob","latest_message":{"date":"d","text":"t","is_read":false,"kind":"text"}},{"name":"orphan"}]`
	if err := store.Write(alice+"/conversations", []byte(raw)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	list, err := ListConversations(ctx, alice)
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(list) != 1 || list[0].ID != "conversation_x" {
		t.Fatalf("got %+v", list)
	}
}
