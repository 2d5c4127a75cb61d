package api

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pvictorino/zapgate/internal/bus"
	"github.com/pvictorino/zapgate/internal/conversation"
	"github.com/pvictorino/zapgate/internal/identity"
	"github.com/pvictorino/zapgate/internal/query"
	"github.com/pvictorino/zapgate/internal/status"
	"github.com/pvictorino/zapgate/internal/store"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "zapgate.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fakeSender struct {
	sentTo   string
	sentText string
	fail     bool
}

func (f *fakeSender) SendText(_ context.Context, toJID, text string) (*store.Message, error) {
	if f.fail {
		return nil, errors.New("not connected")
	}
	f.sentTo, f.sentText = toJID, text
	return &store.Message{
		Key:              store.MessageKey{ID: "SENT1", FromMe: true, RemoteJID: toJID},
		MessageType:      "conversation",
		Content:          &store.MessageContent{Conversation: text},
		MessageTimestamp: time.Now().Unix(),
	}, nil
}

func TestSendTextPersistsAndPublishes(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	events, unsub := b.Subscribe(bus.KindSendMessage, 4)
	defer unsub()

	sender := &fakeSender{}
	svc := NewMessageService(db, query.NewEngine(db, nil, zap.NewNop()), sender, b, zap.NewNop())

	msg, err := svc.SendText(context.Background(), "main", "5511999999999", "hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if sender.sentTo != "5511999999999@s.whatsapp.net" {
		t.Errorf("sent to %q", sender.sentTo)
	}
	if msg.Content.Conversation != "hello" || !msg.Key.FromMe {
		t.Errorf("message = %+v", msg)
	}

	// Message and chat are persisted.
	chat, err := db.FindChatByRemoteJID("main", "5511999999999@s.whatsapp.net")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if chat.UnreadMessages != 0 {
		t.Errorf("own message bumped unread to %d", chat.UnreadMessages)
	}
	count, err := db.CountMessages(store.Cond{Field: "instance_id", Op: store.OpEq, Value: "main"})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	select {
	case evt := <-events:
		if evt.Kind != bus.KindSendMessage || evt.Instance != "main" {
			t.Errorf("event = %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatal("no send event published")
	}
}

func TestSendTextWithoutSession(t *testing.T) {
	db := testDB(t)
	svc := NewMessageService(db, query.NewEngine(db, nil, zap.NewNop()), nil, bus.New(), zap.NewNop())
	if _, err := svc.SendText(context.Background(), "main", "5511999999999", "hello"); !errors.Is(err, ErrNoSession) {
		t.Errorf("err = %v, want ErrNoSession", err)
	}
}

func TestFindMessagesSanitizesContent(t *testing.T) {
	db := testDB(t)
	err := db.UpsertMessage(&store.Message{
		InstanceID:       "main",
		Key:              store.MessageKey{ID: "M1", RemoteJID: "111@s.whatsapp.net"},
		MessageType:      "imageMessage",
		Content:          &store.MessageContent{Image: &store.MediaContent{URL: "https://mmg/x", Caption: "pic"}, Base64: "AAAA"},
		MessageTimestamp: 100,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc := NewMessageService(db, query.NewEngine(db, nil, zap.NewNop()), nil, bus.New(), zap.NewNop())
	page, err := svc.FindMessages(context.Background(), query.MessageFilter{InstanceID: "main"}, query.Page{})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(page.Records) != 1 {
		t.Fatalf("got %d records", len(page.Records))
	}
	content := page.Records[0].Content
	if content.Base64 != "" || content.Image.URL != "" {
		t.Errorf("media payload leaked: %+v", content)
	}
	if content.Image.Caption != "pic" {
		t.Errorf("caption = %q", content.Image.Caption)
	}
}

func TestFindConversationsSanitizesLastMessage(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertChat(&store.Chat{InstanceID: "main", RemoteJID: "111@s.whatsapp.net", Name: "Alice"}); err != nil {
		t.Fatalf("chat: %v", err)
	}
	err := db.UpsertMessage(&store.Message{
		InstanceID:       "main",
		Key:              store.MessageKey{ID: "M1", RemoteJID: "111@s.whatsapp.net"},
		Content:          &store.MessageContent{Video: &store.MediaContent{URL: "https://mmg/v", Caption: "clip"}},
		MessageTimestamp: 100,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	resolver := identity.NewResolver(nil, zap.NewNop(), 0)
	agg := conversation.NewAggregator(db, resolver, zap.NewNop())
	svc := NewChatService(db, agg, zap.NewNop())

	convs, err := svc.FindConversations(context.Background(), "main", "", 0, 0)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(convs) != 1 {
		t.Fatalf("got %d conversations", len(convs))
	}
	lm := convs[0].LastMessage
	if lm == nil || lm.Content.Video == nil {
		t.Fatalf("lastMessage = %+v", lm)
	}
	if lm.Content.Video.URL != "" || lm.Content.Video.Caption != "clip" {
		t.Errorf("video = %+v", lm.Content.Video)
	}
}

func TestInstanceServiceWebhookValidation(t *testing.T) {
	db := testDB(t)
	svc := NewInstanceService(db, status.NewMachine("main", nil), "main", zap.NewNop())

	err := svc.SetWebhook(&store.Webhook{InstanceID: "main", URL: "https://x", Events: []string{"messages.upsert", "bogus.kind"}})
	if err == nil {
		t.Fatal("unknown event accepted")
	}

	if err := svc.SetWebhook(&store.Webhook{InstanceID: "main", URL: "https://x", Events: []string{"messages.upsert"}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := svc.FindWebhook("main"); err != nil {
		t.Fatalf("find: %v", err)
	}
}

func TestConnectionStateForUnhostedInstance(t *testing.T) {
	db := testDB(t)
	m := status.NewMachine("main", nil)
	if err := m.Transition(status.Connecting); err != nil {
		t.Fatalf("transition: %v", err)
	}
	svc := NewInstanceService(db, m, "main", zap.NewNop())

	if st := svc.ConnectionState("main"); st.State != status.Connecting {
		t.Errorf("hosted state = %s", st.State)
	}
	if st := svc.ConnectionState("other"); st.State != status.Close {
		t.Errorf("unhosted state = %s", st.State)
	}
}
