package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/pvictorino/zapgate/internal/api"
	"github.com/pvictorino/zapgate/internal/bus"
	"github.com/pvictorino/zapgate/internal/conversation"
	"github.com/pvictorino/zapgate/internal/identity"
	"github.com/pvictorino/zapgate/internal/query"
	"github.com/pvictorino/zapgate/internal/status"
	"github.com/pvictorino/zapgate/internal/store"
)

func testServer(t *testing.T, apiKey string) (*httptest.Server, *store.DB) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "zapgate.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := zap.NewNop()
	b := bus.New()
	resolver := identity.NewResolver(nil, log, 0)
	engine := query.NewEngine(db, resolver, log)
	agg := conversation.NewAggregator(db, resolver, log)
	machine := status.NewMachine("main", b)

	srv := New(Config{Addr: "127.0.0.1:0", APIKey: apiKey},
		api.NewChatService(db, agg, log),
		api.NewMessageService(db, engine, nil, b, log),
		api.NewContactService(engine, log),
		api.NewInstanceService(db, machine, "main", log),
		log)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, db
}

func doJSON(t *testing.T, method, url, apiKey string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("apikey", apiKey)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestAPIKeyMiddleware(t *testing.T) {
	ts, _ := testServer(t, "secret")

	resp := doJSON(t, http.MethodGet, ts.URL+"/instance/connectionState/main", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no key: status = %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/instance/connectionState/main", "wrong", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong key: status = %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/instance/connectionState/main", "secret", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("right key: status = %d", resp.StatusCode)
	}

	// Health stays open.
	healthResp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	defer func() { _ = healthResp.Body.Close() }()
	if healthResp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", healthResp.StatusCode)
	}
}

func TestConnectionState(t *testing.T) {
	ts, _ := testServer(t, "")

	resp := doJSON(t, http.MethodGet, ts.URL+"/instance/connectionState/main", "", nil)
	var state api.ConnectionState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.Instance != "main" || state.State != status.Close {
		t.Errorf("state = %+v", state)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	ts, _ := testServer(t, "")

	resp := doJSON(t, http.MethodPost, ts.URL+"/settings/set/main", "", map[string]any{
		"rejectCall": true,
		"msgCall":    "busy",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("set status = %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/settings/find/main", "", nil)
	var settings store.Settings
	if err := json.NewDecoder(resp.Body).Decode(&settings); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !settings.RejectCall || settings.MsgCall != "busy" {
		t.Errorf("settings = %+v", settings)
	}
}

func TestProxyNotFound(t *testing.T) {
	ts, _ := testServer(t, "")
	resp := doJSON(t, http.MethodGet, ts.URL+"/proxy/find/main", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestWebhookRejectsUnknownEvent(t *testing.T) {
	ts, _ := testServer(t, "")
	resp := doJSON(t, http.MethodPost, ts.URL+"/webhook/set/main", "", map[string]any{
		"url":     "https://example.com/hook",
		"enabled": true,
		"events":  []string{"bogus.kind"},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestFindMessagesEnvelope(t *testing.T) {
	ts, db := testServer(t, "")
	err := db.UpsertMessage(&store.Message{
		InstanceID:       "main",
		Key:              store.MessageKey{ID: "M1", RemoteJID: "111@s.whatsapp.net"},
		MessageType:      "conversation",
		Content:          &store.MessageContent{Conversation: "hi"},
		MessageTimestamp: 100,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	resp := doJSON(t, http.MethodPost, ts.URL+"/chat/findMessages/main", "", map[string]any{
		"where": map[string]any{"key": map[string]any{"remoteJid": "111@s.whatsapp.net"}},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var envelope struct {
		Messages query.MessagePage `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Messages.Total != 1 || envelope.Messages.Page != 1 || len(envelope.Messages.Records) != 1 {
		t.Errorf("envelope = %+v", envelope.Messages)
	}
}

func TestSendTextWithoutSession(t *testing.T) {
	ts, _ := testServer(t, "")
	resp := doJSON(t, http.MethodPost, ts.URL+"/message/sendText/main", "", map[string]any{
		"number": "5511999999999",
		"text":   "hello",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestFindChatsEmpty(t *testing.T) {
	ts, _ := testServer(t, "")
	resp := doJSON(t, http.MethodPost, ts.URL+"/chat/findChats/main", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
