package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/websocket"

	"github.com/toninhor/scrum-poker-planning/internal/services/planning/domain"
)

type wsTestFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func newWSTestHandler(t *testing.T, stores *fakeStores, hub *Hub) http.Handler {
	t.Helper()
	handler, err := NewHandler(stores.asStores(), hub, newTestTokenManager(t))
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler
}

func dialWS(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, err := websocket.Dial(wsURL, "", srv.URL)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}

func readWSFrame(t *testing.T, conn *websocket.Conn) wsTestFrame {
	t.Helper()
	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))
	var got wsTestFrame
	if err := json.NewDecoder(conn).Decode(&got); err != nil {
		t.Fatalf("decode server frame: %v", err)
	}
	return got
}

func signTestToken(t *testing.T, p domain.Principal) string {
	t.Helper()
	token, err := newTestTokenManager(t).Sign(p)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestWebSocketRequiresToken(t *testing.T) {
	srv := httptest.NewServer(newWSTestHandler(t, newFakeStores(), NewHub()))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/ws")
	if err != nil {
		t.Fatalf("get /ws: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestWebSocketSubscribeAck(t *testing.T) {
	srv := httptest.NewServer(newWSTestHandler(t, newFakeStores(), NewHub()))
	t.Cleanup(srv.Close)

	conn := dialWS(t, srv, signTestToken(t, voterPrincipal("session-1")))

	got := readWSFrame(t, conn)
	if got.Type != "SUBSCRIBED" {
		t.Fatalf("frame type = %q, want %q", got.Type, "SUBSCRIBED")
	}

	var payload subscribedPayload
	if err := json.Unmarshal(got.Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.SessionID != "session-1" || payload.Username != "Mia" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestHubDeliversToSessionSubscribers(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(newWSTestHandler(t, newFakeStores(), hub))
	t.Cleanup(srv.Close)

	conn := dialWS(t, srv, signTestToken(t, voterPrincipal("session-1")))
	if got := readWSFrame(t, conn); got.Type != "SUBSCRIBED" {
		t.Fatalf("frame type = %q, want %q", got.Type, "SUBSCRIBED")
	}

	hub.SendNotification("session-1", NotificationStoryEnded, storyRef{StoryID: "story-1"})

	got := readWSFrame(t, conn)
	if got.Type != string(NotificationStoryEnded) {
		t.Fatalf("frame type = %q, want %q", got.Type, NotificationStoryEnded)
	}
	var ref storyRef
	if err := json.Unmarshal(got.Payload, &ref); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if ref.StoryID != "story-1" {
		t.Fatalf("unexpected payload: %+v", ref)
	}
}

func TestHubScopesDeliveryBySession(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(newWSTestHandler(t, newFakeStores(), hub))
	t.Cleanup(srv.Close)

	other := dialWS(t, srv, signTestToken(t, voterPrincipal("session-2")))
	if got := readWSFrame(t, other); got.Type != "SUBSCRIBED" {
		t.Fatalf("frame type = %q, want %q", got.Type, "SUBSCRIBED")
	}

	hub.SendNotification("session-1", NotificationStoryEnded, storyRef{StoryID: "story-1"})
	hub.SendNotification("session-2", NotificationStoryRemoved, storyRef{StoryID: "story-2"})

	// The session-2 subscriber sees only its own session's event.
	got := readWSFrame(t, other)
	if got.Type != string(NotificationStoryRemoved) {
		t.Fatalf("frame type = %q, want %q", got.Type, NotificationStoryRemoved)
	}
}

func TestSendNotificationWithoutSubscribers(t *testing.T) {
	hub := NewHub()

	// Must not panic or block when nobody is listening.
	hub.SendNotification("session-1", NotificationStoryAdded, storyRef{StoryID: "story-1"})
}
