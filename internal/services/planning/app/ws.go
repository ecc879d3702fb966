package server

import (
	"encoding/json"
	"io"
	"log"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/toninhor/scrum-poker-planning/internal/services/planning/domain"
)

type wsFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type subscribedPayload struct {
	SessionID  string `json:"sessionId"`
	Username   string `json:"username"`
	ServerTime string `json:"serverTime"`
}

// wsPeer serializes frame writes to one WebSocket connection.
type wsPeer struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

func newWSPeer(encoder *json.Encoder) *wsPeer {
	return &wsPeer{encoder: encoder}
}

func (p *wsPeer) writeFrame(frame wsFrame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.encoder.Encode(frame)
}

type sessionRoom struct {
	mu          sync.Mutex
	sessionID   string
	subscribers map[*wsPeer]struct{}
}

func newSessionRoom(sessionID string) *sessionRoom {
	return &sessionRoom{
		sessionID:   sessionID,
		subscribers: make(map[*wsPeer]struct{}),
	}
}

func (r *sessionRoom) join(peer *wsPeer) {
	r.mu.Lock()
	r.subscribers[peer] = struct{}{}
	r.mu.Unlock()
}

func (r *sessionRoom) leave(peer *wsPeer) {
	r.mu.Lock()
	delete(r.subscribers, peer)
	r.mu.Unlock()
}

func (r *sessionRoom) snapshot() []*wsPeer {
	r.mu.Lock()
	peers := make([]*wsPeer, 0, len(r.subscribers))
	for peer := range r.subscribers {
		peers = append(peers, peer)
	}
	r.mu.Unlock()
	return peers
}

// Hub fans notifications out to the WebSocket subscribers of each session.
//
// It implements Notifier: delivery is best effort, a slow or broken peer is
// logged and skipped, and callers never observe a delivery failure.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]*sessionRoom
}

// NewHub builds an empty notification hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*sessionRoom)}
}

func (h *Hub) room(sessionID string) *sessionRoom {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[sessionID]
	if ok {
		return room
	}

	room = newSessionRoom(sessionID)
	h.rooms[sessionID] = room
	return room
}

// SendNotification implements Notifier.
func (h *Hub) SendNotification(sessionID string, kind NotificationType, payload any) {
	if h == nil {
		return
	}

	frame := wsFrame{Type: string(kind)}
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			log.Printf("planning: drop %s notification for session %s: marshal payload: %v", kind, sessionID, err)
			return
		}
		frame.Payload = encoded
	}

	for _, peer := range h.room(sessionID).snapshot() {
		if err := peer.writeFrame(frame); err != nil {
			log.Printf("planning: drop %s notification for session %s: write frame: %v", kind, sessionID, err)
		}
	}
}

// handleWSConn subscribes one authenticated connection to its session room
// and holds it open until the client goes away. Inbound frames are drained
// and ignored; the subscription channel is push-only.
func handleWSConn(conn *websocket.Conn, hub *Hub, principal domain.Principal) {
	defer func() {
		_ = conn.Close()
	}()

	peer := newWSPeer(json.NewEncoder(conn))
	room := hub.room(principal.SessionID)
	room.join(peer)
	defer room.leave(peer)

	_ = peer.writeFrame(wsFrame{
		Type: "SUBSCRIBED",
		Payload: mustJSON(subscribedPayload{
			SessionID:  principal.SessionID,
			Username:   principal.Username,
			ServerTime: time.Now().UTC().Format(time.RFC3339),
		}),
	})

	decoder := json.NewDecoder(conn)
	for {
		var discard json.RawMessage
		if err := decoder.Decode(&discard); err != nil {
			if err != io.EOF {
				log.Printf("planning: websocket read for session %s: %v", principal.SessionID, err)
			}
			return
		}
	}
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("failed to marshal websocket frame payload: %v", err)
		return nil
	}
	return b
}
