package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/pagedit/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// event is the outgoing WebSocket message format.
type event struct {
	Type   string                 `json:"type"` // "mutation" or "status"
	Seq    uint64                 `json:"seq"`
	Kind   session.Kind           `json:"kind"`
	Target string                 `json:"target,omitempty"`
	Status *session.StatusMessage `json:"status,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Subscribe before the handshake completes so no mutation slips between.
	mutations, cancel := s.ed.Subscribe(64)
	defer cancel()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	// The client never sends anything; reading only notices the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("server: websocket read: %v", err)
				}
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case m, ok := <-mutations:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
					time.Now().Add(writeWait))
				return
			}
			ev := event{Type: "mutation", Seq: m.Seq, Kind: m.Kind, Target: m.Target}
			if m.Kind == session.KindStatus {
				st := s.ed.Status()
				ev.Type, ev.Target, ev.Status = "status", "", &st
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				log.Printf("server: websocket write: %v", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
