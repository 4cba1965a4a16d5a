package history

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	streamBuffer = 32
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
)

// handleStream 通过 WebSocket 先推送已有记录，再推送新增记录
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[history] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	entries, cancel := h.log.Subscribe(streamBuffer)
	defer cancel()

	// Subscribe before taking the snapshot so nothing falls between them;
	// entries seen in both are sent once.
	snapshot := h.log.ListAll(r.Context())
	sent := make(map[string]struct{}, len(snapshot))
	for _, entry := range snapshot {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(entry); err != nil {
			log.Printf("[history] stream write failed: %v", err)
			return
		}
		sent[entry.ID] = struct{}{}
	}

	// Reader loop only services control frames and detects disconnects.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	log.Printf("[history] stream opened remote=%s", r.RemoteAddr)
	for {
		select {
		case <-closed:
			log.Printf("[history] stream closed remote=%s", r.RemoteAddr)
			return
		case <-r.Context().Done():
			return
		case entry, ok := <-entries:
			if !ok {
				return
			}
			if _, dup := sent[entry.ID]; dup {
				delete(sent, entry.ID)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(entry); err != nil {
				log.Printf("[history] stream write failed: %v", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
