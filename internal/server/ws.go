package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin access is governed by the CORS layer on the API routes;
	// the status stream carries no user data worth gating separately.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// TrainingStatusWS streams training status updates. The current snapshot
// is sent on connect, then again whenever it changes, polled once a second.
func (h *Handlers) TrainingStatusWS(w http.ResponseWriter, r *http.Request) {
	if h.trainer == nil {
		respondError(w, http.StatusServiceUnavailable, "Training is not available with this classifier provider")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	// Read pump: the client sends nothing meaningful, but reading is how
	// we notice the peer closing the connection.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	last := h.trainer.Status()
	if err := conn.WriteJSON(last); err != nil {
		return
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			status := h.trainer.Status()
			if status == last {
				continue
			}
			last = status
			if err := conn.WriteJSON(status); err != nil {
				return
			}
		}
	}
}
