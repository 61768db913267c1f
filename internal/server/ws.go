package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/arbiter"
)

const (
	writeWait  = 2 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// StateHandler pushes every published interaction state to WebSocket
// clients as JSON. A new client first receives the current state.
type StateHandler struct {
	pub *arbiter.Publisher
}

// NewStateHandler creates a StateHandler over pub.
func NewStateHandler(pub *arbiter.Publisher) *StateHandler {
	return &StateHandler{pub: pub}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *StateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade", "err", err)
		return
	}
	defer conn.Close()

	states, cancel := h.pub.Subscribe()
	defer cancel()

	// The read loop only exists to notice the client closing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := send(conn, h.pub.Current()); err != nil {
		return
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case s, ok := <-states:
			if !ok {
				return
			}
			if err := send(conn, s); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func send(conn *websocket.Conn, s arbiter.State) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(s)
}
