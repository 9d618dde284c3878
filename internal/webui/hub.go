package webui

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// hub fans server events out to every connected websocket client. All
// writes go through run so each connection is only ever written from
// one goroutine.
type hub struct {
	log        *slog.Logger
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan []byte
	done       chan struct{}
	stopOnce   sync.Once
}

func newHub(log *slog.Logger) *hub {
	h := &hub{
		log:        log,
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan []byte, 32),
		done:       make(chan struct{}),
	}
	go h.run()

	return h
}

func (h *hub) run() {
	clients := make(map[*websocket.Conn]bool)
	for {
		select {
		case conn := <-h.register:
			clients[conn] = true
			h.log.Debug("websocket client connected", "clients", len(clients))

		case conn := <-h.unregister:
			if clients[conn] {
				delete(clients, conn)
				conn.Close()
				h.log.Debug("websocket client disconnected", "clients", len(clients))
			}

		case msg := <-h.broadcast:
			for conn := range clients {
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					delete(clients, conn)
					conn.Close()
				}
			}

		case <-h.done:
			for conn := range clients {
				conn.Close()
			}
			return
		}
	}
}

// send marshals v and broadcasts it to all clients. Events are dropped
// when the hub is saturated or stopped rather than stalling the caller.
func (h *hub) send(v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		h.log.Error("marshal event", "error", err)
		return
	}

	select {
	case h.broadcast <- msg:
	case <-h.done:
	default:
		h.log.Warn("broadcast queue full, dropping event")
	}
}

func (h *hub) add(conn *websocket.Conn) {
	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
	}
}

func (h *hub) remove(conn *websocket.Conn) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

func (h *hub) stop() {
	h.stopOnce.Do(func() { close(h.done) })
}
