package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/catalogsync/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ProgressHub reparte el progreso de cada guardado a los sockets suscriptos a
// su sesión.
type ProgressHub struct {
	sessions   map[string]map[*wsClient]struct{}
	register   chan *wsClient
	unregister chan *wsClient
	done       chan struct{}
	mu         sync.RWMutex
}

type wsClient struct {
	hub     *ProgressHub
	conn    *websocket.Conn
	send    chan []byte
	session string
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{
		sessions:   map[string]map[*wsClient]struct{}{},
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		done:       make(chan struct{}),
	}
}

// Run procesa altas y bajas hasta que ctx termina.
func (h *ProgressHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for _, clients := range h.sessions {
				for c := range clients {
					close(c.send)
				}
			}
			h.sessions = map[string]map[*wsClient]struct{}{}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			if h.sessions[c.session] == nil {
				h.sessions[c.session] = map[*wsClient]struct{}{}
			}
			h.sessions[c.session][c] = struct{}{}
			h.mu.Unlock()
			log.Debug().Str("session", c.session).Msg("ws conectado")

		case c := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.sessions[c.session]; ok {
				if _, ok := clients[c]; ok {
					delete(clients, c)
					close(c.send)
				}
				if len(clients) == 0 {
					delete(h.sessions, c.session)
				}
			}
			h.mu.Unlock()
			log.Debug().Str("session", c.session).Msg("ws desconectado")
		}
	}
}

// Publish envía el estado a la sesión; devuelve cuántos sockets lo recibieron.
// Un socket con el buffer lleno pierde el mensaje.
func (h *ProgressHub) Publish(session string, st domain.ProgressState) int {
	msg, err := json.Marshal(progressMessage{Type: "progress", Session: session, State: st})
	if err != nil {
		log.Error().Err(err).Msg("ws marshal")
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for c := range h.sessions[session] {
		select {
		case c.send <- msg:
			sent++
		default:
		}
	}
	return sent
}

// Subscribers cuenta los sockets de una sesión.
func (h *ProgressHub) Subscribers(session string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[session])
}

type progressMessage struct {
	Type    string               `json:"type"`
	Session string               `json:"session"`
	State   domain.ProgressState `json:"state"`
}

// Serve actualiza la conexión y la suscribe a session.
func (h *ProgressHub) Serve(w http.ResponseWriter, r *http.Request, session string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade")
		return
	}
	c := &wsClient{hub: h, conn: conn, send: make(chan []byte, 64), session: session}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump sólo descarta lo que manda el cliente y detecta el cierre.
func (c *wsClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("session", c.session).Msg("ws read")
			}
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
