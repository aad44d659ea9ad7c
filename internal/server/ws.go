package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/golazo/once-server-go/internal/config"
	"github.com/golazo/once-server-go/internal/game"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// hub fans session snapshots out to WebSocket listeners, one group of
// connections per session.
type hub struct {
	mu     sync.Mutex
	conns  map[string]map[*websocket.Conn]bool
	cfg    config.WebSocketConfig
	logger *zap.Logger
}

func newHub(cfg config.WebSocketConfig, logger *zap.Logger) *hub {
	return &hub{
		conns:  make(map[string]map[*websocket.Conn]bool),
		cfg:    cfg,
		logger: logger,
	}
}

func (h *hub) register(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conns[sessionID] == nil {
		h.conns[sessionID] = make(map[*websocket.Conn]bool)
	}
	h.conns[sessionID][conn] = true
}

func (h *hub) unregister(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if group, ok := h.conns[sessionID]; ok {
		delete(group, conn)
		if len(group) == 0 {
			delete(h.conns, sessionID)
		}
	}
}

// broadcast pushes a snapshot to every listener of a session. Dead
// connections are dropped on write failure.
func (h *hub) broadcast(sessionID string, snapshot game.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns[sessionID] {
		_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
		if err := conn.WriteJSON(snapshot); err != nil {
			h.logger.Debug("dropping websocket listener",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
			conn.Close()
			delete(h.conns[sessionID], conn)
		}
	}
}

// closeSession closes every listener of a removed session.
func (h *hub) closeSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns[sessionID] {
		conn.Close()
	}
	delete(h.conns, sessionID)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	session, ok := s.session(w, ps)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn.SetReadLimit(s.cfg.Server.WebSocket.MaxMessageSize)
	s.hub.register(session.ID, conn)

	// Immediately send the current state so late joiners catch up.
	_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.Server.WebSocket.WriteTimeout))
	if err := conn.WriteJSON(session.Snapshot()); err != nil {
		s.hub.unregister(session.ID, conn)
		conn.Close()
		return
	}

	// Reader loop exists only to detect close; clients never send data.
	go func() {
		defer func() {
			s.hub.unregister(session.ID, conn)
			conn.Close()
		}()
		for {
			if _, _, readErr := conn.ReadMessage(); readErr != nil {
				return
			}
		}
	}()
}
