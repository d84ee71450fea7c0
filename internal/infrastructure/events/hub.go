package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"ezstream/internal/core/domain"
	"ezstream/internal/core/ports"
	apperrors "ezstream/pkg/errors"
	"ezstream/pkg/tracing"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const sendBufferSize = 16

var upgrader = websocket.Upgrader{
	CheckOrigin:     sameOrigin,
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// ClientMetrics receives the number of connected websocket clients.
type ClientMetrics interface {
	SetWebSocketClients(n int)
}

// SessionResolver maps a bearer token to the session it was issued for.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*domain.Session, error)
}

// Hub fans status events out to websocket subscribers. Every subscriber is
// bound to the session of the token it connected with.
type Hub struct {
	clients map[*client]struct{}
	mu      sync.RWMutex

	sessions SessionResolver

	pingInterval time.Duration
	pongTimeout  time.Duration
	writeTimeout time.Duration

	metrics ClientMetrics
	logger  *zap.SugaredLogger
}

type client struct {
	conn      *websocket.Conn
	send      chan domain.Event
	sessionID domain.SessionID
	done      chan struct{}
	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// wants reports whether an event of sessionID belongs to the client.
// Events without a session are never delivered.
func (c *client) wants(sessionID domain.SessionID) bool {
	return sessionID != "" && c.sessionID == sessionID
}

func NewHub(sessions SessionResolver, logger *zap.SugaredLogger) *Hub {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Hub{
		clients:      make(map[*client]struct{}),
		sessions:     sessions,
		pingInterval: 30 * time.Second,
		pongTimeout:  60 * time.Second,
		writeTimeout: 10 * time.Second,
		logger:       logger,
	}
}

var _ ports.EventPublisher = (*Hub)(nil)

// SetTimeouts sets ping interval, pong timeout and write timeout for new connections.
func (h *Hub) SetTimeouts(ping, pong, write time.Duration) {
	h.pingInterval = ping
	h.pongTimeout = pong
	h.writeTimeout = write
}

func (h *Hub) SetMetrics(m ClientMetrics) {
	h.metrics = m
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish queues event for every matching client. Clients whose buffer is
// full miss the event.
func (h *Hub) Publish(ctx context.Context, event domain.Event) {
	_, span := tracing.TraceEvent(ctx, string(event.Type))
	defer span.End()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if !c.wants(event.SessionID) {
			continue
		}
		select {
		case c.send <- event:
		default:
			h.logger.Warnw("dropping event for slow websocket client", "type", event.Type)
		}
	}
}

// HandleWebSocket authenticates the request, upgrades it and streams the
// session's events until the client goes away. Browsers pass the session
// token as the token query parameter; other clients may send a bearer header.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	session, err := h.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		conn:      conn,
		send:      make(chan domain.Event, sendBufferSize),
		sessionID: session.ID,
		done:      make(chan struct{}),
	}
	h.register(c)
	defer h.unregister(c)

	h.logger.Infow("event subscriber connected", "remote", r.RemoteAddr, "session_id", c.sessionID)

	go h.readLoop(c)
	h.writeLoop(c)

	h.logger.Infow("event subscriber disconnected", "remote", r.RemoteAddr)
}

func (h *Hub) authenticate(r *http.Request) (*domain.Session, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
			token = parts[1]
		}
	}
	if token == "" || h.sessions == nil {
		return nil, apperrors.NewUnauthorizedError("Please authenticate first")
	}

	session, err := h.sessions.Resolve(r.Context(), token)
	if err != nil {
		h.logger.Infow("websocket subscriber rejected", "remote", r.RemoteAddr, "error", err)
		return nil, err
	}
	if session.ID == "" {
		return nil, apperrors.NewUnauthorizedError("Please authenticate first")
	}
	return session, nil
}

func writeError(w http.ResponseWriter, err error) {
	appErr := apperrors.GetAppError(err)
	if appErr == nil {
		appErr = apperrors.NewInternalError("Internal server error")
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   string(appErr.Code),
		"message": appErr.Message,
	})
}

// readLoop only services control frames; subscribers do not send data.
func (h *Hub) readLoop(c *client) {
	defer c.close()

	c.conn.SetReadDeadline(time.Now().Add(h.pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(h.pongTimeout))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Infow("websocket read error", "error", err)
			}
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	pingTicker := time.NewTicker(h.pingInterval)
	defer pingTicker.Stop()
	defer c.conn.Close()

	for {
		select {
		case event := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := c.conn.WriteJSON(event); err != nil {
				h.logger.Infow("error writing event", "error", err)
				return
			}

		case <-pingTicker.C:
			c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.logger.Infow("error sending ping", "error", err)
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.reportClients(n)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	c.close()
	h.reportClients(n)
}

func (h *Hub) reportClients(n int) {
	if h.metrics != nil {
		h.metrics.SetWebSocketClients(n)
	}
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.close()
	}
}

func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}
