package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/irlogic/irlogic-core/internal/infrastructure/config"
	"github.com/irlogic/irlogic-core/internal/infrastructure/logging"
	"github.com/irlogic/irlogic-core/internal/infrastructure/mqtt"
)

// ============================================================================
// Message Types
// ============================================================================

// WebSocket message types exchanged with clients.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeEvent       = "event"
	WSTypeResponse    = "response"
	WSTypeError       = "error"
)

// wsSendBufferSize is the per-client outbound queue depth. Clients that
// cannot drain this many messages are considered stuck and dropped.
const wsSendBufferSize = 256

// WSMessage is the envelope for all WebSocket frames.
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	EventType string          `json:"event_type,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// WSSubscribePayload carries the channel list for subscribe/unsubscribe.
type WSSubscribePayload struct {
	Channels []string `json:"channels"`
}

// ============================================================================
// Hub
// ============================================================================

// Hub tracks connected WebSocket clients and fans out events to them.
//
// Events are delivered on named channels; clients only receive events for
// channels they have subscribed to. Channels in use:
//
//	remote.created, remote.deleted  - remote lifecycle
//	keymap.created, keymap.updated, keymap.deleted - keymap lifecycle
//	key.event   - a decoded signal matched a keymap
//	ir.signal   - every decoded signal, matched or not
//	tree.reset  - all remotes destroyed
type Hub struct {
	cfg     config.WebSocketConfig
	logger  *logging.Logger
	clients map[*WSClient]struct{}
	mu      sync.RWMutex
}

// NewHub creates a WebSocket hub. Call Run to start it.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[*WSClient]struct{}),
	}
}

// Run blocks until ctx is cancelled, then closes all client connections.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Register adds a client to the hub.
func (h *Hub) Register(c *WSClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("WebSocket client connected", "user_id", c.userID, "clients", count)
}

// Unregister removes a client and closes its send channel. Only the
// goroutine that removes the client from the map closes the channel, so
// double-unregister is safe.
func (h *Hub) Unregister(c *WSClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	count := len(h.clients)
	h.mu.Unlock()

	if ok {
		close(c.send)
		h.logger.Debug("WebSocket client disconnected", "user_id", c.userID, "clients", count)
	}
}

// Broadcast sends an event to every client subscribed to the channel.
func (h *Hub) Broadcast(channel string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to marshal broadcast payload", "channel", channel, "error", err)
		return
	}

	msg := WSMessage{
		Type:      WSTypeEvent,
		EventType: channel,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   raw,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal broadcast message", "channel", channel, "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*WSClient, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if c.isSubscribed(channel) {
			c.trySend(data)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := make([]*WSClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
		delete(h.clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		close(c.send)
		_ = c.conn.Close()
	}
}

// ============================================================================
// Client
// ============================================================================

// WSClient is a single WebSocket connection with its subscription set.
type WSClient struct {
	hub           *Hub
	conn          *websocket.Conn
	send          chan []byte
	subscriptions map[string]struct{}
	mu            sync.Mutex
	userID        string
	role          string
}

func (c *WSClient) isSubscribed(channel string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.subscriptions[channel]
	return ok
}

// trySend queues a message without blocking. Slow clients lose messages
// rather than stalling the hub; sends to a closed channel are absorbed
// by the recover.
func (c *WSClient) trySend(data []byte) {
	defer func() { _ = recover() }()
	select {
	case c.send <- data:
	default:
	}
}

// readPump consumes inbound frames until the connection drops.
func (c *WSClient) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(int64(c.hub.cfg.MaxMessageSize))
	pongWait := time.Duration(c.hub.cfg.PongTimeout) * time.Second
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("WebSocket read error", "user_id", c.userID, "error", err)
			}
			return
		}
		// Any inbound traffic counts as liveness.
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.handleMessage(data)
	}
}

// writePump drains the send queue and emits protocol pings.
func (c *WSClient) writePump() {
	pingInterval := time.Duration(c.hub.cfg.PingInterval) * time.Second
	pongWait := time.Duration(c.hub.cfg.PongTimeout) * time.Second
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WSClient) handleMessage(data []byte) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("", "invalid message format")
		return
	}

	switch msg.Type {
	case WSTypeSubscribe:
		c.handleSubscribe(msg)
	case WSTypeUnsubscribe:
		c.handleUnsubscribe(msg)
	case WSTypePing:
		c.sendResponse(msg.ID, WSTypePong, nil)
	default:
		c.sendError(msg.ID, "unknown message type: "+msg.Type)
	}
}

func (c *WSClient) handleSubscribe(msg WSMessage) {
	var payload WSSubscribePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil || len(payload.Channels) == 0 {
		c.sendError(msg.ID, "subscribe requires a channels list")
		return
	}

	c.mu.Lock()
	for _, ch := range payload.Channels {
		c.subscriptions[ch] = struct{}{}
	}
	c.mu.Unlock()

	c.sendResponse(msg.ID, WSTypeResponse, map[string]any{"subscribed": payload.Channels})
}

func (c *WSClient) handleUnsubscribe(msg WSMessage) {
	var payload WSSubscribePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil || len(payload.Channels) == 0 {
		c.sendError(msg.ID, "unsubscribe requires a channels list")
		return
	}

	c.mu.Lock()
	for _, ch := range payload.Channels {
		delete(c.subscriptions, ch)
	}
	c.mu.Unlock()

	c.sendResponse(msg.ID, WSTypeResponse, map[string]any{"unsubscribed": payload.Channels})
}

func (c *WSClient) sendResponse(id, msgType string, payload any) {
	msg := WSMessage{
		Type:      msgType,
		ID:        id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return
		}
		msg.Payload = raw
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.trySend(data)
}

func (c *WSClient) sendError(id, message string) {
	c.sendResponse(id, WSTypeError, map[string]string{"message": message})
}

// ============================================================================
// HTTP Handler
// ============================================================================

// handleWebSocket upgrades a connection after validating its single-use
// ticket (issued by POST /auth/ws-ticket, passed as ?ticket=).
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ticket := r.URL.Query().Get("ticket")
	if ticket == "" {
		writeUnauthorized(w, "missing ticket")
		return
	}

	entry, ok := s.validateTicket(ticket)
	if !ok {
		writeUnauthorized(w, "invalid or expired ticket")
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkWSOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		s.logger.Debug("WebSocket upgrade failed", "error", err)
		return
	}

	client := &WSClient{
		hub:           s.hub,
		conn:          conn,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: make(map[string]struct{}),
		userID:        entry.userID,
		role:          string(entry.role),
	}

	s.hub.Register(client)
	go client.writePump()
	go client.readPump()
}

// checkWSOrigin applies the CORS origin list to WebSocket upgrades.
func (s *Server) checkWSOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.CORS.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// ============================================================================
// Event Fan-Out
// ============================================================================

// broadcastTreeEvent pushes a tree change to WebSocket subscribers and the
// MQTT core event topic.
func (s *Server) broadcastTreeEvent(channel string, payload any) {
	if s.hub != nil {
		s.hub.Broadcast(channel, payload)
	}

	if s.mqtt == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	topic := mqtt.Topics{}.CoreEvent(channel)
	if err := s.mqtt.Publish(topic, raw, 0, false); err != nil {
		s.logger.Debug("MQTT event publish failed", "topic", topic, "error", err)
	}
}

// publishRemoteState publishes a retained snapshot of a remote so late
// subscribers see current configuration. An empty retained message clears
// the snapshot after deletion.
func (s *Server) publishRemoteState(name string) {
	if s.mqtt == nil {
		return
	}

	topic := mqtt.Topics{}.CoreRemoteState(name)

	summary, err := s.tree.GetRemote(name)
	if err != nil {
		if pubErr := s.mqtt.PublishRetained(topic, []byte{}); pubErr != nil {
			s.logger.Debug("MQTT state clear failed", "topic", topic, "error", pubErr)
		}
		return
	}

	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := s.mqtt.PublishRetained(topic, raw); err != nil {
		s.logger.Debug("MQTT state publish failed", "topic", topic, "error", err)
	}
}
