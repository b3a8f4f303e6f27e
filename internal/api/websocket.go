package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/psusim/psusim/internal/host"
	"github.com/psusim/psusim/internal/infrastructure/config"
	"github.com/psusim/psusim/internal/infrastructure/logging"
	"github.com/psusim/psusim/internal/supply"
)

// Message types on the change stream.
//
// Clients send watch, unwatch and snapshot requests. The server answers with
// ack, snapshot or error, and pushes supply.changed for every watched change.
const (
	WSTypeWatch    = "watch"
	WSTypeUnwatch  = "unwatch"
	WSTypeSnapshot = "snapshot"
	WSTypeAck      = "ack"
	WSTypeError    = "error"

	// ChannelSupplyChanged carries one host.Event per change notification.
	ChannelSupplyChanged = "supply.changed"

	// wsSendBufferSize is the per-client outbound message buffer size.
	wsSendBufferSize = 256

	// wsDrainTimeout bounds how long Close waits for queued frames to flush.
	wsDrainTimeout = 2 * time.Second
)

// WSRequest is a message from a client.
//
// Supplies lists supply names or kinds ("ac", "battery"). A kind keeps
// matching after the supply is renamed. An empty list means every supply.
type WSRequest struct {
	Type     string   `json:"type"`
	ID       string   `json:"id,omitempty"`
	Supplies []string `json:"supplies,omitempty"`
}

// WSMessage is a message to a client.
type WSMessage struct {
	Type     string       `json:"type"`
	ID       string       `json:"id,omitempty"`
	Time     time.Time    `json:"time"`
	Event    *host.Event  `json:"event,omitempty"`
	Supplies []supplyView `json:"supplies,omitempty"`
	Watching []string     `json:"watching,omitempty"`
	Message  string       `json:"message,omitempty"`
}

// watchSet is the filter a client applies to change events.
type watchSet struct {
	all   bool
	names map[string]struct{}
	kinds map[supply.Kind]struct{}
}

func newWatchSet() watchSet {
	return watchSet{names: map[string]struct{}{}, kinds: map[supply.Kind]struct{}{}}
}

func (w *watchSet) add(targets []string) {
	if len(targets) == 0 {
		w.all = true
		return
	}
	for _, t := range targets {
		if k, err := supply.ParseKind(t); err == nil {
			w.kinds[k] = struct{}{}
			continue
		}
		w.names[t] = struct{}{}
	}
}

func (w *watchSet) remove(targets []string) {
	if len(targets) == 0 {
		*w = newWatchSet()
		return
	}
	for _, t := range targets {
		if k, err := supply.ParseKind(t); err == nil {
			delete(w.kinds, k)
			continue
		}
		delete(w.names, t)
	}
}

func (w *watchSet) matches(ev host.Event) bool {
	if w.all {
		return true
	}
	if _, ok := w.kinds[supply.Kind(ev.Kind)]; ok {
		return true
	}
	_, ok := w.names[ev.Supply]
	return ok
}

// list reports the filter for acks, "*" standing for every supply.
func (w *watchSet) list() []string {
	if w.all {
		return []string{"*"}
	}
	out := make([]string, 0, len(w.kinds)+len(w.names))
	for _, k := range supply.Kinds() {
		if _, ok := w.kinds[k]; ok {
			out = append(out, string(k))
		}
	}
	for n := range w.names {
		out = append(out, n)
	}
	return out
}

// Hub fans change events out to the connected WebSocket clients.
type Hub struct {
	cfg     config.WebSocketConfig
	logger  *logging.Logger
	clients map[*WSClient]struct{}
	mu      sync.RWMutex

	// pumps tracks running writePumps so Close can let them flush.
	pumps sync.WaitGroup
}

// WSClient is one connected observer.
type WSClient struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	snapshot func() []supplyView

	mu    sync.RWMutex
	watch watchSet
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Origin checking is handled by CORS middleware
		return true
	},
}

// NewHub creates a new WebSocket hub.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[*WSClient]struct{}),
	}
}

// Run blocks until the context is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Close disconnects every client after its queued frames are written,
// waiting at most wsDrainTimeout.
func (h *Hub) Close() {
	h.closeAll()

	done := make(chan struct{})
	go func() {
		h.pumps.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(wsDrainTimeout):
		h.logger.Warn("websocket clients did not drain in time")
	}
}

// Sink returns a host.Sink that pushes every change event to the clients
// watching that supply.
func (h *Hub) Sink() host.Sink {
	return host.SinkFunc(func(_ context.Context, ev host.Event) error {
		h.Broadcast(ev)
		return nil
	})
}

// Register adds a client to the hub.
func (h *Hub) Register(client *WSClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "clients", h.ClientCount())
}

// Unregister removes a client from the hub.
// Only the goroutine that removes the client from the map closes its send
// channel.
func (h *Hub) Unregister(client *WSClient) {
	h.mu.Lock()
	_, existed := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	if existed {
		close(client.send)
	}
	h.logger.Debug("websocket client disconnected", "clients", h.ClientCount())
}

// Broadcast sends ev to every client watching its supply.
func (h *Hub) Broadcast(ev host.Event) {
	data, err := json.Marshal(WSMessage{Type: ChannelSupplyChanged, Time: ev.Time, Event: &ev})
	if err != nil {
		h.logger.Error("failed to marshal change event", "error", err)
		return
	}

	h.mu.RLock()
	clients := make([]*WSClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	sent := 0
	for _, client := range clients {
		if client.watches(ev) {
			client.trySend(data)
			sent++
		}
	}
	if sent > 0 {
		h.logger.Debug("change event pushed", "supply", ev.Supply, "recipients", sent)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// closeAll closes every send channel. Each writePump flushes what is
// queued, sends a close frame and then closes its connection.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// handleWebSocket upgrades the connection. Each supply query parameter
// is watched from the start, so ?supply=battery needs no watch request.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &WSClient{
		hub:      s.hub,
		conn:     conn,
		send:     make(chan []byte, wsSendBufferSize),
		snapshot: s.supplyViews,
		watch:    newWatchSet(),
	}
	if initial := r.URL.Query()["supply"]; len(initial) > 0 {
		client.watch.add(initial)
	}
	s.hub.Register(client)

	s.hub.pumps.Add(1)
	go client.writePump(s.wsCfg)
	go client.readPump(s.wsCfg)
}

// supplyViews returns every supply with its current values.
func (s *Server) supplyViews() []supplyView {
	devices := s.sim.Devices()
	views := make([]supplyView, 0, len(devices))
	for _, d := range devices {
		views = append(views, newSupplyView(d, true))
	}
	return views
}

// readPump reads requests until the connection fails.
func (c *WSClient) readPump(cfg config.WebSocketConfig) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	pingInterval := time.Duration(cfg.PingInterval) * time.Second
	pongWait := time.Duration(cfg.PongTimeout) * time.Second
	//nolint:errcheck // Best-effort deadline on connection setup
	c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "error", err)
			} else {
				c.hub.logger.Debug("websocket closed", "error", err)
			}
			return
		}
		//nolint:errcheck // Best-effort deadline reset
		c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
		c.handleRequest(message)
	}
}

// writePump writes queued frames and keeps the connection alive with pings.
func (c *WSClient) writePump(cfg config.WebSocketConfig) {
	pingInterval := time.Duration(cfg.PingInterval) * time.Second
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.hub.pumps.Done()
	}()

	pongWait := time.Duration(cfg.PongTimeout) * time.Second

	for {
		select {
		case message, ok := <-c.send:
			//nolint:errcheck // Best-effort deadline; write error caught below
			c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if !ok {
				//nolint:errcheck // Best-effort close message
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "supplies offline"))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleRequest processes one client request.
func (c *WSClient) handleRequest(data []byte) {
	var req WSRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.reply(WSMessage{Type: WSTypeError, Message: "invalid JSON message"})
		return
	}

	switch req.Type {
	case WSTypeWatch, WSTypeUnwatch:
		c.mu.Lock()
		if req.Type == WSTypeWatch {
			c.watch.add(req.Supplies)
		} else {
			c.watch.remove(req.Supplies)
		}
		watching := c.watch.list()
		c.mu.Unlock()
		c.reply(WSMessage{Type: WSTypeAck, ID: req.ID, Watching: watching})
	case WSTypeSnapshot:
		c.reply(WSMessage{Type: WSTypeSnapshot, ID: req.ID, Supplies: c.snapshot()})
	default:
		c.reply(WSMessage{Type: WSTypeError, ID: req.ID, Message: "unknown message type: " + req.Type})
	}
}

func (c *WSClient) watches(ev host.Event) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.watch.matches(ev)
}

func (c *WSClient) reply(msg WSMessage) {
	msg.Time = time.Now().UTC()
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.trySend(data)
}

// trySend queues data for the client. Closed channels and full buffers
// drop the message.
func (c *WSClient) trySend(data []byte) {
	defer func() {
		recover() //nolint:errcheck // Absorb send-on-closed-channel panic
	}()

	select {
	case c.send <- data:
	default:
	}
}
