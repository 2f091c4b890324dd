package websocket

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/voxrelay/server/internal/config"
	"github.com/voxrelay/server/internal/language"
	"github.com/voxrelay/server/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024 * 1024 // 1MB for base64 audio chunks
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Implement proper origin checking
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// ErrPeerNotFound is returned by SendToPeer when no live connection is
// registered under the target identity.
var ErrPeerNotFound = errors.New("peer not found")

// Hub maintains the registry of active connections, grouped by peer
// identity. Several connections may share one identity; delivery to an
// identity fans out to every member of its group.
type Hub struct {
	// Registered connection groups keyed by peer identity.
	peers map[string]map[*Client]struct{}

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Mutex for thread-safe access to the peers map
	mu sync.RWMutex

	transcriber *usecase.TranscriptionService
	cfg         *config.Config
	languages   *language.Policy

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(cfg *config.Config, transcriber *usecase.TranscriptionService, logger *zap.Logger) *Hub {
	return &Hub{
		peers:       make(map[string]map[*Client]struct{}),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		transcriber: transcriber,
		cfg:         cfg,
		languages:   language.NewPolicy(cfg),
		logger:      logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			group, ok := h.peers[client.peerID]
			if !ok {
				group = make(map[*Client]struct{})
				h.peers[client.peerID] = group
			}
			group[client] = struct{}{}
			h.mu.Unlock()
			h.logger.Info("Peer registered", zap.String("peerID", client.peerID))

		case client := <-h.unregister:
			h.mu.Lock()
			if group, ok := h.peers[client.peerID]; ok {
				if _, member := group[client]; member {
					delete(group, client)
					close(client.send)
					close(client.work)
					if len(group) == 0 {
						delete(h.peers, client.peerID)
					}
				}
			}
			h.mu.Unlock()
			h.logger.Info("Peer unregistered", zap.String("peerID", client.peerID))
		}
	}
}

// SendToPeer delivers payload to every live connection registered under
// peerID. Delivery is best-effort and at-most-once; a missing peer returns
// ErrPeerNotFound so callers can decide whether that matters.
func (h *Hub) SendToPeer(peerID string, payload []byte) error {
	h.mu.RLock()
	group, ok := h.peers[peerID]
	clients := make([]*Client, 0, len(group))
	for client := range group {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	if !ok || len(clients) == 0 {
		return ErrPeerNotFound
	}
	for _, client := range clients {
		client.enqueueSend(payload)
	}
	return nil
}

// ActivePeers returns the identities currently registered.
func (h *Hub) ActivePeers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	peers := make([]string, 0, len(h.peers))
	for peerID := range h.peers {
		peers = append(peers, peerID)
	}
	return peers
}

// Client is a middleman between the websocket connection and the hub. It owns
// the connection's session state: the rate-limit history, the serial audio
// work queue and the pending-work counter. All of it is discarded on
// disconnect.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan []byte

	// Peer identity for this connection, bound once at establishment.
	peerID string

	// Logger
	logger *zap.Logger

	// Serial audio work queue; drained by a single worker goroutine so
	// chunks are processed one at a time, in submission order.
	work chan AudioChunkEvent

	// mu guards pending and rateTimestamps.
	mu sync.Mutex

	// pending counts audio chunks enqueued but not yet completed; bounded
	// by the backpressure ceiling.
	pending int

	// rateTimestamps holds recent audio-submission instants, pruned to the
	// rate-limit window on each check.
	rateTimestamps []time.Time
}

func newClient(hub *Hub, conn *websocket.Conn, peerID string, logger *zap.Logger) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		peerID: peerID,
		logger: logger,
		work:   make(chan AudioChunkEvent, hub.cfg.MaxPending),
	}
}

// ServeWS registers a websocket connection under an already validated peer
// identity and starts its pumps.
func ServeWS(hub *Hub, c echo.Context, peerID string, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := newClient(hub, conn, peerID, logger)
	client.hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()
	go client.audioWorker()

	return nil
}

// readPump pumps messages from the websocket connection into the dispatcher.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		if messageType != websocket.TextMessage {
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
			continue
		}
		c.dispatch(message)
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch routes one inbound event to its handler. Every handler runs behind
// a recover guard; a panic is reported to the sender as a generic server
// error instead of tearing down the connection.
func (c *Client) dispatch(message []byte) {
	var base BaseEvent
	if err := json.Unmarshal(message, &base); err != nil {
		c.logger.Warn("Failed to parse event", zap.String("peerID", c.peerID), zap.Error(err))
		c.enqueueSend(NewSignalError(CodeInternalServerError, "malformed event"))
		return
	}

	switch base.Type {
	case EventCallOffer:
		c.guarded(EventSignalError, func() { c.handleCallOffer(message) })
	case EventCallAnswer:
		c.guarded(EventSignalError, func() { c.handleCallAnswer(message) })
	case EventCallEnd:
		c.guarded(EventSignalError, func() { c.handleCallEnd(message) })
	case EventICECandidate:
		c.guarded(EventSignalError, func() { c.handleICECandidate(message) })
	case EventAudioChunk:
		c.guarded(EventSTTError, func() { c.submitAudioChunk(message) })
	default:
		c.logger.Warn("Unknown event type",
			zap.String("peerID", c.peerID),
			zap.String("type", string(base.Type)))
	}
}

// guarded runs fn and converts a panic into a generic error event on the
// given channel, keeping the connection alive.
func (c *Client) guarded(errorChannel EventType, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Recovered from handler panic",
				zap.String("peerID", c.peerID),
				zap.Any("panic", r))
			if errorChannel == EventSTTError {
				c.enqueueSend(NewSTTError(CodeInternalServerError, "internal server error", ""))
			} else {
				c.enqueueSend(NewSignalError(CodeInternalServerError, "internal server error"))
			}
		}
	}()
	fn()
}

// enqueueSend queues payload for delivery on this connection without
// blocking. A full send buffer drops the message; delivery is best-effort.
func (c *Client) enqueueSend(payload []byte) {
	defer func() {
		// Sending on a closed channel after disconnect is not an error
		// worth crashing for.
		if r := recover(); r != nil {
			c.logger.Debug("Dropped message for closed connection", zap.String("peerID", c.peerID))
		}
	}()

	select {
	case c.send <- payload:
	default:
		c.logger.Warn("Send buffer full, dropping message", zap.String("peerID", c.peerID))
	}
}
