package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"mlportfolio/feature"
	"mlportfolio/monitoring"
	"mlportfolio/predict"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 64 << 10
	sendBuffer     = 64
)

// MessageType 消息类型
type MessageType string

const (
	MessagePredict     MessageType = "predict"
	MessageSubscribe   MessageType = "subscribe"
	MessageUnsubscribe MessageType = "unsubscribe"
	MessagePrediction  MessageType = "prediction"
	MessageFeed        MessageType = "feed"
	MessageError       MessageType = "error"
)

// ClientMessage is what a websocket client sends. Type defaults to predict.
type ClientMessage struct {
	Type     MessageType            `json:"type,omitempty"`
	ID       string                 `json:"id,omitempty"`
	Workflow string                 `json:"workflow"`
	Inputs   map[string]interface{} `json:"inputs"`
}

// ServerMessage is what the server sends back.
type ServerMessage struct {
	Type    MessageType     `json:"type"`
	ID      string          `json:"id,omitempty"`
	Data    *predict.Result `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Feature string          `json:"feature,omitempty"`
	Allowed []string        `json:"allowed,omitempty"`
}

// Predictor scores one request.
type Predictor interface {
	Predict(ctx context.Context, workflow string, input map[string]interface{}) (*predict.Result, error)
}

// Client WebSocket客户端
type Client struct {
	conn       *websocket.Conn
	send       chan []byte
	clientID   string
	subscribed atomic.Bool

	mu     sync.Mutex
	closed bool
}

// enqueue drops the message when the client is gone or too slow.
func (c *Client) enqueue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Hub WebSocket中心. It answers prediction requests per client and fans
// every recorded prediction out to subscribed clients.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	upgrader   websocket.Upgrader
	logger     *zap.Logger
	metrics    *monitoring.Metrics
	timeout    time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub 创建WebSocket中心
func NewHub(logger *zap.Logger, metrics *monitoring.Metrics, allowedOrigins []string) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		upgrader: websocket.Upgrader{
			CheckOrigin:     originChecker(allowedOrigins),
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:  logger,
		metrics: metrics,
		timeout: 30 * time.Second,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

func originChecker(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origins {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// Start 启动WebSocket中心. It blocks until Stop.
func (h *Hub) Start() {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.setGauge()
			h.logger.Debug("ws client connected", zap.String("client", client.clientID), zap.Int("total", len(h.clients)))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
				h.setGauge()
			}
			h.logger.Debug("ws client disconnected", zap.String("client", client.clientID), zap.Int("total", len(h.clients)))

		case message := <-h.broadcast:
			for client := range h.clients {
				if !client.subscribed.Load() {
					continue
				}
				if !client.enqueue(message) {
					delete(h.clients, client)
					client.close()
					h.setGauge()
				}
			}

		case <-h.ctx.Done():
			for client := range h.clients {
				client.close()
				delete(h.clients, client)
			}
			h.setGauge()
			return
		}
	}
}

// Stop 停止WebSocket中心
func (h *Hub) Stop() {
	h.cancel()
	<-h.done
}

func (h *Hub) setGauge() {
	if h.metrics != nil {
		h.metrics.WSConnections.Set(float64(len(h.clients)))
	}
}

// Record implements predict.Recorder by broadcasting to subscribers.
func (h *Hub) Record(_ context.Context, r *predict.Result) error {
	payload, err := json.Marshal(ServerMessage{Type: MessageFeed, Data: r})
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warn("ws broadcast queue is full, dropping message")
	}
	return nil
}

// Handler upgrades the connection and serves predictions over it.
func (h *Hub) Handler(p Predictor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("ws upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan []byte, sendBuffer),
			clientID: uuid.NewString(),
		}
		select {
		case h.register <- client:
		case <-h.ctx.Done():
			conn.Close()
			return
		}

		go client.writePump()
		go h.readPump(client, p)
	}
}

// writePump WebSocket写入泵
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

// readPump WebSocket读取泵
func (h *Hub) readPump(c *Client, p Predictor) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.ctx.Done():
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("ws read error", zap.String("client", c.clientID), zap.Error(err))
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.reply(c, ServerMessage{Type: MessageError, Error: "invalid message: " + err.Error()})
			continue
		}
		h.handleClientMessage(c, p, msg)
	}
}

// handleClientMessage 处理客户端消息
func (h *Hub) handleClientMessage(c *Client, p Predictor, msg ClientMessage) {
	switch msg.Type {
	case MessageSubscribe:
		c.subscribed.Store(true)
	case MessageUnsubscribe:
		c.subscribed.Store(false)
	case "", MessagePredict:
		ctx, cancel := context.WithTimeout(h.ctx, h.timeout)
		defer cancel()
		res, err := p.Predict(ctx, msg.Workflow, msg.Inputs)
		if err != nil {
			out := ServerMessage{Type: MessageError, ID: msg.ID, Error: err.Error()}
			var catErr *feature.InvalidCategoryError
			if errors.As(err, &catErr) {
				out.Feature = catErr.Feature
				out.Allowed = catErr.Allowed
			}
			h.reply(c, out)
			return
		}
		h.reply(c, ServerMessage{Type: MessagePrediction, ID: msg.ID, Data: res})
	default:
		h.reply(c, ServerMessage{Type: MessageError, ID: msg.ID, Error: "unknown message type " + string(msg.Type)})
	}
}

func (h *Hub) reply(c *Client, msg ServerMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("ws encode failed", zap.Error(err))
		return
	}
	if !c.enqueue(payload) {
		h.logger.Debug("ws reply dropped", zap.String("client", c.clientID))
	}
}
