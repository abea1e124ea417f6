// internal/server/handlers/websocket.go

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// WebSocketConfig contains configuration for WebSocket connections
type WebSocketConfig struct {
	// Time allowed to write a message to the peer
	WriteWait time.Duration

	// Time allowed to read the next pong message from the peer
	PongWait time.Duration

	// Send pings to peer with this period
	PingPeriod time.Duration

	// Maximum message size allowed from peer
	MaxMessageSize int64
}

// DefaultWebSocketConfig returns the default WebSocket configuration
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     (60 * time.Second * 9) / 10,
		MaxMessageSize: 64 * 1024,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, this should be more restrictive
		return true
	},
}

// taskFeedClient streams analysis task events to one WebSocket peer.
type taskFeedClient struct {
	conn   *websocket.Conn
	send   chan []byte
	taskID string
	sub    *nats.Subscription
	logger *zap.Logger
}

// AnalysisWebSocketHandler streams the lifecycle events of one analysis
// task over a WebSocket connection. Events arrive via NATS from the
// task runner; the client only reads.
func AnalysisWebSocketHandler(natsConn *nats.Conn, eventsTopic string, logger *zap.Logger) http.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		taskID := chi.URLParam(r, "taskID")
		if taskID == "" {
			http.Error(w, "Missing task ID", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &taskFeedClient{
			conn:   conn,
			send:   make(chan []byte, 64),
			taskID: taskID,
			logger: logger,
		}

		subject := fmt.Sprintf("%s.tasks.%s.>", eventsTopic, taskID)
		sub, err := natsConn.Subscribe(subject, func(msg *nats.Msg) {
			select {
			case client.send <- msg.Data:
			default:
				logger.Warn("dropping task event, slow websocket client",
					zap.String("task_id", taskID))
			}
		})
		if err != nil {
			logger.Error("task feed subscription failed",
				zap.String("subject", subject), zap.Error(err))
			conn.Close()
			return
		}
		client.sub = sub

		go client.writePump()
		go client.readPump()

		welcome, _ := json.Marshal(map[string]interface{}{
			"type":    "subscribed",
			"task_id": taskID,
			"time":    time.Now().UTC(),
		})
		client.send <- welcome

		logger.Info("task feed connected", zap.String("task_id", taskID))
	}
}

// readPump drains the connection so close and pong frames are handled;
// incoming data messages are ignored.
func (c *taskFeedClient) readPump() {
	config := DefaultWebSocketConfig()

	defer c.close()

	c.conn.SetReadLimit(config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(config.PongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read error",
					zap.String("task_id", c.taskID), zap.Error(err))
			}
			return
		}
	}
}

// writePump forwards task events to the peer and keeps the connection
// alive with pings.
func (c *taskFeedClient) writePump() {
	config := DefaultWebSocketConfig()
	ticker := time.NewTicker(config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *taskFeedClient) close() {
	if c.sub != nil {
		c.sub.Unsubscribe()
	}
	c.conn.Close()
}
