package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/sycamore/backend/internal/contracts"
	"github.com/wonny/sycamore/backend/pkg/logger"
)

const (
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
)

// StreamError is the reply to a message that could not be scored
type StreamError struct {
	ErrorResponse
	Status int `json:"status"`
}

// MessageLimiter budgets scoring messages per client key
type MessageLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// StreamHandler scores applicants over a websocket, one reply per message.
// 연결당 메시지는 순차 처리
type StreamHandler struct {
	scorer   CreditScorer
	schema   Validator
	upgrader websocket.Upgrader
	logger   *logger.Logger

	limiter MessageLimiter
	keyOf   func(*http.Request) string
}

// NewStreamHandler creates a new websocket scoring handler
func NewStreamHandler(scorer CreditScorer, schema Validator, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		scorer: scorer,
		schema: schema,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		logger: log,
	}
}

// LimitMessages charges every scoring message against limiter under the
// connection's client key. Call before serving.
func (h *StreamHandler) LimitMessages(limiter MessageLimiter, keyOf func(*http.Request) string) {
	h.limiter = limiter
	h.keyOf = keyOf
}

// allow reports whether the client may score one more message.
// 리미터 장애 시 통과 (fail-open)
func (h *StreamHandler) allow(r *http.Request, key string) bool {
	if h.limiter == nil {
		return true
	}
	ok, err := h.limiter.Allow(r.Context(), key)
	if err != nil {
		h.logger.WithContext(r.Context()).WithError(err).Warn("Rate limiter unavailable")
		return true
	}
	return ok
}

// wsConn serialises writes from the reader loop and the pinger
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// ScoreStream upgrades the connection and scores every text message
// GET /ws/credit/score
func (h *StreamHandler) ScoreStream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade가 이미 HTTP 에러 응답을 씀
		h.logger.WithContext(r.Context()).WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	log := h.logger.WithContext(r.Context())
	ws := &wsConn{conn: conn}

	conn.SetReadLimit(maxBodyBytes)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go h.pingLoop(ws, done)

	var key string
	if h.keyOf != nil {
		key = h.keyOf(r)
	}

	scored := 0
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Warn("Websocket closed unexpectedly")
			}
			break
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		if msgType != websocket.TextMessage {
			continue
		}

		var reply interface{}
		if h.allow(r, key) {
			reply = h.handleMessage(r, data)
		} else {
			reply = StreamError{
				ErrorResponse: ErrorResponse{Error: "rate limit exceeded"},
				Status:        http.StatusTooManyRequests,
			}
		}

		if err := ws.writeJSON(reply); err != nil {
			log.WithError(err).Warn("Websocket write failed")
			break
		}
		scored++
	}

	log.WithField("messages", scored).Debug("Websocket session ended")
}

func (h *StreamHandler) handleMessage(r *http.Request, data []byte) interface{} {
	var body map[string]interface{}
	err := json.Unmarshal(data, &body)
	if err == nil && body == nil {
		err = contracts.NewValidationError("body", "expected a JSON object")
	}
	if err != nil {
		return streamError(err)
	}

	res, err := scoreDocument(r.Context(), h.scorer, h.schema, body)
	if err != nil {
		status := StatusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.WithContext(r.Context()).WithError(err).Error("Websocket scoring failed")
		}
		return streamError(err)
	}
	return res
}

func streamError(err error) StreamError {
	return StreamError{ErrorResponse: ErrorBody(err), Status: StatusFor(err)}
}

func (h *StreamHandler) pingLoop(ws *wsConn, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := ws.ping(); err != nil {
				return
			}
		}
	}
}
