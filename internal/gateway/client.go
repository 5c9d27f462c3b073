package gateway

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"stockdash/internal/dashboard"
	"stockdash/internal/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 16
)

// Client represents a single WebSocket peer.
type Client struct {
	conn    *websocket.Conn
	send    chan []byte
	hub     *Hub
	traceID string

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
}

func newClient(h *Hub, conn *websocket.Conn, traceID string) *Client {
	ctx, cancel := context.WithCancel(logger.WithTraceID(context.Background(), traceID))
	return &Client{
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		hub:     h,
		traceID: traceID,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// stop cancels in-flight renders and closes the connection.
func (c *Client) stop() {
	c.stopOnce.Do(func() {
		c.cancel()
		c.conn.Close()
	})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.hub.RemoveClient(c)
	}()

	for {
		select {
		case <-c.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

func (c *Client) readPump() {
	defer func() {
		c.hub.RemoveClient(c)
		log.Println("[dashboard] ws client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var base struct {
			Type string `json:"type"`
			Ping int64  `json:"ping"`
		}
		if err := json.Unmarshal(msg, &base); err != nil {
			c.sendError("", "invalid message: "+err.Error(), 400)
			continue
		}

		switch base.Type {
		case MsgRender:
			var req RenderMsg
			if err := json.Unmarshal(msg, &req); err != nil {
				c.sendError("", "invalid RENDER: "+err.Error(), 400)
				continue
			}
			// Renders run in order on the read loop, so a client has at
			// most one in flight and replies keep request order.
			c.handleRender(req)

		default:
			if base.Ping > 0 {
				c.sendJSON(map[string]any{
					"type":      MsgPong,
					"ping":      base.Ping,
					"server_ts": time.Now().UnixMilli(),
				})
				continue
			}
			c.sendError("", "unknown message type "+base.Type, 400)
		}
	}
}

// handleRender runs one render pass and answers with PAGE or ERROR.
func (c *Client) handleRender(msg RenderMsg) {
	indicators := c.hub.defaults.indicators
	if msg.Indicators != nil {
		indicators = *msg.Indicators
	}

	ctx, cancel := c.renderContext()
	defer cancel()

	start := time.Now()
	page, err := c.hub.renderer.Render(ctx, dashboard.Request{
		Symbol:     msg.Symbol,
		Period:     msg.Period,
		Indicators: indicators,
	})
	if c.hub.latency != nil {
		c.hub.latency.Record(time.Since(start))
	}
	if c.ctx.Err() != nil {
		return
	}
	if err != nil {
		c.sendError(msg.ReqID, err.Error(), StatusFor(err))
		return
	}
	c.sendJSON(PageMsg{Type: MsgPage, ReqID: msg.ReqID, Page: page})
}

func (c *Client) renderContext() (context.Context, context.CancelFunc) {
	if c.hub.defaults.timeout <= 0 {
		return context.WithCancel(c.ctx)
	}
	return context.WithTimeout(c.ctx, c.hub.defaults.timeout)
}

// sendJSON queues v for the write pump, waiting while the buffer is full.
// It gives up only when the client is gone.
func (c *Client) sendJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[dashboard] ws json marshal error: %v", err)
		return
	}
	select {
	case c.send <- data:
	case <-c.ctx.Done():
	}
}

func (c *Client) sendError(reqID, errMsg string, status int) {
	c.sendJSON(ErrorResponse{
		Type:   MsgError,
		ReqID:  reqID,
		Error:  errMsg,
		Status: status,
	})
}
