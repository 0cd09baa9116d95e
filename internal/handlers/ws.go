package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/feed"
	"github.com/bobmcallan/papertrade/internal/models"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 90 * time.Second
	wsPingPeriod = 45 * time.Second
	wsMaxMessage = 4096
	wsOutBuffer  = 64
)

var errSlowClient = errors.New("client not keeping up, update dropped")

type clientMessage struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// WSHandler serves the live price channel on /ws.
type WSHandler struct {
	broker   *feed.Broker
	logger   *common.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates the live channel handler.
func NewWSHandler(broker *feed.Broker, logger *common.Logger) *WSHandler {
	return &WSHandler{
		broker: broker,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// wsClient owns one connection. Only the writer goroutine writes to conn.
type wsClient struct {
	conn *websocket.Conn
	out  chan interface{}
	done chan struct{}
}

// Send queues an update without blocking the poller.
func (c *wsClient) Send(u feed.Update) error {
	select {
	case <-c.done:
		return feed.ErrClosed
	default:
	}
	select {
	case c.out <- u:
		return nil
	default:
		return errSlowClient
	}
}

func (c *wsClient) reply(v interface{}) {
	select {
	case c.out <- v:
	case <-c.done:
	default:
	}
}

// ServeHTTP upgrades the connection and runs it until the client leaves or
// the broker shuts down.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	cl := &wsClient{
		conn: conn,
		out:  make(chan interface{}, wsOutBuffer),
		done: make(chan struct{}),
	}

	session, err := h.broker.Open(cl)
	if err != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(wsWriteWait))
		return
	}
	defer session.Close()

	h.logger.Debug().Str("session", session.ID()).Str("remote", r.RemoteAddr).Msg("Live channel connected")

	writerDone := make(chan struct{})
	go h.writeLoop(cl, session, writerDone)

	h.readLoop(cl, session)

	close(cl.done)
	<-writerDone
	h.logger.Debug().Str("session", session.ID()).Msg("Live channel disconnected")
}

func (h *WSHandler) readLoop(cl *wsClient, session *feed.Session) {
	cl.conn.SetReadLimit(wsMaxMessage)
	cl.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		mt, data, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug().Str("session", session.ID()).Err(err).Msg("Live channel read error")
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			cl.reply(errorMessage{Type: "error", Error: "invalid message"})
			continue
		}

		switch strings.ToLower(msg.Type) {
		case "subscribe":
			if err := session.Subscribe(msg.Symbol); err != nil {
				text := err.Error()
				if models.KindOf(err) == "" {
					text = "subscription failed"
				}
				cl.reply(errorMessage{Type: "error", Error: text})
			}
		default:
			cl.reply(errorMessage{Type: "error", Error: "unknown message type"})
		}
	}
}

// writeLoop drains the client's queue and keeps the connection alive with
// pings. When the session closes under it (broker shutdown) it sends a close
// frame so the reader unblocks.
func (h *WSHandler) writeLoop(cl *wsClient, session *feed.Session, done chan<- struct{}) {
	defer close(done)

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case v := <-cl.out:
			cl.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := cl.conn.WriteJSON(v); err != nil {
				cl.conn.Close()
				return
			}
		case <-ping.C:
			if err := cl.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				cl.conn.Close()
				return
			}
		case <-session.Done():
			cl.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
				time.Now().Add(wsWriteWait))
			cl.conn.Close()
			return
		case <-cl.done:
			return
		}
	}
}
