package relay

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var errSendBufferFull = errors.New("send buffer full")

// Handler upgrades HTTP requests into relay connections. Each connection is
// assigned a fresh uuid as its connection id, pumps inbound frames into the
// relay, and is disconnected from every room when the read side fails.
type Handler struct {
	relay        *Relay
	log          *slog.Logger
	pingInterval time.Duration
	upgrader     websocket.Upgrader
}

// NewHandler builds the websocket endpoint. A pingInterval of zero disables
// liveness pings: a participant is then considered present until the
// transport reports the disconnect on its own.
func NewHandler(r *Relay, log *slog.Logger, pingInterval time.Duration) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		relay:        r,
		log:          log,
		pingInterval: pingInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	conn, err := h.upgrader.Upgrade(writer, request, nil)
	if err != nil {
		h.log.Error("failed to upgrade", "err", err)
		return
	}

	connID := uuid.NewString()
	c := &wsConn{conn: conn, out: make(chan []byte, 64)}
	h.relay.Register(connID, c)
	h.log.Info("connected", "conn", connID, "remote", request.RemoteAddr)

	done := make(chan struct{})
	go c.writePump(h.pingInterval, done)

	for {
		mt, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if mt != websocket.TextMessage {
			continue
		}
		if err := h.relay.HandleMessage(connID, raw); err != nil {
			h.log.Warn("dropped event", "conn", connID, "err", err)
		}
	}

	h.relay.Disconnect(connID)
	close(done)
	_ = conn.Close()
	h.log.Info("disconnected", "conn", connID)
}

type wsConn struct {
	conn *websocket.Conn
	out  chan []byte
}

// Send enqueues without blocking: a full buffer means the recipient is not
// keeping up, and the frame is dropped rather than stalling the room.
func (c *wsConn) Send(ev Event) error {
	buf, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	select {
	case c.out <- buf:
		return nil
	default:
		return errSendBufferFull
	}
}

func (c *wsConn) writePump(pingInterval time.Duration, done <-chan struct{}) {
	var ping <-chan time.Time
	if pingInterval > 0 {
		t := time.NewTicker(pingInterval)
		defer t.Stop()
		ping = t.C
	}
	for {
		select {
		case buf := <-c.out:
			if err := c.conn.WriteMessage(websocket.TextMessage, buf); err != nil {
				return
			}
		case <-ping:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
