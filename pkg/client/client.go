package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/astromechza/docrelay/pkg/presence"
	"github.com/astromechza/docrelay/pkg/relay"
)

// Client is a Go participant on a relay. Register callbacks before calling
// Connect; events arriving without a callback are dropped.
type Client struct {
	cfg        Config
	log        *slog.Logger
	dispatcher Dispatcher
	writeCh    chan relay.Event

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	cancel    context.CancelFunc
}

// New constructs a client with the provided config. Use DefaultConfig as a
// starting point.
func New(cfg Config) *Client {
	if cfg.WriteBuffer <= 0 {
		cfg.WriteBuffer = 16
	}
	return &Client{
		cfg:     cfg,
		log:     slog.Default(),
		writeCh: make(chan relay.Event, cfg.WriteBuffer),
	}
}

// SetLogger overrides the logger (optional).
func (c *Client) SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	c.log = l
}

// OnUsersList registers a callback for the member snapshot sent after Join.
func (c *Client) OnUsersList(fn func([]presence.Participant)) { c.dispatcher.SetOnUsersList(fn) }

// OnUserJoined registers a callback for new participants.
func (c *Client) OnUserJoined(fn func(presence.Participant)) { c.dispatcher.SetOnUserJoined(fn) }

// OnUserLeft registers a callback for departing participant ids.
func (c *Client) OnUserLeft(fn func(string)) { c.dispatcher.SetOnUserLeft(fn) }

// OnContentChanged registers a callback for peer content edits.
func (c *Client) OnContentChanged(fn func(relay.ContentChanged)) { c.dispatcher.SetOnContentChanged(fn) }

// OnTitleChanged registers a callback for peer title edits.
func (c *Client) OnTitleChanged(fn func(relay.TitleChanged)) { c.dispatcher.SetOnTitleChanged(fn) }

// OnCursorMoved registers a callback for peer cursor reports.
func (c *Client) OnCursorMoved(fn func(relay.CursorMoved)) { c.dispatcher.SetOnCursorMoved(fn) }

// OnError registers a callback for transport and decode errors.
func (c *Client) OnError(fn func(error)) { c.dispatcher.SetOnError(fn) }

// Connect dials the relay and starts the internal read and write loops.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return errors.New("already connected")
	}
	c.mu.Unlock()

	if c.cfg.URL == "" {
		return errors.New("empty URL")
	}
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return err
	}

	dialCtx := ctx
	if c.cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
		defer cancel()
	}

	ws, _, err := websocket.Dial(dialCtx, u.String(), nil)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.conn = ws
	c.connected = true
	c.cancel = cancel
	c.mu.Unlock()

	go c.readLoop(runCtx, ws)
	go c.writeLoop(runCtx, ws)
	return nil
}

// Join announces this client as a participant on the document.
func (c *Client) Join(ctx context.Context, documentID string) error {
	return c.send(ctx, relay.Event{Type: relay.TypeJoinDocument, Data: relay.JoinDocument{
		DocumentID: documentID,
		User:       relay.UserInfo{Name: c.cfg.Name, Color: c.cfg.Color},
	}})
}

// SendContent replaces the document content for every other participant.
func (c *Client) SendContent(ctx context.Context, documentID string, content string) error {
	return c.send(ctx, relay.Event{Type: relay.TypeContentChange, Data: relay.ContentChange{
		DocumentID: documentID,
		Content:    content,
	}})
}

// SendTitle replaces the document title for every other participant.
func (c *Client) SendTitle(ctx context.Context, documentID string, title string) error {
	return c.send(ctx, relay.Event{Type: relay.TypeTitleChange, Data: relay.TitleChange{
		DocumentID: documentID,
		Title:      title,
	}})
}

// MoveCursor reports this client's cursor offset to other participants.
func (c *Client) MoveCursor(ctx context.Context, documentID string, position int) error {
	return c.send(ctx, relay.Event{Type: relay.TypeCursorMove, Data: relay.CursorMove{
		DocumentID: documentID,
		Position:   position,
	}})
}

// Close shuts the client down and closes the websocket.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.connected = false
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		return conn.Close(websocket.StatusNormalClosure, "client close")
	}
	return nil
}

func (c *Client) send(ctx context.Context, ev relay.Event) error {
	c.mu.Lock()
	connected := c.connected
	c.mu.Unlock()
	if !connected {
		return errors.New("not connected")
	}

	select {
	case c.writeCh <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) readLoop(ctx context.Context, ws *websocket.Conn) {
	for {
		var env relay.Envelope
		if err := wsjson.Read(ctx, ws, &env); err != nil {
			if isExpectedDisconnect(ctx, err) {
				return
			}
			c.dispatcher.fireError(err)
			c.log.Warn("read loop exit", "err", err)
			return
		}
		c.dispatcher.Dispatch(env)
	}
}

func (c *Client) writeLoop(ctx context.Context, ws *websocket.Conn) {
	for {
		select {
		case ev := <-c.writeCh:
			if err := wsjson.Write(ctx, ws, ev); err != nil {
				c.dispatcher.fireError(err)
				c.log.Warn("write loop exit", "err", err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func isExpectedDisconnect(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if ctx != nil && ctx.Err() != nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	default:
		return false
	}
}
