package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/astromechza/docrelay/pkg/presence"
)

var (
	ErrUnknownType     = errors.New("unknown event type")
	ErrMissingDocument = errors.New("event missing documentId")
)

// Sender delivers one event to a single connection. Delivery is
// fire-and-forget: a failed send to a stale recipient is dropped, and the
// membership is cleaned up when the transport reports the disconnect.
type Sender interface {
	Send(ev Event) error
}

// Publisher receives every locally-originated broadcast so it can be
// forwarded to other relay instances. See pkg/bridge.
type Publisher interface {
	Publish(documentID string, ev Event, senderID string)
}

// Relay owns every room in the process and routes inbound events to the
// right one. Room creation and deletion go through the write lock; the
// high-rate content/title/cursor paths only take the read lock and contend
// on the individual room's lock, so unrelated documents never serialize
// each other's traffic.
type Relay struct {
	log       *slog.Logger
	publisher Publisher

	mu    sync.RWMutex
	rooms map[string]*presence.Room
	conns map[string]Sender
}

func New(log *slog.Logger) *Relay {
	if log == nil {
		log = slog.Default()
	}
	return &Relay{
		log:   log,
		rooms: make(map[string]*presence.Room),
		conns: make(map[string]Sender),
	}
}

// SetPublisher attaches a cross-instance forwarder. Must be called before
// the relay starts serving connections.
func (r *Relay) SetPublisher(p Publisher) {
	r.publisher = p
}

// Register attaches the transport for a new connection.
func (r *Relay) Register(connID string, s Sender) {
	r.mu.Lock()
	r.conns[connID] = s
	r.mu.Unlock()
}

// HandleMessage decodes one raw inbound frame and applies it. Malformed
// frames are dropped with no state change; the returned error exists for
// logging and tests and is never delivered back to the sender.
func (r *Relay) HandleMessage(connID string, raw []byte) error {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to decode frame: %w", err)
	}
	switch env.Type {
	case TypeJoinDocument:
		var msg JoinDocument
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return fmt.Errorf("failed to decode %s: %w", env.Type, err)
		}
		if msg.DocumentID == "" {
			return ErrMissingDocument
		}
		r.Join(connID, msg.DocumentID, msg.User)
	case TypeContentChange:
		var msg ContentChange
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return fmt.Errorf("failed to decode %s: %w", env.Type, err)
		}
		if msg.DocumentID == "" {
			return ErrMissingDocument
		}
		r.ContentChange(connID, msg.DocumentID, msg.Content)
	case TypeTitleChange:
		var msg TitleChange
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return fmt.Errorf("failed to decode %s: %w", env.Type, err)
		}
		if msg.DocumentID == "" {
			return ErrMissingDocument
		}
		r.TitleChange(connID, msg.DocumentID, msg.Title)
	case TypeCursorMove:
		var msg CursorMove
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return fmt.Errorf("failed to decode %s: %w", env.Type, err)
		}
		if msg.DocumentID == "" {
			return ErrMissingDocument
		}
		r.CursorMove(connID, msg.DocumentID, msg.Position)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
	return nil
}

// Join adds the connection to the document's room, creating the room if this
// is the first member. The joiner receives the current member list and
// everyone already present receives the new participant.
func (r *Relay) Join(connID string, documentID string, user UserInfo) {
	p := presence.NewParticipant(connID, user.Name, user.Color)

	r.mu.Lock()
	room, ok := r.rooms[documentID]
	if !ok {
		room = presence.NewRoom(documentID)
		r.rooms[documentID] = room
	}
	others := room.Join(connID, p)
	sender := r.conns[connID]
	r.mu.Unlock()

	if sender != nil {
		if err := sender.Send(Event{Type: TypeUsersList, Data: others}); err != nil {
			r.log.Debug("failed to send users-list", "doc", documentID, "conn", connID, "err", err)
		}
	}
	r.broadcast(room, connID, Event{Type: TypeUserJoined, Data: p})
}

// ContentChange relays the full new content to every other member of the
// document's room. The content is not inspected or merged: last writer wins
// at each receiver.
func (r *Relay) ContentChange(connID string, documentID string, content string) {
	room := r.room(documentID)
	if room == nil {
		return
	}
	r.broadcast(room, connID, Event{Type: TypeContentChanged, Data: ContentChanged{Content: content, UserID: connID}})
}

// TitleChange relays a title edit with the same fan-out as ContentChange.
func (r *Relay) TitleChange(connID string, documentID string, title string) {
	room := r.room(documentID)
	if room == nil {
		return
	}
	r.broadcast(room, connID, Event{Type: TypeTitleChanged, Data: TitleChanged{Title: title, UserID: connID}})
}

// CursorMove records the sender's cursor offset and relays it. A cursor
// event for a connection that already left the room is dropped without a
// broadcast.
func (r *Relay) CursorMove(connID string, documentID string, position int) {
	room := r.room(documentID)
	if room == nil {
		return
	}
	if !room.UpdateCursor(connID, position) {
		return
	}
	r.broadcast(room, connID, Event{Type: TypeCursorMoved, Data: CursorMoved{UserID: connID, Position: position}})
}

// Disconnect removes the connection from every room it belongs to, deleting
// rooms left empty and notifying the remaining members of the others.
func (r *Relay) Disconnect(connID string) {
	r.mu.Lock()
	delete(r.conns, connID)
	var affected []*presence.Room
	for documentID, room := range r.rooms {
		if !room.Contains(connID) {
			continue
		}
		if room.Leave(connID) {
			delete(r.rooms, documentID)
			continue
		}
		affected = append(affected, room)
	}
	r.mu.Unlock()

	for _, room := range affected {
		r.broadcast(room, connID, Event{Type: TypeUserLeft, Data: connID})
	}
}

// DeliverLocal fans an event produced by another relay instance out to the
// local members of the document's room. It never re-publishes, so events
// cannot loop between instances.
func (r *Relay) DeliverLocal(documentID string, ev Event, senderID string) {
	room := r.room(documentID)
	if room == nil {
		return
	}
	r.deliver(room, senderID, ev)
}

// Members returns a snapshot of the participants in the document's room, or
// an empty slice when no room exists.
func (r *Relay) Members(documentID string) []presence.Participant {
	room := r.room(documentID)
	if room == nil {
		return []presence.Participant{}
	}
	return room.Members()
}

// RoomCount returns the number of live rooms.
func (r *Relay) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func (r *Relay) room(documentID string) *presence.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[documentID]
}

func (r *Relay) broadcast(room *presence.Room, senderID string, ev Event) {
	r.deliver(room, senderID, ev)
	if r.publisher != nil {
		r.publisher.Publish(room.DocumentID(), ev, senderID)
	}
}

func (r *Relay) deliver(room *presence.Room, senderID string, ev Event) {
	targets := room.MemberIDs(senderID)
	r.mu.RLock()
	senders := make([]Sender, 0, len(targets))
	for _, id := range targets {
		if s, ok := r.conns[id]; ok {
			senders = append(senders, s)
		}
	}
	r.mu.RUnlock()
	for _, s := range senders {
		if err := s.Send(ev); err != nil {
			r.log.Debug("dropping send to stale recipient", "doc", room.DocumentID(), "err", err)
		}
	}
}
