package relay

import "encoding/json"

// Wire format is a {"type","data"} envelope with a fixed payload schema per
// tag. Field names follow the browser client (documentId, userId, position).
const (
	TypeJoinDocument  = "join-document"
	TypeContentChange = "content-change"
	TypeTitleChange   = "title-change"
	TypeCursorMove    = "cursor-move"

	TypeUsersList      = "users-list"
	TypeUserJoined     = "user-joined"
	TypeUserLeft       = "user-left"
	TypeContentChanged = "content-changed"
	TypeTitleChanged   = "title-changed"
	TypeCursorMoved    = "cursor-moved"
)

// Envelope is the undecoded form of a frame: the tag is inspected first and
// the payload decoded against that tag's schema, never optimistically.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Event is the encodable form of a frame.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// UserInfo is the identity a client presents on join. The relay stamps the
// connection id itself; clients cannot choose one.
type UserInfo struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type JoinDocument struct {
	DocumentID string   `json:"documentId"`
	User       UserInfo `json:"user"`
}

type ContentChange struct {
	DocumentID string `json:"documentId"`
	Content    string `json:"content"`
}

type TitleChange struct {
	DocumentID string `json:"documentId"`
	Title      string `json:"title"`
}

type CursorMove struct {
	DocumentID string `json:"documentId"`
	Position   int    `json:"position"`
}

type ContentChanged struct {
	Content string `json:"content"`
	UserID  string `json:"userId"`
}

type TitleChanged struct {
	Title  string `json:"title"`
	UserID string `json:"userId"`
}

type CursorMoved struct {
	UserID   string `json:"userId"`
	Position int    `json:"position"`
}
