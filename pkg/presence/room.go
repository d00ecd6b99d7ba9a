package presence

import "sync"

// Room tracks the participants currently editing one document. It holds pure
// membership state: deciding who to deliver an event to, and delivering it,
// is the caller's concern.
type Room struct {
	documentID string

	mu      sync.Mutex
	members map[string]Participant
}

func NewRoom(documentID string) *Room {
	return &Room{documentID: documentID, members: make(map[string]Participant)}
}

func (r *Room) DocumentID() string { return r.documentID }

// Join adds the participant under connID, replacing any previous entry for
// the same connection, and returns a snapshot of the other members for the
// caller to deliver to the joiner.
func (r *Room) Join(connID string, p Participant) []Participant {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[connID] = p
	others := make([]Participant, 0, len(r.members)-1)
	for id, m := range r.members {
		if id != connID {
			others = append(others, m)
		}
	}
	return others
}

// Leave removes the connection if present and reports whether the room is
// now empty so the caller can delete it. Leaving a room the connection is
// not in is a no-op.
func (r *Room) Leave(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, connID)
	return len(r.members) == 0
}

// Contains reports whether connID is currently a member.
func (r *Room) Contains(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.members[connID]
	return ok
}

// UpdateCursor records the last reported cursor offset for connID. It
// reports false when connID is not a member, so a cursor event arriving
// after a departure cannot resurrect the participant.
func (r *Room) UpdateCursor(connID string, position int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.members[connID]
	if !ok {
		return false
	}
	r.members[connID] = p.WithCursor(position)
	return true
}

// MemberIDs returns the connection ids of every member except the given one.
func (r *Room) MemberIDs(except string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.members))
	for id := range r.members {
		if id != except {
			ids = append(ids, id)
		}
	}
	return ids
}

// Members returns a snapshot of all current participants.
func (r *Room) Members() []Participant {
	r.mu.Lock()
	defer r.mu.Unlock()
	members := make([]Participant, 0, len(r.members))
	for _, m := range r.members {
		members = append(members, m)
	}
	return members
}

func (r *Room) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}
