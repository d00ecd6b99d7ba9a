package presence

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestJoinReturnsOtherMembers(t *testing.T) {
	r := NewRoom("doc-1")

	others := r.Join("conn-a", NewParticipant("conn-a", "alice", "#f00"))
	assert.Equal(t, 0, len(others))

	others = r.Join("conn-b", NewParticipant("conn-b", "bob", "#0f0"))
	assert.Equal(t, 1, len(others))
	assert.Equal(t, "conn-a", others[0].ID)
	assert.Equal(t, "alice", others[0].Name)
}

func TestRejoinReplaces(t *testing.T) {
	r := NewRoom("doc-1")
	r.Join("conn-a", NewParticipant("conn-a", "alice", "#f00"))
	others := r.Join("conn-a", NewParticipant("conn-a", "alice again", "#f00"))
	assert.Equal(t, 0, len(others))
	assert.Equal(t, 1, r.Size())
	assert.Equal(t, "alice again", r.Members()[0].Name)
}

func TestLeaveReportsEmpty(t *testing.T) {
	r := NewRoom("doc-1")
	r.Join("conn-a", NewParticipant("conn-a", "alice", "#f00"))
	r.Join("conn-b", NewParticipant("conn-b", "bob", "#0f0"))

	assert.Equal(t, false, r.Leave("conn-a"))
	assert.Equal(t, true, r.Leave("conn-b"))
}

func TestLeaveUnknownIsNoOp(t *testing.T) {
	r := NewRoom("doc-1")
	r.Join("conn-a", NewParticipant("conn-a", "alice", "#f00"))
	assert.Equal(t, false, r.Leave("conn-z"))
	assert.Equal(t, 1, r.Size())
}

func TestUpdateCursor(t *testing.T) {
	r := NewRoom("doc-1")
	r.Join("conn-a", NewParticipant("conn-a", "alice", "#f00"))

	assert.Equal(t, true, r.UpdateCursor("conn-a", 17))
	m := r.Members()[0]
	assert.NotEqual(t, nil, m.Cursor)
	assert.Equal(t, 17, *m.Cursor)

	// a cursor report for a departed connection must not resurrect it
	r.Leave("conn-a")
	assert.Equal(t, false, r.UpdateCursor("conn-a", 18))
	assert.Equal(t, 0, r.Size())
}

func TestMemberIDsExcludes(t *testing.T) {
	r := NewRoom("doc-1")
	r.Join("conn-a", NewParticipant("conn-a", "alice", "#f00"))
	r.Join("conn-b", NewParticipant("conn-b", "bob", "#0f0"))

	ids := r.MemberIDs("conn-a")
	assert.Equal(t, 1, len(ids))
	assert.Equal(t, "conn-b", ids[0])
}

func TestWithCursorLeavesOriginalUntouched(t *testing.T) {
	p := NewParticipant("conn-a", "alice", "#f00")
	q := p.WithCursor(5)
	assert.Equal(t, nil, p.Cursor)
	assert.Equal(t, 5, *q.Cursor)
	assert.Equal(t, p.Name, q.Name)
}
