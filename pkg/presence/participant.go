package presence

// Participant is one connected user's presence record within a room. The id
// is the connection id assigned by the transport; name and color are chosen
// client-side and are presentational only.
type Participant struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	Cursor *int   `json:"cursor,omitempty"`
}

func NewParticipant(id, name, color string) Participant {
	return Participant{ID: id, Name: name, Color: color}
}

// WithCursor returns a copy with the cursor offset replaced and every other
// field unchanged.
func (p Participant) WithCursor(position int) Participant {
	p.Cursor = &position
	return p
}
