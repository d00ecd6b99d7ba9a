package client

import (
	"encoding/json"
	"fmt"

	"github.com/astromechza/docrelay/pkg/presence"
	"github.com/astromechza/docrelay/pkg/relay"
)

// Dispatcher routes decoded server events to registered callbacks. Events
// with no registered callback are ignored.
type Dispatcher struct {
	onUsersList      func([]presence.Participant)
	onUserJoined     func(presence.Participant)
	onUserLeft       func(string)
	onContentChanged func(relay.ContentChanged)
	onTitleChanged   func(relay.TitleChanged)
	onCursorMoved    func(relay.CursorMoved)
	onError          func(error)
}

func (d *Dispatcher) SetOnUsersList(fn func([]presence.Participant))    { d.onUsersList = fn }
func (d *Dispatcher) SetOnUserJoined(fn func(presence.Participant))     { d.onUserJoined = fn }
func (d *Dispatcher) SetOnUserLeft(fn func(string))                     { d.onUserLeft = fn }
func (d *Dispatcher) SetOnContentChanged(fn func(relay.ContentChanged)) { d.onContentChanged = fn }
func (d *Dispatcher) SetOnTitleChanged(fn func(relay.TitleChanged))     { d.onTitleChanged = fn }
func (d *Dispatcher) SetOnCursorMoved(fn func(relay.CursorMoved))       { d.onCursorMoved = fn }
func (d *Dispatcher) SetOnError(fn func(error))                         { d.onError = fn }

func (d *Dispatcher) Dispatch(env relay.Envelope) {
	switch env.Type {
	case relay.TypeUsersList:
		if d.onUsersList == nil {
			return
		}
		var users []presence.Participant
		if err := json.Unmarshal(env.Data, &users); err != nil {
			d.fireError(fmt.Errorf("failed to unmarshal users-list event: %w", err))
			return
		}
		d.onUsersList(users)
	case relay.TypeUserJoined:
		if d.onUserJoined == nil {
			return
		}
		var user presence.Participant
		if err := json.Unmarshal(env.Data, &user); err != nil {
			d.fireError(fmt.Errorf("failed to unmarshal user-joined event: %w", err))
			return
		}
		d.onUserJoined(user)
	case relay.TypeUserLeft:
		if d.onUserLeft == nil {
			return
		}
		var id string
		if err := json.Unmarshal(env.Data, &id); err != nil {
			d.fireError(fmt.Errorf("failed to unmarshal user-left event: %w", err))
			return
		}
		d.onUserLeft(id)
	case relay.TypeContentChanged:
		if d.onContentChanged == nil {
			return
		}
		var ev relay.ContentChanged
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			d.fireError(fmt.Errorf("failed to unmarshal content-changed event: %w", err))
			return
		}
		d.onContentChanged(ev)
	case relay.TypeTitleChanged:
		if d.onTitleChanged == nil {
			return
		}
		var ev relay.TitleChanged
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			d.fireError(fmt.Errorf("failed to unmarshal title-changed event: %w", err))
			return
		}
		d.onTitleChanged(ev)
	case relay.TypeCursorMoved:
		if d.onCursorMoved == nil {
			return
		}
		var ev relay.CursorMoved
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			d.fireError(fmt.Errorf("failed to unmarshal cursor-moved event: %w", err))
			return
		}
		d.onCursorMoved(ev)
	}
}

func (d *Dispatcher) fireError(err error) {
	if d.onError != nil && err != nil {
		d.onError(err)
	}
}
