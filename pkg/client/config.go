package client

import "time"

// Config controls a relay client connection.
type Config struct {
	// URL is the ws:// or wss:// endpoint of the relay.
	URL string
	// Name is the display name presented to other participants.
	Name string
	// Color is the presentation color shown next to the name.
	Color string
	// HandshakeTimeout bounds the websocket dial. Zero disables it.
	HandshakeTimeout time.Duration
	// WriteBuffer is the size of the outgoing event queue.
	WriteBuffer int
}

// DefaultConfig returns a config with sensible defaults for the given URL.
func DefaultConfig(url string) Config {
	return Config{
		URL:              url,
		Name:             "anonymous",
		Color:            "#4f46e5",
		HandshakeTimeout: 10 * time.Second,
		WriteBuffer:      16,
	}
}
