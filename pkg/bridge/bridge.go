package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/astromechza/docrelay/pkg/relay"
)

const channelPrefix = "docrelay:"

// envelope wraps a relayed event with the instance that produced it so a
// subscriber can skip its own traffic.
type envelope struct {
	Origin   string      `json:"origin"`
	SenderID string      `json:"senderId"`
	Event    relay.Event `json:"event"`
}

// Bridge forwards local broadcasts to other relay instances through redis
// pub/sub, one channel per document, and injects theirs into the local
// relay. Publishing is best-effort to match the relay's fire-and-forget
// delivery semantics.
type Bridge struct {
	origin string
	rdb    *redis.Client
	relay  *relay.Relay
	log    *slog.Logger
}

func New(rdb *redis.Client, r *relay.Relay, log *slog.Logger) *Bridge {
	if log == nil {
		log = slog.Default()
	}
	return &Bridge{origin: uuid.NewString(), rdb: rdb, relay: r, log: log}
}

// Publish implements relay.Publisher.
func (b *Bridge) Publish(documentID string, ev relay.Event, senderID string) {
	buf, err := json.Marshal(envelope{Origin: b.origin, SenderID: senderID, Event: ev})
	if err != nil {
		b.log.Error("failed to encode bridge envelope", "doc", documentID, "err", err)
		return
	}
	if err := b.rdb.Publish(context.Background(), channelPrefix+documentID, buf).Err(); err != nil {
		b.log.Warn("failed to publish to redis", "doc", documentID, "err", err)
	}
}

// Run subscribes to every document channel and feeds remote events into the
// local relay until the context is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	pubsub := b.rdb.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle(msg)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (b *Bridge) handle(msg *redis.Message) {
	var env envelope
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		b.log.Warn("dropping undecodable bridge message", "channel", msg.Channel, "err", err)
		return
	}
	if env.Origin == b.origin {
		return
	}
	documentID := strings.TrimPrefix(msg.Channel, channelPrefix)
	b.relay.DeliverLocal(documentID, env.Event, env.SenderID)
}
