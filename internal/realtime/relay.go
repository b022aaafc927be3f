package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/taskmaster/tasksync/internal/infrastructure/logger"
	"github.com/taskmaster/tasksync/internal/infrastructure/metrics"
)

const relayQueue = 256

type relayMessage struct {
	Node  string          `json:"node"`
	Scope string          `json:"scope"`
	Frame json.RawMessage `json:"frame"`
}

// Relay shares published frames between processes over a Redis channel so
// sessions connected to any node receive every event. Frames carry the id
// of the node that produced them and are not delivered twice locally.
type Relay struct {
	client  *redis.Client
	channel string
	node    string
	hub     *Hub
	out     chan relayMessage
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewRelay(client *redis.Client, channel string, hub *Hub, logger *logger.Logger, m *metrics.Metrics) *Relay {
	return &Relay{
		client:  client,
		channel: channel,
		node:    uuid.NewString(),
		hub:     hub,
		out:     make(chan relayMessage, relayQueue),
		logger:  logger.WithComponent("relay"),
		metrics: m,
	}
}

// Forward queues a frame for publication. A full queue drops the frame.
func (r *Relay) Forward(scope string, frame []byte) {
	select {
	case r.out <- relayMessage{Node: r.node, Scope: scope, Frame: frame}:
	default:
		r.logger.Warnw("Relay queue full, frame dropped", "scope", scope)
	}
}

// Run publishes queued frames and delivers frames from other nodes until
// ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	// wait for the subscription to be confirmed
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}
	r.logger.Infow("Relay subscribed", "channel", r.channel, "node", r.node)

	go r.publishLoop(ctx)

	incoming := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-incoming:
			if !ok {
				return nil
			}
			r.deliver(msg.Payload)
		}
	}
}

func (r *Relay) publishLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-r.out:
			payload, err := json.Marshal(m)
			if err != nil {
				r.logger.Errorw("Failed to encode relay message", "error", err)
				continue
			}
			if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
				r.logger.Warnw("Failed to publish to relay", "error", err)
				continue
			}
			r.metrics.RelayMessage("out")
		}
	}
}

func (r *Relay) deliver(payload string) {
	var m relayMessage
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		r.logger.Warnw("Ignoring malformed relay message", "error", err)
		return
	}
	if m.Node == r.node {
		return
	}
	r.metrics.RelayMessage("in")
	delivered, dropped := r.hub.Deliver(m.Scope, m.Frame)
	r.logger.Debugw("Relayed frame delivered", "scope", m.Scope, "from", m.Node, "delivered", delivered, "dropped", dropped)
}
