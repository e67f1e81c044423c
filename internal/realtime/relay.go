package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	relayChannel = "storefront:envelopes"
	relayBuffer  = 1024
)

// relayMessage is an envelope on the Redis channel, tagged with the instance
// that published it.
type relayMessage struct {
	Origin  string          `json:"origin"`
	Kind    Kind            `json:"kind"`
	Target  Target          `json:"target"`
	Payload json.RawMessage `json:"payload"`
}

// Relay shares envelopes between server instances over Redis pub/sub so a
// user connected to instance B sees events raised on instance A.
type Relay struct {
	client     *redis.Client
	hub        *Hub
	instanceID string
	out        chan Envelope
	log        *zap.Logger
	wg         sync.WaitGroup
}

// NewRedisRelay connects to redisURL and installs itself as the hub's
// forwarder.
func NewRedisRelay(ctx context.Context, redisURL string, hub *Hub, log *zap.Logger) (*Relay, error) {
	if redisURL == "" {
		return nil, errors.New("redis URL is required")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	r := newRelay(client, hub, log)
	hub.SetForwarder(r)
	return r, nil
}

func newRelay(client *redis.Client, hub *Hub, log *zap.Logger) *Relay {
	return &Relay{
		client:     client,
		hub:        hub,
		instanceID: uuid.NewString(),
		out:        make(chan Envelope, relayBuffer),
		log:        log.Named("relay"),
	}
}

// Forward queues env for the other instances. It never blocks the publisher;
// when Redis falls behind envelopes are dropped.
func (r *Relay) Forward(env Envelope) {
	select {
	case r.out <- env:
	default:
		r.log.Warn("relay buffer full, envelope not shared", zap.String("kind", string(env.Kind)))
	}
}

// Run publishes queued envelopes and delivers envelopes from other instances
// locally until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	sub := r.client.Subscribe(ctx, relayChannel)

	r.wg.Add(2)
	go func() {
		defer r.wg.Done()
		r.publishLoop(ctx)
	}()
	go func() {
		defer r.wg.Done()
		defer sub.Close()
		r.receiveLoop(ctx, sub.Channel())
	}()

	r.log.Info("✓ Redis relay started", zap.String("instance_id", r.instanceID))
}

func (r *Relay) publishLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-r.out:
			data, err := r.encode(env)
			if err != nil {
				r.log.Error("failed to encode relay message", zap.Error(err))
				continue
			}
			if err := r.client.Publish(ctx, relayChannel, data).Err(); err != nil {
				r.log.Warn("failed to publish to redis", zap.Error(err))
			}
		}
	}
}

func (r *Relay) receiveLoop(ctx context.Context, ch <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			r.handle([]byte(msg.Payload))
		}
	}
}

// handle delivers a message from another instance to local connections only,
// so it is never forwarded back.
func (r *Relay) handle(data []byte) {
	var msg relayMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		r.log.Warn("malformed relay message", zap.Error(err))
		return
	}
	if msg.Origin == r.instanceID {
		return
	}
	r.hub.PublishLocal(Envelope{Kind: msg.Kind, Target: msg.Target, Payload: msg.Payload})
}

func (r *Relay) encode(env Envelope) ([]byte, error) {
	payload, err := json.Marshal(env.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(relayMessage{
		Origin:  r.instanceID,
		Kind:    env.Kind,
		Target:  env.Target,
		Payload: payload,
	})
}

// Close waits for the loops to exit (cancel Run's context first) and closes
// the Redis client.
func (r *Relay) Close() error {
	r.wg.Wait()
	return r.client.Close()
}
