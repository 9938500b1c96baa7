package sse

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	redisclient "github.com/wezaxes/alias-server-go/internal/redis"
)

const (
	HeartbeatInterval = 30 * time.Second
)

// Event announces that a room was written. Subscribers re-read the room
// rather than trusting the payload.
type Event struct {
	Code    string `json:"code"`
	Version int64  `json:"version"`
}

type Subscriber struct {
	Code string
	// Nudges holds at most one pending wake-up; bursts of writes coalesce.
	Nudges chan struct{}
	Done   chan struct{}
}

type Broker struct {
	redis       *redisclient.Client
	subscribers map[string]map[*Subscriber]bool // room code -> set of subscribers
	listeners   map[string]context.CancelFunc   // room code -> redis subscription
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
}

func NewBroker(redisClient *redisclient.Client) *Broker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Broker{
		redis:       redisClient,
		subscribers: make(map[string]map[*Subscriber]bool),
		listeners:   make(map[string]context.CancelFunc),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (b *Broker) Subscribe(code string) *Subscriber {
	sub := &Subscriber{
		Code:   code,
		Nudges: make(chan struct{}, 1),
		Done:   make(chan struct{}),
	}

	b.mu.Lock()
	if b.subscribers[code] == nil {
		b.subscribers[code] = make(map[*Subscriber]bool)
		ctx, cancel := context.WithCancel(b.ctx)
		b.listeners[code] = cancel
		go b.subscribeToRedis(ctx, code)
	}
	b.subscribers[code][sub] = true
	count := len(b.subscribers[code])
	b.mu.Unlock()

	log.Debug().
		Str("code", code).
		Int("subscriberCount", count).
		Msg("room subscriber added")

	return sub
}

func (b *Broker) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subs, ok := b.subscribers[sub.Code]; ok {
		if !subs[sub] {
			return
		}
		delete(subs, sub)
		close(sub.Done)

		if len(subs) == 0 {
			delete(b.subscribers, sub.Code)
			b.listeners[sub.Code]()
			delete(b.listeners, sub.Code)
		}

		log.Debug().
			Str("code", sub.Code).
			Int("subscriberCount", len(subs)).
			Msg("room subscriber removed")
	}
}

func (b *Broker) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return b.redis.Publish(ctx, redisclient.RoomChannel(event.Code), data).Err()
}

func (b *Broker) subscribeToRedis(ctx context.Context, code string) {
	channel := redisclient.RoomChannel(code)
	pubsub := b.redis.Subscribe(ctx, channel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error().Err(err).Str("channel", channel).Msg("failed to unmarshal room event")
				continue
			}

			b.broadcast(code)
		}
	}
}

func (b *Broker) broadcast(code string) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers[code] {
		select {
		case sub.Nudges <- struct{}{}:
		default:
		}
	}
}

func (b *Broker) Close() {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, subs := range b.subscribers {
		for sub := range subs {
			close(sub.Done)
		}
	}
	b.subscribers = make(map[string]map[*Subscriber]bool)
	b.listeners = make(map[string]context.CancelFunc)
}

func (b *Broker) SubscriberCount(code string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[code])
}

func (b *Broker) TotalSubscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := 0
	for _, subs := range b.subscribers {
		total += len(subs)
	}
	return total
}
