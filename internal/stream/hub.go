// Package stream provides real-time data streaming and distribution functionality.
package stream

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"zonix/internal/models"
)

// AllSymbols subscribes to every published tick.
const AllSymbols = "*"

// HubConfig holds configuration for the Stream Hub.
type HubConfig struct {
	// BufferSize is the size of the internal tick channel buffer.
	BufferSize int
	// SubscriberBufferSize is the size of each subscriber's channel buffer.
	SubscriberBufferSize int
	// SlowConsumerDropThreshold is the number of drops after which a slow
	// subscriber is logged.
	SlowConsumerDropThreshold int
}

// DefaultHubConfig returns the default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		BufferSize:                1000,
		SubscriberBufferSize:      100,
		SlowConsumerDropThreshold: 10,
	}
}

// Hub fans ticks from the engine and the tape out to subscribers via
// channels. Sends are non-blocking; a full subscriber misses ticks instead
// of stalling the others.
type Hub struct {
	config      HubConfig
	logger      zerolog.Logger
	mu          sync.RWMutex
	subscribers map[string][]*Subscriber
	tickChan    chan models.Tick
	done        chan struct{}
	started     bool

	// Metrics
	ticksReceived  atomic.Uint64
	ticksBroadcast atomic.Uint64
	ticksDropped   atomic.Uint64
}

// Subscriber represents a channel subscriber with metadata.
type Subscriber struct {
	ID        string
	Channel   chan models.Tick
	CreatedAt time.Time

	dropped atomic.Int64
}

// DroppedCount returns how many ticks this subscriber missed.
func (s *Subscriber) DroppedCount() int64 {
	return s.dropped.Load()
}

// NewHub creates a new stream hub with default configuration.
func NewHub(logger zerolog.Logger) *Hub {
	return NewHubWithConfig(DefaultHubConfig(), logger)
}

// NewHubWithConfig creates a new stream hub with custom configuration.
func NewHubWithConfig(config HubConfig, logger zerolog.Logger) *Hub {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultHubConfig().BufferSize
	}
	if config.SubscriberBufferSize <= 0 {
		config.SubscriberBufferSize = DefaultHubConfig().SubscriberBufferSize
	}
	return &Hub{
		config:      config,
		logger:      logger.With().Str("component", "hub").Logger(),
		subscribers: make(map[string][]*Subscriber),
		tickChan:    make(chan models.Tick, config.BufferSize),
		done:        make(chan struct{}),
	}
}

// Start begins the hub's distribution loop.
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return nil
	}
	h.started = true
	h.mu.Unlock()

	go h.broadcastLoop(ctx)
	return nil
}

func (h *Hub) broadcastLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case tick := <-h.tickChan:
			h.ticksReceived.Add(1)
			h.broadcast(tick)
		}
	}
}

// Stop stops the hub and closes all subscriber channels.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.started {
		return
	}

	close(h.done)
	h.started = false

	for symbol, subs := range h.subscribers {
		for _, sub := range subs {
			close(sub.Channel)
		}
		delete(h.subscribers, symbol)
	}
	h.logger.Info().Uint64("broadcast", h.ticksBroadcast.Load()).Uint64("dropped", h.ticksDropped.Load()).Msg("Hub stopped")
}

// Subscribe adds a subscriber for a symbol and returns a channel to receive
// ticks. Use AllSymbols to receive everything.
func (h *Hub) Subscribe(symbol string) <-chan models.Tick {
	return h.SubscribeWithID(symbol, "")
}

// SubscribeWithID adds a subscriber with a specific ID for a symbol.
func (h *Hub) SubscribeWithID(symbol, id string) <-chan models.Tick {
	ch := make(chan models.Tick, h.config.SubscriberBufferSize)
	sub := &Subscriber{
		ID:        id,
		Channel:   ch,
		CreatedAt: time.Now(),
	}

	h.mu.Lock()
	h.subscribers[symbol] = append(h.subscribers[symbol], sub)
	h.mu.Unlock()

	return ch
}

// SubscribeMultiple subscribes to multiple symbols at once. Each channel is
// released with Unsubscribe under its own symbol.
func (h *Hub) SubscribeMultiple(symbols []string) map[string]<-chan models.Tick {
	result := make(map[string]<-chan models.Tick)
	for _, symbol := range symbols {
		result[symbol] = h.Subscribe(symbol)
	}
	return result
}

// Unsubscribe removes a subscriber channel for a symbol and closes it.
func (h *Hub) Unsubscribe(symbol string, ch <-chan models.Tick) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subscribers[symbol]
	for i, sub := range subs {
		if sub.Channel == ch {
			close(sub.Channel)
			h.subscribers[symbol] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}

	if len(h.subscribers[symbol]) == 0 {
		delete(h.subscribers, symbol)
	}
}

// Publish sends a tick to the hub for distribution.
// This is non-blocking - if the internal buffer is full, the tick is dropped.
func (h *Hub) Publish(tick models.Tick) {
	select {
	case h.tickChan <- tick:
	default:
		h.ticksDropped.Add(1)
	}
}

// PublishBatch publishes ticks in order.
func (h *Hub) PublishBatch(ticks []models.Tick) {
	for _, t := range ticks {
		h.Publish(t)
	}
}

// broadcast sends a tick to the symbol's subscribers and to wildcard
// subscribers. The read lock is held across the sends so Unsubscribe cannot
// close a channel mid-send.
func (h *Hub) broadcast(tick models.Tick) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, key := range []string{tick.Symbol, AllSymbols} {
		for _, sub := range h.subscribers[key] {
			select {
			case sub.Channel <- tick:
				h.ticksBroadcast.Add(1)
			default:
				n := sub.dropped.Add(1)
				h.ticksDropped.Add(1)
				if t := int64(h.config.SlowConsumerDropThreshold); t > 0 && n%t == 0 {
					h.logger.Warn().Str("subscriber", sub.ID).Str("symbol", key).Int64("dropped", n).Msg("Slow consumer")
				}
			}
		}
	}
}

// GetSubscriberCount returns the number of subscribers for a symbol.
func (h *Hub) GetSubscriberCount(symbol string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[symbol])
}

// GetTotalSubscriberCount returns the total number of subscribers across all symbols.
func (h *Hub) GetTotalSubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, subs := range h.subscribers {
		count += len(subs)
	}
	return count
}

// GetSubscribedSymbols returns all symbols with active subscribers.
func (h *Hub) GetSubscribedSymbols() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	symbols := make([]string, 0, len(h.subscribers))
	for symbol := range h.subscribers {
		symbols = append(symbols, symbol)
	}
	return symbols
}

// GetMetrics returns hub metrics.
func (h *Hub) GetMetrics() HubMetrics {
	return HubMetrics{
		TicksReceived:  h.ticksReceived.Load(),
		TicksBroadcast: h.ticksBroadcast.Load(),
		TicksDropped:   h.ticksDropped.Load(),
		Subscribers:    h.GetTotalSubscriberCount(),
		Symbols:        len(h.GetSubscribedSymbols()),
	}
}

// HubMetrics contains hub performance metrics.
type HubMetrics struct {
	TicksReceived  uint64 `json:"ticks_received"`
	TicksBroadcast uint64 `json:"ticks_broadcast"`
	TicksDropped   uint64 `json:"ticks_dropped"`
	Subscribers    int    `json:"subscribers"`
	Symbols        int    `json:"symbols"`
}

// IsStarted returns whether the hub is running.
func (h *Hub) IsStarted() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.started
}
