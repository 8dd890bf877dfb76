package monitoring

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/itsatony/sensorhub/internal/config"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
)

const publishTimeout = 2 * time.Second

// Publisher delivers a serialized event to a channel
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Close() error
}

// Event is the message published for every recorded lifecycle event
type Event struct {
	Name      string            `json:"event"`
	Labels    map[string]string `json:"labels,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Service records lifecycle events: every event is logged and counted, and
// published when a publisher is configured
type Service struct {
	channel   string
	publisher Publisher

	mu     sync.Mutex
	counts map[string]int64
}

// NewService creates a monitoring service. Redis publishing is enabled when
// cfg names a host.
func NewService(cfg config.RedisConfig) *Service {
	var publisher Publisher
	if cfg.Enabled() {
		publisher = NewRedisPublisher(cfg)
		nuts.L.Infof("[Monitoring] Publishing events to redis %s channel %s", cfg.Addr(), cfg.Channel)
	}
	return NewServiceWithPublisher(cfg.Channel, publisher)
}

// NewServiceWithPublisher creates a monitoring service using publisher,
// which may be nil
func NewServiceWithPublisher(channel string, publisher Publisher) *Service {
	return &Service{
		channel:   channel,
		publisher: publisher,
		counts:    make(map[string]int64),
	}
}

// RecordEvent records a monitored event with labels. Publishing failures are
// logged and otherwise ignored.
func (s *Service) RecordEvent(eventName string, labels map[string]string) {
	ev := Event{Name: eventName, Labels: labels, Timestamp: time.Now().UTC()}

	s.mu.Lock()
	s.counts[eventName]++
	s.mu.Unlock()

	nuts.L.Infof("[Monitoring] Event %s recorded at %v with labels: %v", eventName, ev.Timestamp, labels)

	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		nuts.L.Warnf("[Monitoring] Failed to encode event %s: %v", eventName, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(ctx, s.channel, payload); err != nil {
		nuts.L.Warnf("[Monitoring] Failed to publish event %s: %v", eventName, err)
	}
}

// GetEventMetrics returns the number of recorded events per event name
func (s *Service) GetEventMetrics() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}

// Close releases the publisher
func (s *Service) Close() error {
	if s.publisher == nil {
		return nil
	}
	return s.publisher.Close()
}

// RedisPublisher publishes events over Redis pub/sub
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher creates a publisher for the configured Redis server
func NewRedisPublisher(cfg config.RedisConfig) *RedisPublisher {
	return &RedisPublisher{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr(),
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	return p.client.Publish(ctx, channel, payload).Err()
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
