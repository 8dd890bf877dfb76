package monitoring

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/itsatony/sensorhub/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu       sync.Mutex
	channels []string
	payloads [][]byte
	err      error
	closed   bool
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels = append(f.channels, channel)
	f.payloads = append(f.payloads, payload)
	return f.err
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

func TestRecordEvent_Publishes(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewServiceWithPublisher("sensorhub.events", pub)

	svc.RecordEvent("sensor_deletion", map[string]string{"sensor_id": "3"})

	require.Len(t, pub.payloads, 1)
	assert.Equal(t, "sensorhub.events", pub.channels[0])

	var ev Event
	require.NoError(t, json.Unmarshal(pub.payloads[0], &ev))
	assert.Equal(t, "sensor_deletion", ev.Name)
	assert.Equal(t, "3", ev.Labels["sensor_id"])
	assert.False(t, ev.Timestamp.IsZero())

	require.NoError(t, svc.Close())
	assert.True(t, pub.closed)
}

func TestRecordEvent_PublishFailureIsIgnored(t *testing.T) {
	pub := &fakePublisher{err: stderrors.New("connection refused")}
	svc := NewServiceWithPublisher("events", pub)

	svc.RecordEvent("user_registration", nil)
	svc.RecordEvent("user_registration", nil)

	assert.Equal(t, int64(2), svc.GetEventMetrics()["user_registration"])
}

func TestNewService_DisabledWithoutHost(t *testing.T) {
	svc := NewService(config.RedisConfig{Channel: "events"})
	assert.Nil(t, svc.publisher)

	svc.RecordEvent("sensor_creation", nil)
	assert.Equal(t, map[string]int64{"sensor_creation": 1}, svc.GetEventMetrics())
	assert.NoError(t, svc.Close())
}
