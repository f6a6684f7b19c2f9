package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	mqttcommon "xdrip-watch/common/mqtt"
	"xdrip-watch/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type published struct {
	topic   string
	payload []byte
}

// fakeBroker 内存 broker：Publish 到已订阅主题时同步投递
type fakeBroker struct {
	mu         sync.Mutex
	connected  bool
	publishErr error
	subs       map[string]mqttcommon.MessageHandler
	published  []published
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{connected: true, subs: map[string]mqttcommon.MessageHandler{}}
}

func (f *fakeBroker) Subscribe(topic string, qos byte, handler mqttcommon.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[topic] = handler
	return nil
}

func (f *fakeBroker) Publish(topic string, qos byte, retained bool, payload []byte) error {
	f.mu.Lock()
	if f.publishErr != nil {
		f.mu.Unlock()
		return f.publishErr
	}
	f.published = append(f.published, published{topic: topic, payload: payload})
	h := f.subs[topic]
	f.mu.Unlock()
	if h != nil {
		return h(topic, payload)
	}
	return nil
}

func (f *fakeBroker) Unsubscribe(topics ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range topics {
		delete(f.subs, t)
	}
	return nil
}

func (f *fakeBroker) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func TestMQTTSession_RequestUpdate_PublishesFlag(t *testing.T) {
	broker := newFakeBroker()
	s := NewMQTTSession(broker, TopicsFor("xdrip", "watch-1"), 1, zap.NewNop())

	require.NoError(t, s.RequestUpdate(context.Background()))

	require.Len(t, broker.published, 1)
	assert.Equal(t, "xdrip/watch-1/request", broker.published[0].topic)

	var req models.UpdateRequest
	require.NoError(t, json.Unmarshal(broker.published[0].payload, &req))
	assert.True(t, req.RequestWatchStateUpdate)
	assert.JSONEq(t, `{"requestWatchStateUpdate":true}`, string(broker.published[0].payload))
}

func TestMQTTSession_RequestUpdate_Errors(t *testing.T) {
	broker := newFakeBroker()
	s := NewMQTTSession(broker, TopicsFor("xdrip", "watch-1"), 1, zap.NewNop())

	broker.connected = false
	assert.ErrorIs(t, s.RequestUpdate(context.Background()), ErrNotConnected)

	broker.connected = true
	broker.publishErr = errors.New("boom")
	assert.Error(t, s.RequestUpdate(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.RequestUpdate(ctx), context.Canceled)
}

func TestMQTTSession_DeliversSnapshots(t *testing.T) {
	broker := newFakeBroker()
	s := NewMQTTSession(broker, TopicsFor("xdrip", "watch-1"), 1, zap.NewNop())
	require.NoError(t, s.Start())

	var got []byte
	s.OnSnapshot(func(payload []byte) { got = payload })

	require.NoError(t, broker.Publish("xdrip/watch-1/state", 1, false, []byte(`{"x":1}`)))
	assert.Equal(t, `{"x":1}`, string(got))

	require.NoError(t, s.Stop())
	assert.Empty(t, broker.subs)
}

func TestMQTTSession_NoHandlerIsSafe(t *testing.T) {
	broker := newFakeBroker()
	s := NewMQTTSession(broker, TopicsFor("xdrip", "watch-1"), 1, zap.NewNop())
	require.NoError(t, s.Start())
	assert.NoError(t, broker.Publish("xdrip/watch-1/state", 1, false, []byte(`{}`)))
}
