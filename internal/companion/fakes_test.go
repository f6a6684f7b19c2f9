package companion

import (
	"context"
	"sync"
	"time"

	mqttcommon "xdrip-watch/common/mqtt"
	"xdrip-watch/internal/models"
)

// fakeReadingStore 内存读数表，按时间戳去重
type fakeReadingStore struct {
	mu       sync.Mutex
	readings map[time.Time]models.Reading
	sources  map[time.Time]string
	listErr  error
	lists    int
}

func newFakeReadingStore(readings ...models.Reading) *fakeReadingStore {
	f := &fakeReadingStore{
		readings: map[time.Time]models.Reading{},
		sources:  map[time.Time]string{},
	}
	for _, r := range readings {
		f.readings[r.Timestamp] = r
	}
	return f
}

func (f *fakeReadingStore) ListSince(ctx context.Context, since time.Time) ([]models.Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []models.Reading{}
	for ts, r := range f.readings {
		if ts.After(since) {
			out = append(out, r)
		}
	}
	models.SortNewestFirst(out)
	return out, nil
}

func (f *fakeReadingStore) Upsert(ctx context.Context, rd models.Reading, source string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.readings[rd.Timestamp]; ok {
		return false, nil
	}
	f.readings[rd.Timestamp] = rd
	f.sources[rd.Timestamp] = source
	return true, nil
}

func (f *fakeReadingStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.readings)
}

type fakeSensorStore struct {
	sensor *models.Sensor
	err    error
}

func (f *fakeSensorStore) Active(ctx context.Context) (*models.Sensor, error) {
	return f.sensor, f.err
}

type published struct {
	topic   string
	payload []byte
}

// fakeBroker 内存 broker；只记录发布，不做通配匹配
type fakeBroker struct {
	mu        sync.Mutex
	subs      map[string]mqttcommon.MessageHandler
	published []published
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{subs: map[string]mqttcommon.MessageHandler{}}
}

func (f *fakeBroker) Subscribe(topic string, qos byte, handler mqttcommon.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[topic] = handler
	return nil
}

func (f *fakeBroker) Publish(topic string, qos byte, retained bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, published{topic: topic, payload: payload})
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

func (f *fakeBroker) IsConnected() bool { return true }

func (f *fakeBroker) handler(topic string) mqttcommon.MessageHandler {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs[topic]
}

type fakeFetcher struct {
	readings []models.Reading
	err      error
}

func (f *fakeFetcher) FetchEntries(ctx context.Context, count int) ([]models.Reading, error) {
	if f.err != nil {
		return nil, f.err
	}
	if count < len(f.readings) {
		return f.readings[:count], nil
	}
	return f.readings, nil
}
