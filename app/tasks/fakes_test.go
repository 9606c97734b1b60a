package tasks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/lysyi3m/workwatch/app/database"
	"github.com/lysyi3m/workwatch/app/feed"
	"github.com/lysyi3m/workwatch/app/work"
)

var errFake = errors.New("fake failure")

var _ database.Store = (*memStore)(nil)

type memStore struct {
	mu        sync.Mutex
	snapshots map[string]*work.Snapshot
	sent      map[string]work.SentRecord
	queue     []string

	snapshotWrites int
	failGetSent    bool
	failDequeue    bool
}

func newMemStore() *memStore {
	return &memStore{
		snapshots: make(map[string]*work.Snapshot),
		sent:      make(map[string]work.SentRecord),
	}
}

func (m *memStore) GetSnapshot(ctx context.Context, id string) (*work.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snapshots[id]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (m *memStore) SaveSnapshot(ctx context.Context, snapshot *work.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *snapshot
	m.snapshots[snapshot.ID] = &copied
	m.snapshotWrites++
	return nil
}

func (m *memStore) GetSent(ctx context.Context, id string) (*work.SentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGetSent {
		return nil, errFake
	}
	rec, ok := m.sent[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *memStore) SaveSent(ctx context.Context, record work.SentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent[record.ID] = record
	return nil
}

func (m *memStore) Enqueue(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, id)
	return nil
}

func (m *memStore) Dequeue(ctx context.Context, timeout time.Duration) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDequeue {
		return "", false, errFake
	}
	if len(m.queue) == 0 {
		return "", false, nil
	}
	id := m.queue[0]
	m.queue = m.queue[1:]
	return id, true, nil
}

func (m *memStore) Length(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.queue)), nil
}

func (m *memStore) Stats(ctx context.Context) (database.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return database.Stats{
		Snapshots: int64(len(m.snapshots)),
		Sent:      int64(len(m.sent)),
		Queued:    int64(len(m.queue)),
	}, nil
}

func (m *memStore) Cleanup(ctx context.Context, olderThan time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := olderThan.Format(work.DateLayout)
	var removed int64
	for id, s := range m.snapshots {
		if s.UpdatedAt < cutoff {
			delete(m.snapshots, id)
			delete(m.sent, id)
			removed++
		}
	}
	return removed, nil
}

func (m *memStore) Ping(ctx context.Context) error { return nil }
func (m *memStore) Close() error                   { return nil }

func (m *memStore) queued() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queue...)
}

func (m *memStore) writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotWrites
}

type fakeFetcher struct {
	mu      sync.Mutex
	entries map[string][]feed.Entry
	errors  map[string]error
	panics  bool
	calls   []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]feed.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panics {
		panic("fetcher exploded")
	}
	f.calls = append(f.calls, url)
	if err := f.errors[url]; err != nil {
		return nil, err
	}
	return f.entries[url], nil
}

func (f *fakeFetcher) set(url string, entries ...feed.Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entries == nil {
		f.entries = make(map[string][]feed.Entry)
	}
	f.entries[url] = entries
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Send(ctx context.Context, text string) error {
	args := m.Called(ctx, text)
	return args.Error(0)
}

func (m *mockNotifier) Probe(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockNotifier) Close() error {
	return nil
}
