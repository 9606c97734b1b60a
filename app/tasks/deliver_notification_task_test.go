package tasks

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/workwatch/app/work"
)

func newDeliverTask(store *memStore, notifier *mockNotifier) *DeliverNotificationTask {
	task := NewDeliverNotificationTask(store, notifier, work.NewRenderer(""))
	task.now = func() time.Time { return testNow }
	task.Start()
	return task
}

func TestPipelineNewWorkIsDeliveredOnce(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	fetcher := &fakeFetcher{}
	fetcher.set(feedA, workEntry("anna", "3"))

	require.NoError(t, newCheckTask(fetcher, store, nil, feedA).Execute(ctx))

	notifier := &mockNotifier{}
	notifier.On("Send", mock.Anything, mock.MatchedBy(func(text string) bool {
		return strings.Contains(text, "Winter Light") && strings.Contains(text, "<b>Author:</b> anna")
	})).Return(nil).Once()

	require.NoError(t, newDeliverTask(store, notifier).Execute(ctx))
	// The queue is drained, so a second cycle sends nothing.
	require.NoError(t, newDeliverTask(store, notifier).Execute(ctx))

	notifier.AssertNumberOfCalls(t, "Send", 1)
	notifier.AssertExpectations(t)

	sent, err := store.GetSent(ctx, "555")
	require.NoError(t, err)
	require.NotNil(t, sent)
	assert.Equal(t, work.StatusSent, sent.Status)
	assert.Equal(t, "2025-10-19T12:00:00Z", sent.SentAt)

	// The same entry on the next pass is neither written nor enqueued.
	writes := store.writes()
	require.NoError(t, newCheckTask(fetcher, store, nil, feedA).Execute(ctx))
	assert.Equal(t, writes, store.writes())
	assert.Empty(t, store.queued())
}

func TestDeliverEmptyQueue(t *testing.T) {
	notifier := &mockNotifier{}

	require.NoError(t, newDeliverTask(newMemStore(), notifier).Execute(context.Background()))

	notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestDeliverSendFailureIsNotRetried(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	require.NoError(t, store.SaveSnapshot(ctx, &work.Snapshot{ID: "555", Title: "Winter Light", ChangeReason: work.New}))
	require.NoError(t, store.Enqueue(ctx, "555"))

	notifier := &mockNotifier{}
	notifier.On("Send", mock.Anything, mock.Anything).Return(errFake).Once()

	require.NoError(t, newDeliverTask(store, notifier).Execute(ctx))

	sent, err := store.GetSent(ctx, "555")
	require.NoError(t, err)
	assert.Nil(t, sent, "failed send must not be recorded")
	assert.Empty(t, store.queued(), "failed send must not be re-enqueued")
}

func TestDeliverDropsWorkWithoutSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	require.NoError(t, store.Enqueue(ctx, "404"))

	notifier := &mockNotifier{}

	require.NoError(t, newDeliverTask(store, notifier).Execute(ctx))

	notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	assert.Empty(t, store.queued())
}

func TestDeliverDequeueFailure(t *testing.T) {
	store := newMemStore()
	store.failDequeue = true

	err := newDeliverTask(store, &mockNotifier{}).Execute(context.Background())
	assert.ErrorIs(t, err, errFake)
}

func TestCleanupTask(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	require.NoError(t, store.SaveSnapshot(ctx, &work.Snapshot{ID: "old", UpdatedAt: "2024-01-01"}))
	require.NoError(t, store.SaveSnapshot(ctx, &work.Snapshot{ID: "new", UpdatedAt: "2025-10-18"}))

	task := NewCleanupTask(store, 90*24*time.Hour)
	task.now = func() time.Time { return testNow }
	task.Start()
	require.NoError(t, task.Execute(ctx))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Snapshots)

	old, err := store.GetSnapshot(ctx, "old")
	require.NoError(t, err)
	assert.Nil(t, old)
}
