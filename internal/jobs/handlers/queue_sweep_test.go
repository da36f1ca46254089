package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strangerpair/roulette-bot/internal/chat"
	"github.com/strangerpair/roulette-bot/internal/domain"
	"github.com/strangerpair/roulette-bot/internal/jobs"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeQueue struct {
	evicted    []int64
	evictErr   error
	usedCutoff time.Time
}

func (q *fakeQueue) Remove(ctx context.Context, userID int64) (bool, error) { return false, nil }
func (q *fakeQueue) Contains(ctx context.Context, userID int64) (bool, error) {
	return false, nil
}
func (q *fakeQueue) List(ctx context.Context) ([]domain.QueueEntry, error) { return nil, nil }

func (q *fakeQueue) EvictOlderThan(ctx context.Context, cutoff time.Time) ([]int64, error) {
	q.usedCutoff = cutoff
	return q.evicted, q.evictErr
}

type expiryNotifier struct {
	expired   []int64
	notifyErr error
}

func (n *expiryNotifier) MatchFound(ctx context.Context, userID int64) error      { return nil }
func (n *expiryNotifier) Searching(ctx context.Context, userID int64) error       { return nil }
func (n *expiryNotifier) SearchCancelled(ctx context.Context, userID int64) error { return nil }
func (n *expiryNotifier) ChatEnded(ctx context.Context, userID int64) error       { return nil }
func (n *expiryNotifier) PartnerLeft(ctx context.Context, userID int64) error     { return nil }
func (n *expiryNotifier) Broadcast(ctx context.Context, userID int64, text string) error {
	return nil
}
func (n *expiryNotifier) Relay(ctx context.Context, toID int64, payload chat.Payload) error {
	return nil
}

func (n *expiryNotifier) SearchExpired(ctx context.Context, userID int64) error {
	n.expired = append(n.expired, userID)
	return n.notifyErr
}

func TestQueueSweep_NotifiesEvictedUsers(t *testing.T) {
	queue := &fakeQueue{evicted: []int64{7, 8}}
	notifier := &expiryNotifier{}
	handler := NewQueueSweepHandler(queue, notifier, testLogger())

	task, err := jobs.NewQueueSweepTask(10 * time.Minute)
	require.NoError(t, err)

	require.NoError(t, handler.ProcessTask(context.Background(), task))
	assert.Equal(t, []int64{7, 8}, notifier.expired)
	assert.WithinDuration(t, time.Now().UTC().Add(-10*time.Minute), queue.usedCutoff, 5*time.Second)
}

func TestQueueSweep_ZeroTTLIsNoop(t *testing.T) {
	queue := &fakeQueue{evicted: []int64{7}}
	notifier := &expiryNotifier{}
	handler := NewQueueSweepHandler(queue, notifier, testLogger())

	task, err := jobs.NewQueueSweepTask(0)
	require.NoError(t, err)

	require.NoError(t, handler.ProcessTask(context.Background(), task))
	assert.Empty(t, notifier.expired)
	assert.True(t, queue.usedCutoff.IsZero())
}

func TestQueueSweep_EvictionErrorIsReturned(t *testing.T) {
	queue := &fakeQueue{evictErr: errors.New("db down")}
	handler := NewQueueSweepHandler(queue, &expiryNotifier{}, testLogger())

	task, err := jobs.NewQueueSweepTask(time.Minute)
	require.NoError(t, err)

	assert.Error(t, handler.ProcessTask(context.Background(), task))
}

func TestQueueSweep_NotifyFailureDoesNotAbort(t *testing.T) {
	queue := &fakeQueue{evicted: []int64{1, 2, 3}}
	notifier := &expiryNotifier{notifyErr: errors.New("chat gone")}
	handler := NewQueueSweepHandler(queue, notifier, testLogger())

	task, err := jobs.NewQueueSweepTask(time.Minute)
	require.NoError(t, err)

	require.NoError(t, handler.ProcessTask(context.Background(), task))
	assert.Len(t, notifier.expired, 3)
}

func TestQueueSweep_BadPayload(t *testing.T) {
	handler := NewQueueSweepHandler(&fakeQueue{}, &expiryNotifier{}, testLogger())
	task := asynq.NewTask(jobs.TaskTypeQueueSweep, []byte("{not json"))

	assert.Error(t, handler.ProcessTask(context.Background(), task))
}

type countingSweeper struct {
	removed int
	maxAge  time.Duration
}

func (s *countingSweeper) Cleanup(maxAge time.Duration) int {
	s.maxAge = maxAge
	return s.removed
}

func TestLimiterCleanup_SumsAcrossSweepers(t *testing.T) {
	first := &countingSweeper{removed: 2}
	second := &countingSweeper{removed: 5}
	handler := NewLimiterCleanupHandler(testLogger(), first, nil, second)

	task, err := jobs.NewLimiterCleanupTask(30 * time.Minute)
	require.NoError(t, err)

	require.NoError(t, handler.ProcessTask(context.Background(), task))
	assert.Equal(t, 30*time.Minute, first.maxAge)
	assert.Equal(t, 30*time.Minute, second.maxAge)
}
