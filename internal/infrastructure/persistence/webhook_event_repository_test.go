package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thegridhub/backend/internal/domain/billing"
	"github.com/thegridhub/backend/internal/domain/shared"
)

func newTestWebhookEvent(t *testing.T, eventID string, createdAt time.Time) *billing.WebhookEvent {
	t.Helper()
	e, err := billing.NewWebhookEvent(eventID, "customer.subscription.updated", []byte(`{"id":"`+eventID+`"}`), createdAt)
	require.NoError(t, err)
	return e
}

func TestGormWebhookEventRepository_InsertIfAbsent(t *testing.T) {
	repo := NewGormWebhookEventRepository(newSQLiteDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	inserted, err := repo.InsertIfAbsent(ctx, newTestWebhookEvent(t, "evt_1", now))
	require.NoError(t, err)
	assert.True(t, inserted)

	// a redelivery carries a fresh row id but the same event id
	inserted, err = repo.InsertIfAbsent(ctx, newTestWebhookEvent(t, "evt_1", now))
	require.NoError(t, err)
	assert.False(t, inserted)

	stored, err := repo.FindByEventID(ctx, "evt_1")
	require.NoError(t, err)
	assert.Equal(t, billing.WebhookEventStatusPending, stored.Status)
	assert.JSONEq(t, `{"id":"evt_1"}`, string(stored.Payload))
}

func TestGormWebhookEventRepository_ConcurrentInsertSingleWinner(t *testing.T) {
	repo := NewGormWebhookEventRepository(newSQLiteDB(t))
	ctx := context.Background()

	const deliveries = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.InsertIfAbsent(ctx, newTestWebhookEvent(t, "evt_race", time.Now().UTC()))
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestGormWebhookEventRepository_UpdateOutcome(t *testing.T) {
	repo := NewGormWebhookEventRepository(newSQLiteDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	event := newTestWebhookEvent(t, "evt_2", now)
	_, err := repo.InsertIfAbsent(ctx, event)
	require.NoError(t, err)

	event.MarkFailed(now, errors.New("tenant id missing"))
	require.NoError(t, repo.UpdateOutcome(ctx, event))

	stored, err := repo.FindByEventID(ctx, "evt_2")
	require.NoError(t, err)
	assert.Equal(t, billing.WebhookEventStatusFailed, stored.Status)
	assert.Equal(t, "tenant id missing", stored.Error)
	assert.Equal(t, 1, stored.Attempts)
	require.NotNil(t, stored.ProcessedAt)

	event.MarkProcessed(now.Add(time.Minute))
	require.NoError(t, repo.UpdateOutcome(ctx, event))

	stored, err = repo.FindByEventID(ctx, "evt_2")
	require.NoError(t, err)
	assert.Equal(t, billing.WebhookEventStatusProcessed, stored.Status)
	assert.Empty(t, stored.Error)
	assert.Equal(t, 2, stored.Attempts)

	missing := newTestWebhookEvent(t, "evt_missing", now)
	assert.ErrorIs(t, repo.UpdateOutcome(ctx, missing), shared.ErrNotFound)
}

func TestGormWebhookEventRepository_FindByEventIDNotFound(t *testing.T) {
	repo := NewGormWebhookEventRepository(newSQLiteDB(t))

	_, err := repo.FindByEventID(context.Background(), "evt_nope")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormWebhookEventRepository_ListAndPurge(t *testing.T) {
	repo := NewGormWebhookEventRepository(newSQLiteDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		e := newTestWebhookEvent(t, fmt.Sprintf("evt_%d", i), now.Add(-time.Duration(i)*24*time.Hour))
		if i%2 == 0 {
			e.MarkProcessed(now)
		} else {
			e.MarkFailed(now, errors.New("boom"))
		}
		_, err := repo.InsertIfAbsent(ctx, e)
		require.NoError(t, err)
	}

	all, total, err := repo.List(ctx, billing.WebhookEventFilter{Filter: shared.Filter{Page: 1, PageSize: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, all, 2)
	assert.Equal(t, "evt_0", all[0].EventID, "newest first")

	failed, total, err := repo.List(ctx, billing.WebhookEventFilter{Status: billing.WebhookEventStatusFailed})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, e := range failed {
		assert.True(t, e.IsFailed())
	}

	deleted, err := repo.DeleteOlderThan(ctx, now.Add(-36*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	_, total, err = repo.List(ctx, billing.WebhookEventFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestGormWebhookEventRepository_InsertErrorPropagates(t *testing.T) {
	db, mock := newSQLMockDB(t)
	repo := NewGormWebhookEventRepository(db)

	mock.ExpectExec(`INSERT INTO "webhook_events"`).
		WillReturnError(errors.New("connection reset by peer"))

	_, err := repo.InsertIfAbsent(context.Background(), newTestWebhookEvent(t, "evt_err", time.Now()))
	require.Error(t, err)
	assert.NotErrorIs(t, err, shared.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormWebhookEventRepository_InsertUsesOnConflict(t *testing.T) {
	db, mock := newSQLMockDB(t)
	repo := NewGormWebhookEventRepository(db)

	mock.ExpectExec(`INSERT INTO "webhook_events" .* ON CONFLICT \("event_id"\) DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := repo.InsertIfAbsent(context.Background(), newTestWebhookEvent(t, "evt_dup", time.Now()))
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
