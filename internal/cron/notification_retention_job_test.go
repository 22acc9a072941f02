package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvergara/caresched-backend/internal/notifications"
	"github.com/mvergara/caresched-backend/pkg/logger"
)

// fakeNotificationRepo embeds the interface so only the methods the job
// touches need implementations.
type fakeNotificationRepo struct {
	notifications.Repository

	lastCutoff  time.Time
	deletedRows int64
	recipients  []uuid.UUID
	err         error
	called      int
}

func (f *fakeNotificationRepo) WithTx(tx *gorm.DB) notifications.Repository {
	return f
}

func (f *fakeNotificationRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, []uuid.UUID, error) {
	f.called++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, nil, f.err
	}
	return f.deletedRows, f.recipients, nil
}

type retentionFakeTxRunner struct{}

func (retentionFakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type recordingSignaler struct {
	signaled []uuid.UUID
}

func (r *recordingSignaler) SignalChanged(ctx context.Context, recipientID uuid.UUID) error {
	r.signaled = append(r.signaled, recipientID)
	return nil
}

func newRetentionJob(t *testing.T, repo *fakeNotificationRepo, signals notifications.Signaler) *notificationRetentionJob {
	t.Helper()
	jobIface, err := NewNotificationRetentionJob(NotificationRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		DB:         retentionFakeTxRunner{},
		Repository: repo,
		Signals:    signals,
	})
	if err != nil {
		t.Fatalf("NewNotificationRetentionJob: %v", err)
	}
	job, ok := jobIface.(*notificationRetentionJob)
	if !ok {
		t.Fatalf("expected notificationRetentionJob, got %T", jobIface)
	}
	return job
}

func TestNotificationRetentionJobSweepsExpiredRows(t *testing.T) {
	now := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	first := uuid.New()
	second := uuid.New()
	repo := &fakeNotificationRepo{deletedRows: 42, recipients: []uuid.UUID{first, second}}
	signals := &recordingSignaler{}
	job := newRetentionJob(t, repo, signals)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	expectedCutoff := now.UTC().Add(-notificationRetentionDays * 24 * time.Hour)
	if !repo.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s, got %s", expectedCutoff, repo.lastCutoff)
	}
	if repo.called != 1 {
		t.Fatalf("expected repo called once, got %d", repo.called)
	}
	if len(signals.signaled) != 2 {
		t.Fatalf("expected both recipients signaled, got %v", signals.signaled)
	}
}

func TestNotificationRetentionJobPropagatesErrors(t *testing.T) {
	repo := &fakeNotificationRepo{err: errors.New("boom")}
	job := newRetentionJob(t, repo, nil)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
