package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvergara/caresched-backend/internal/notifications"
	"github.com/mvergara/caresched-backend/pkg/logger"
	"github.com/mvergara/caresched-backend/pkg/metrics"
)

const notificationRetentionDays = 30

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// NotificationRetentionJobParams configure the retention sweep.
type NotificationRetentionJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository notifications.Repository
	Signals    notifications.Signaler
	Metrics    *metrics.CronJobMetrics
	Retention  int
}

// NewNotificationRetentionJob builds the job that removes notifications older
// than the retention window, read or not.
func NewNotificationRetentionJob(params NotificationRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = notificationRetentionDays
	}
	return &notificationRetentionJob{
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Repository,
		signals:   params.Signals,
		metrics:   params.Metrics,
		retention: retention,
		now:       time.Now,
	}, nil
}

type notificationRetentionJob struct {
	logg      *logger.Logger
	db        txRunner
	repo      notifications.Repository
	signals   notifications.Signaler
	metrics   *metrics.CronJobMetrics
	retention int
	now       func() time.Time
}

func (j *notificationRetentionJob) Name() string { return "notification-retention" }

// Run deletes in one transaction so a failed sweep leaves everything in place
// for the next cycle. Rows that outlive the window by up to a day are
// expected; the cadence bounds the drift.
func (j *notificationRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	var (
		deleted    int64
		recipients []uuid.UUID
	)
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, touched, err := j.repo.WithTx(tx).DeleteOlderThan(ctx, cutoff)
		if err != nil {
			return err
		}
		deleted = rows
		recipients = touched
		return nil
	})
	if err != nil {
		return fmt.Errorf("notification retention: %w", err)
	}

	if j.metrics != nil {
		j.metrics.AddSweptRows(j.Name(), deleted)
	}

	// Swept recipients get a fresh snapshot so open feeds drop the expired rows.
	if j.signals != nil {
		for _, recipient := range recipients {
			if sigErr := j.signals.SignalChanged(ctx, recipient); sigErr != nil {
				logCtx := j.logg.WithField(ctx, "recipient_id", recipient.String())
				j.logg.Warn(logCtx, "failed to signal swept recipient")
			}
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
		"recipients":     len(recipients),
	})
	j.logg.Info(logCtx, "notification retention sweep complete")
	return nil
}
