package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mvergara/caresched-backend/pkg/db/models"
	"github.com/mvergara/caresched-backend/pkg/pagination"
)

func setupNotificationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  recipient_id TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  message TEXT NOT NULL,
  read INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedNotification(t *testing.T, db *gorm.DB, recipientID uuid.UUID, read bool, createdAt time.Time) models.Notification {
	t.Helper()

	row := models.Notification{
		ID:          uuid.New(),
		RecipientID: recipientID,
		Title:       "Appointment Set",
		Message:     "An appointment has been scheduled on 2026-03-14 at 09:30. Check your Appointments page for more details.",
		Read:        read,
		CreatedAt:   createdAt,
	}
	require.NoError(t, db.Create(&row).Error)
	return row
}

func TestRepository_CreateBatch(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	doctor := uuid.New()
	patient := uuid.New()
	rows := []*models.Notification{
		{ID: uuid.New(), RecipientID: doctor, Message: "m", CreatedAt: now},
		{ID: uuid.New(), RecipientID: patient, Message: "m", CreatedAt: now},
	}

	require.NoError(t, repo.CreateBatch(ctx, rows))

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestRepository_ListNewestFirstWithCursor(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	recipient := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)
	oldest := seedNotification(t, db, recipient, true, base.Add(-3*time.Hour))
	middle := seedNotification(t, db, recipient, false, base.Add(-2*time.Hour))
	newest := seedNotification(t, db, recipient, false, base.Add(-time.Hour))
	seedNotification(t, db, uuid.New(), false, base) // another recipient's row must not leak in

	rows, next, err := repo.List(ctx, listNotificationsParams{RecipientID: recipient, Limit: 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, newest.ID, rows[0].ID)
	assert.Equal(t, middle.ID, rows[1].ID)
	require.NotNil(t, next)

	rows, next, err = repo.List(ctx, listNotificationsParams{
		RecipientID: recipient,
		Limit:       2,
		Cursor:      &pagination.Cursor{CreatedAt: middle.CreatedAt, ID: middle.ID},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, oldest.ID, rows[0].ID)
	assert.Nil(t, next)
}

func TestRepository_ListUnreadOnly(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	recipient := uuid.New()
	base := time.Now().UTC()
	seedNotification(t, db, recipient, true, base.Add(-2*time.Hour))
	unread := seedNotification(t, db, recipient, false, base.Add(-time.Hour))

	rows, _, err := repo.List(ctx, listNotificationsParams{RecipientID: recipient, Limit: 10, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, unread.ID, rows[0].ID)
}

func TestRepository_SetReadBothDirections(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	recipient := uuid.New()
	row := seedNotification(t, db, recipient, false, time.Now().UTC())

	mark, err := repo.SetRead(ctx, recipient, row.ID, true)
	require.NoError(t, err)
	assert.True(t, mark.Found)
	assert.True(t, mark.Updated)

	// Repeating the same state is a no-op, not an error.
	mark, err = repo.SetRead(ctx, recipient, row.ID, true)
	require.NoError(t, err)
	assert.True(t, mark.Found)
	assert.False(t, mark.Updated)

	mark, err = repo.SetRead(ctx, recipient, row.ID, false)
	require.NoError(t, err)
	assert.True(t, mark.Found)
	assert.True(t, mark.Updated)

	var stored models.Notification
	require.NoError(t, db.First(&stored, "id = ?", row.ID).Error)
	assert.False(t, stored.Read)
}

func TestRepository_SetReadScopedToRecipient(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := uuid.New()
	row := seedNotification(t, db, owner, false, time.Now().UTC())

	mark, err := repo.SetRead(ctx, uuid.New(), row.ID, true)
	require.NoError(t, err)
	assert.False(t, mark.Found)
	assert.False(t, mark.Updated)

	var stored models.Notification
	require.NoError(t, db.First(&stored, "id = ?", row.ID).Error)
	assert.False(t, stored.Read)
}

func TestRepository_MarkAllReadAndUnreadCount(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	recipient := uuid.New()
	base := time.Now().UTC()
	seedNotification(t, db, recipient, false, base.Add(-2*time.Hour))
	seedNotification(t, db, recipient, false, base.Add(-time.Hour))
	seedNotification(t, db, recipient, true, base)

	count, err := repo.UnreadCount(ctx, recipient)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	updated, err := repo.MarkAllRead(ctx, recipient)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	count, err = repo.UnreadCount(ctx, recipient)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestRepository_DeleteOlderThan(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	first := uuid.New()
	second := uuid.New()
	cutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)

	seedNotification(t, db, first, true, cutoff.Add(-time.Hour))
	seedNotification(t, db, first, false, cutoff.Add(-2*time.Hour))
	seedNotification(t, db, second, false, cutoff.Add(-time.Minute))
	kept := seedNotification(t, db, first, false, cutoff.Add(time.Hour))

	deleted, recipients, err := repo.DeleteOlderThan(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.ElementsMatch(t, []uuid.UUID{first, second}, recipients)

	var remaining []models.Notification
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, kept.ID, remaining[0].ID)
}
