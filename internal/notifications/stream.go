package notifications

import (
	"context"

	"github.com/google/uuid"

	"github.com/mvergara/caresched-backend/pkg/db/models"
	pkgerrors "github.com/mvergara/caresched-backend/pkg/errors"
	"github.com/mvergara/caresched-backend/pkg/logger"
)

// snapshotItemLimit bounds how many recent rows ride along with each snapshot.
const snapshotItemLimit = 50

// Snapshot is the full current view of one recipient's notification set.
// Subscribers replace their previous state with it; snapshots are never deltas.
type Snapshot struct {
	UnreadCount int64                 `json:"unreadCount"`
	Items       []models.Notification `json:"items"`
	Alert       *Alert                `json:"alert,omitempty"`
}

// Alert summarizes the newest unread item when the count rose since the
// previous snapshot. Clients render it as a best-effort desktop notification.
type Alert struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

const alertFallbackTitle = "Notification"

type changeListener interface {
	Listen(ctx context.Context, recipientID uuid.UUID) (<-chan struct{}, func(), error)
}

// Broker turns change signals into per-subscriber snapshot streams.
type Broker struct {
	svc  Service
	bus  changeListener
	logg *logger.Logger
}

// Subscription delivers snapshots for one recipient until closed.
type Subscription struct {
	C      <-chan Snapshot
	cancel context.CancelFunc
}

// Close tears the subscription down. Safe to call more than once.
func (s *Subscription) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

// NewBroker wires the live snapshot broker.
func NewBroker(svc Service, bus changeListener, logg *logger.Logger) (*Broker, error) {
	if svc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications service required")
	}
	if bus == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "change bus required")
	}
	return &Broker{svc: svc, bus: bus, logg: logg}, nil
}

// Subscribe opens a snapshot stream for the recipient. The first snapshot is
// delivered immediately and never carries an alert; later snapshots set Alert
// only when the unread count rose since the previous snapshot. Delivery is
// latest-wins: a slow consumer skips intermediate snapshots instead of
// stalling the stream.
func (b *Broker) Subscribe(ctx context.Context, recipientID uuid.UUID) (*Subscription, error) {
	if recipientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}

	streamCtx, cancel := context.WithCancel(ctx)

	// Listen before the initial snapshot so a write landing in between still
	// produces a tick.
	ticks, stop, err := b.bus.Listen(streamCtx, recipientID)
	if err != nil {
		cancel()
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "subscribe to change feed")
	}

	out := make(chan Snapshot, 1)
	go b.run(streamCtx, recipientID, ticks, stop, out)

	return &Subscription{C: out, cancel: cancel}, nil
}

func (b *Broker) run(ctx context.Context, recipientID uuid.UUID, ticks <-chan struct{}, stop func(), out chan Snapshot) {
	defer close(out)
	defer stop()

	// lastCount stays at the no-previous-snapshot sentinel until a snapshot
	// has actually been delivered. If the initial build fails, the first
	// snapshot a subscriber sees arrives on a later tick and must still be
	// treated as initial, so it never carries an alert.
	lastCount := int64(-1)
	if snap, err := b.buildSnapshot(ctx, recipientID, lastCount); err == nil {
		lastCount = snap.UnreadCount
		deliver(out, snap)
	} else {
		b.logError(ctx, recipientID, "initial notification snapshot failed", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ticks:
			if !ok {
				return
			}
			snap, err := b.buildSnapshot(ctx, recipientID, lastCount)
			if err != nil {
				b.logError(ctx, recipientID, "notification snapshot failed", err)
				continue
			}
			lastCount = snap.UnreadCount
			deliver(out, snap)
		}
	}
}

// buildSnapshot queries the current state. prevCount < 0 means there is no
// previous snapshot, so the alert stays off regardless of the count.
func (b *Broker) buildSnapshot(ctx context.Context, recipientID uuid.UUID, prevCount int64) (Snapshot, error) {
	count, err := b.svc.UnreadCount(ctx, recipientID)
	if err != nil {
		return Snapshot{}, err
	}
	list, err := b.svc.List(ctx, ListParams{RecipientID: recipientID, Limit: snapshotItemLimit})
	if err != nil {
		return Snapshot{}, err
	}
	items := list.Items
	if items == nil {
		items = []models.Notification{}
	}
	snap := Snapshot{
		UnreadCount: count,
		Items:       items,
	}
	if prevCount >= 0 && count > prevCount {
		snap.Alert = newestUnreadAlert(items)
	}
	return snap, nil
}

// newestUnreadAlert summarizes the most recently added unread item. Items
// arrive newest-first, so the first unread row is the one to surface.
func newestUnreadAlert(items []models.Notification) *Alert {
	for _, item := range items {
		if item.Read {
			continue
		}
		title := item.Title
		if title == "" {
			title = alertFallbackTitle
		}
		return &Alert{Title: title, Message: item.Message}
	}
	return &Alert{Title: alertFallbackTitle}
}

func deliver(out chan Snapshot, snap Snapshot) {
	select {
	case out <- snap:
	default:
		// Drop the undelivered snapshot; the new one supersedes it.
		select {
		case <-out:
		default:
		}
		select {
		case out <- snap:
		default:
		}
	}
}

func (b *Broker) logError(ctx context.Context, recipientID uuid.UUID, msg string, err error) {
	if b.logg == nil {
		return
	}
	logCtx := b.logg.WithField(ctx, "recipient_id", recipientID.String())
	b.logg.Error(logCtx, msg, err)
}
