package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/mvergara/caresched-backend/pkg/enums"
	"github.com/mvergara/caresched-backend/pkg/logger"
	"github.com/mvergara/caresched-backend/pkg/outbox"
	"github.com/mvergara/caresched-backend/pkg/outbox/idempotency"
	"github.com/mvergara/caresched-backend/pkg/outbox/payloads"
)

const appointmentNotificationConsumer = "appointment-notifications"

// Consumer watches domain events and turns scheduled appointments into
// notifications for both participants.
type Consumer struct {
	svc          Service
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds an appointment notification consumer.
func NewConsumer(svc Service, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if svc == nil {
		return nil, fmt.Errorf("notifications service required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		svc:          svc,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventAppointmentCreated) {
		c.logg.Info(logCtx, "skipping non-appointment event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	// The marker is set before fan-out and rolled back on failure below.
	// A crash between the mark and the rollback leaves the marker behind
	// and the redelivery is acked as a duplicate, so delivery is
	// at-most-once across that window.
	already, err := c.idempotency.CheckAndMarkProcessed(ctx, appointmentNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	var payload payloads.AppointmentCreatedEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Delete(ctx, appointmentNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"appointment_id": payload.AppointmentID.String(),
		"doctor_id":      payload.DoctorID.String(),
		"patient_id":     payload.PatientID.String(),
	})

	if err := c.svc.NotifyAppointmentCreated(ctx, payload); err != nil {
		c.logg.Error(logCtx, "notification fan-out failed", err)
		_ = c.idempotency.Delete(ctx, appointmentNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "appointment participants notified")
	return processResult{ack: true}
}
