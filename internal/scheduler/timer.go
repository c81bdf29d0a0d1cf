package scheduler

import (
	"context"
	"time"

	"prospect_backend/internal/events"
	"prospect_backend/platform/logger"

	"github.com/google/uuid"
)

// TimerScheduler is the in-process fallback used when no Redis is
// configured. The delay survives navigation but not a restart, which is
// acceptable for single-node deployments.
type TimerScheduler struct {
	bus events.Bus
	log *logger.Logger
}

func NewTimerScheduler(bus events.Bus, log *logger.Logger) *TimerScheduler {
	return &TimerScheduler{bus: bus, log: log}
}

// ScheduleEnrichmentReread fires the due event after the delay. The
// request context is deliberately not carried into the timer: the
// re-read happens whether or not the caller is still around.
func (t *TimerScheduler) ScheduleEnrichmentReread(_ context.Context, payload EnrichmentRereadPayload, delay time.Duration) error {
	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		return err
	}

	time.AfterFunc(delay, func() {
		if err := t.bus.PublishSync(context.Background(), events.EnrichmentRereadDue{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    leadID,
			UserID:    userID,
		}); err != nil {
			t.log.Warn("in-process reread dispatch failed", "leadId", payload.LeadID, "error", err)
		}
	})
	return nil
}
