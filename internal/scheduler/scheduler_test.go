package scheduler

import (
	"context"
	"testing"
	"time"

	"prospect_backend/internal/events"
	"prospect_backend/platform/config"
	"prospect_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

func TestScheduleEnrichmentRereadEnqueuesDelayedTask(t *testing.T) {
	srv := miniredis.RunT(t)

	cfg := &config.Config{
		RedisURL:       "redis://" + srv.Addr(),
		AsynqQueueName: "prospect",
	}

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	payload := EnrichmentRereadPayload{
		LeadID: uuid.NewString(),
		UserID: uuid.NewString(),
	}
	if err := client.ScheduleEnrichmentReread(context.Background(), payload, 5*time.Second); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: srv.Addr()})
	defer func() {
		_ = inspector.Close()
	}()

	tasks, err := inspector.ListScheduledTasks("prospect")
	if err != nil {
		t.Fatalf("list scheduled: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 scheduled task, got %d", len(tasks))
	}
	if tasks[0].Type != TaskEnrichmentReread {
		t.Fatalf("unexpected task type %q", tasks[0].Type)
	}
	if tasks[0].MaxRetry != 0 {
		t.Fatalf("reread must not retry, max retry = %d", tasks[0].MaxRetry)
	}

	parsed, err := ParseEnrichmentRereadPayload(asynq.NewTask(tasks[0].Type, tasks[0].Payload))
	if err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	if parsed.LeadID != payload.LeadID || parsed.UserID != payload.UserID {
		t.Fatalf("payload mismatch: %+v", parsed)
	}
}

type recordingBus struct {
	due chan events.EnrichmentRereadDue
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	if due, ok := e.(events.EnrichmentRereadDue); ok {
		b.due <- due
	}
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func TestWorkerHandlerPublishesRereadDue(t *testing.T) {
	bus := &recordingBus{due: make(chan events.EnrichmentRereadDue, 1)}
	w := &Worker{bus: bus, log: logger.New("development")}

	leadID := uuid.New()
	userID := uuid.New()
	task, err := NewEnrichmentRereadTask(EnrichmentRereadPayload{
		LeadID: leadID.String(),
		UserID: userID.String(),
	})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}

	if err := w.handleEnrichmentReread(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}

	select {
	case due := <-bus.due:
		if due.LeadID != leadID || due.UserID != userID {
			t.Fatalf("event mismatch: %+v", due)
		}
	default:
		t.Fatalf("no event published")
	}
}

func TestTimerSchedulerFiresAfterDelay(t *testing.T) {
	bus := &recordingBus{due: make(chan events.EnrichmentRereadDue, 1)}
	timer := NewTimerScheduler(bus, logger.New("development"))

	payload := EnrichmentRereadPayload{LeadID: uuid.NewString(), UserID: uuid.NewString()}
	if err := timer.ScheduleEnrichmentReread(context.Background(), payload, 10*time.Millisecond); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	select {
	case due := <-bus.due:
		if due.LeadID.String() != payload.LeadID {
			t.Fatalf("wrong lead: %s", due.LeadID)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timer never fired")
	}
}
