package transport

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"prospect_backend/internal/cockpit/queue"
	"prospect_backend/internal/cockpit/session"
	"prospect_backend/internal/leads/domain"
)

func TestToQueueResponseShipsHiddenColdTasks(t *testing.T) {
	now := time.Now()
	tasks := make([]domain.Task, 0, 11)
	for i := 0; i < 11; i++ {
		tasks = append(tasks, domain.Task{
			ID:        uuid.New(),
			CreatedAt: now.Add(time.Duration(i) * time.Minute),
			Lead:      domain.Lead{ID: uuid.New(), CadenceStage: domain.StageG1},
		})
	}

	view := session.View{Snapshot: queue.Snapshot{
		Buckets:      queue.Build(tasks),
		PendingTotal: len(tasks),
	}}

	resp := ToQueueResponse(view, now)

	var cold *BucketResponse
	for i := range resp.Buckets {
		if resp.Buckets[i].ID == domain.BucketCold {
			cold = &resp.Buckets[i]
		}
	}
	if cold == nil {
		t.Fatalf("expected a cold bucket in the response")
	}
	if cold.Count != 11 || cold.HiddenCount != 3 {
		t.Fatalf("expected count 11 hidden 3, got count %d hidden %d", cold.Count, cold.HiddenCount)
	}
	if len(cold.Tasks) != 11 {
		t.Fatalf("expected all 11 tasks on the wire, got %d", len(cold.Tasks))
	}
}
