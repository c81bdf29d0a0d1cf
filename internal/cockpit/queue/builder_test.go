package queue

import (
	"testing"
	"time"

	"prospect_backend/internal/leads/domain"

	"github.com/google/uuid"
)

func pendingTask(stage domain.CadenceStage, createdAt time.Time) domain.Task {
	return domain.Task{
		ID:        uuid.New(),
		LeadID:    uuid.New(),
		Status:    domain.TaskPending,
		CreatedAt: createdAt,
		Lead:      domain.Lead{ID: uuid.New(), CadenceStage: stage},
	}
}

func bucketByID(t *testing.T, buckets []Bucket, id domain.CadenceBucket) Bucket {
	t.Helper()
	for _, b := range buckets {
		if b.ID == id {
			return b
		}
	}
	t.Fatalf("bucket %q missing from view", id)
	return Bucket{}
}

func TestBuildPartitionsByCadenceBucket(t *testing.T) {
	now := time.Now()
	tasks := []domain.Task{
		pendingTask(domain.StageG5, now),
		pendingTask(domain.StageG2, now),
		pendingTask(domain.StageG1, now),
		pendingTask(domain.StageNone, now),
		pendingTask(domain.StageG4, now),
	}

	buckets := Build(tasks)
	if len(buckets) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(buckets))
	}

	if got := bucketByID(t, buckets, domain.BucketHot).Count; got != 2 {
		t.Fatalf("hot: expected 2 tasks, got %d", got)
	}
	if got := bucketByID(t, buckets, domain.BucketWarm).Count; got != 1 {
		t.Fatalf("warm: expected 1 task, got %d", got)
	}
	if got := bucketByID(t, buckets, domain.BucketCold).Count; got != 2 {
		t.Fatalf("cold: expected 2 tasks, got %d", got)
	}
}

func TestBuildEmptyBucketsStayPresent(t *testing.T) {
	buckets := Build(nil)
	if len(buckets) != 3 {
		t.Fatalf("expected 3 buckets for empty input, got %d", len(buckets))
	}
	for _, b := range buckets {
		if b.Tasks == nil || b.Count != 0 || b.HiddenCount != 0 {
			t.Fatalf("bucket %q not empty-initialized: %+v", b.ID, b)
		}
	}
}

func TestBuildOldestFirstWithStableTies(t *testing.T) {
	base := time.Now()
	older := pendingTask(domain.StageG5, base.Add(-2*time.Hour))
	tieFirst := pendingTask(domain.StageG5, base)
	tieSecond := pendingTask(domain.StageG5, base)

	// Input deliberately newest-first to prove the builder re-orders.
	buckets := Build([]domain.Task{tieFirst, tieSecond, older})
	hot := bucketByID(t, buckets, domain.BucketHot)

	if hot.Tasks[0].ID != older.ID {
		t.Fatalf("expected oldest task first")
	}
	if hot.Tasks[1].ID != tieFirst.ID || hot.Tasks[2].ID != tieSecond.ID {
		t.Fatalf("equal timestamps must keep input order")
	}
}

func TestBuildColdVisibleWindow(t *testing.T) {
	now := time.Now()
	tasks := make([]domain.Task, 0, 11)
	for i := 0; i < 11; i++ {
		tasks = append(tasks, pendingTask(domain.StageG1, now.Add(time.Duration(i)*time.Minute)))
	}

	cold := bucketByID(t, Build(tasks), domain.BucketCold)
	if cold.Count != 11 {
		t.Fatalf("window must not truncate data: count=%d", cold.Count)
	}
	if cold.HiddenCount != 3 {
		t.Fatalf("expected 3 hidden tasks, got %d", cold.HiddenCount)
	}
	if got := len(cold.Visible()); got != 8 {
		t.Fatalf("expected 8 visible tasks, got %d", got)
	}
	if got := len(cold.Tasks); got != 11 {
		t.Fatalf("full set must remain available to the toggle, got %d", got)
	}
}

func TestBuildHotBucketHasNoWindow(t *testing.T) {
	now := time.Now()
	tasks := make([]domain.Task, 0, 12)
	for i := 0; i < 12; i++ {
		tasks = append(tasks, pendingTask(domain.StageG5, now))
	}

	hot := bucketByID(t, Build(tasks), domain.BucketHot)
	if hot.HiddenCount != 0 {
		t.Fatalf("hot bucket must not window, hidden=%d", hot.HiddenCount)
	}
	if len(hot.Visible()) != 12 {
		t.Fatalf("expected all 12 visible, got %d", len(hot.Visible()))
	}
}

func TestProgressPercent(t *testing.T) {
	cases := []struct {
		done, pending, want int
	}{
		{0, 0, 0},
		{0, 10, 0},
		{3, 7, 30},
		{10, 0, 100},
		{1, 2, 33},
	}
	for _, tc := range cases {
		v := Snapshot{DoneToday: tc.done, PendingTotal: tc.pending}
		if got := v.ProgressPercent(); got != tc.want {
			t.Fatalf("done=%d pending=%d: expected %d%%, got %d%%", tc.done, tc.pending, tc.want, got)
		}
	}
}

func TestBuildRadarSortsMostRecentlyActiveFirst(t *testing.T) {
	now := time.Now()
	recent := now.Add(-1 * time.Hour)
	stale := now.Add(-48 * time.Hour)

	quiet := domain.Lead{ID: uuid.New()}
	active := domain.Lead{ID: uuid.New(), LastInteractionAt: &recent, LastInteractionDirection: domain.DirectionInbound}
	dormant := domain.Lead{ID: uuid.New(), LastInteractionAt: &stale, LastInteractionDirection: domain.DirectionOutbound}

	entries := BuildRadar([]domain.Lead{quiet, dormant, active}, now)

	if entries[0].Lead.ID != active.ID || entries[1].Lead.ID != dormant.ID || entries[2].Lead.ID != quiet.ID {
		t.Fatalf("radar order wrong: %v", []uuid.UUID{entries[0].Lead.ID, entries[1].Lead.ID, entries[2].Lead.ID})
	}
	if entries[0].Bucket != domain.BucketToRespond {
		t.Fatalf("active inbound lead should be to-respond, got %q", entries[0].Bucket)
	}
}
