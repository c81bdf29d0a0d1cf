package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"prospect_backend/internal/events"
	"prospect_backend/internal/leads/domain"
	"prospect_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	pendingTasks []domain.Task
	doneToday    int
	pendingCount int
	leads        map[uuid.UUID]domain.Lead

	listErr     error
	completeErr error
	statusErr   error

	listCalls     int
	completeCalls int
	onComplete    func(taskID uuid.UUID)
	statusWrites  map[uuid.UUID]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		leads:        make(map[uuid.UUID]domain.Lead),
		statusWrites: make(map[uuid.UUID]string),
	}
}

func (f *fakeStore) ListPendingTasks(context.Context) ([]domain.Task, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.Task, len(f.pendingTasks))
	copy(out, f.pendingTasks)
	return out, nil
}

func (f *fakeStore) CompleteTask(_ context.Context, taskID uuid.UUID) error {
	f.completeCalls++
	if f.onComplete != nil {
		f.onComplete(taskID)
	}
	return f.completeErr
}

func (f *fakeStore) CountCompletedToday(context.Context, time.Time) (int, error) {
	if f.listErr != nil {
		return 0, f.listErr
	}
	return f.doneToday, nil
}

func (f *fakeStore) CountPending(context.Context) (int, error) {
	if f.listErr != nil {
		return 0, f.listErr
	}
	return f.pendingCount, nil
}

func (f *fakeStore) UpdatePipelineStatus(_ context.Context, leadID uuid.UUID, code string) error {
	if f.statusErr != nil {
		return f.statusErr
	}
	f.statusWrites[leadID] = code
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, leadID uuid.UUID) (domain.Lead, error) {
	lead, ok := f.leads[leadID]
	if !ok {
		return domain.Lead{}, errors.New("lead not found")
	}
	return lead, nil
}

func (f *fakeStore) ListLeads(context.Context) ([]domain.Lead, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.Lead, 0, len(f.leads))
	for _, lead := range f.leads {
		out = append(out, lead)
	}
	return out, nil
}

type capturingBus struct {
	published []events.Event
}

func (b *capturingBus) Publish(_ context.Context, e events.Event) {
	b.published = append(b.published, e)
}

func (b *capturingBus) PublishSync(_ context.Context, e events.Event) error {
	b.published = append(b.published, e)
	return nil
}

func (b *capturingBus) Subscribe(string, events.Handler) {}

func hotTask() domain.Task {
	return domain.Task{
		ID:        uuid.New(),
		LeadID:    uuid.New(),
		Status:    domain.TaskPending,
		CreatedAt: time.Now(),
		Lead:      domain.Lead{ID: uuid.New(), CadenceStage: domain.StageG5},
	}
}

func totalTasks(v View) int {
	total := 0
	for _, b := range v.Buckets {
		total += len(b.Tasks)
	}
	return total
}

func containsTask(v View, taskID uuid.UUID) bool {
	for _, b := range v.Buckets {
		for _, task := range b.Tasks {
			if task.ID == taskID {
				return true
			}
		}
	}
	return false
}

func newManager(store *fakeStore) *Manager {
	return NewManager(store, logger.New("development"))
}

func TestCompleteOptimisticStepHappensBeforeConfirm(t *testing.T) {
	store := newFakeStore()
	task := hotTask()
	store.pendingTasks = []domain.Task{task}
	store.pendingCount = 1

	m := newManager(store)
	userID := uuid.New()

	if _, err := m.Queues(context.Background(), userID); err != nil {
		t.Fatalf("initial fetch failed: %v", err)
	}

	var seenAtConfirm View
	store.onComplete = func(uuid.UUID) {
		s := m.session(userID)
		s.mu.Lock()
		seenAtConfirm = s.view(false)
		s.mu.Unlock()
	}

	result, err := m.Complete(context.Background(), userID, task.ID)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if result.Outcome != OutcomeConfirmed {
		t.Fatalf("expected confirmed, got %q", result.Outcome)
	}

	if containsTask(seenAtConfirm, task.ID) {
		t.Fatalf("task still in snapshot when the store call started")
	}
	if seenAtConfirm.DoneToday != 1 {
		t.Fatalf("done counter not incremented before confirm: %d", seenAtConfirm.DoneToday)
	}
	if store.completeCalls != 1 {
		t.Fatalf("expected exactly one store write, got %d", store.completeCalls)
	}
}

func TestCompleteDuplicateClickIsSuppressed(t *testing.T) {
	store := newFakeStore()
	task := hotTask()
	store.pendingTasks = []domain.Task{task}
	store.pendingCount = 1

	m := newManager(store)
	userID := uuid.New()
	_, _ = m.Queues(context.Background(), userID)

	first, err := m.Complete(context.Background(), userID, task.ID)
	if err != nil || first.Outcome != OutcomeConfirmed {
		t.Fatalf("first complete: outcome=%q err=%v", first.Outcome, err)
	}

	second, err := m.Complete(context.Background(), userID, task.ID)
	if err != nil {
		t.Fatalf("duplicate complete errored: %v", err)
	}
	if second.Outcome != OutcomeDuplicate {
		t.Fatalf("expected duplicate, got %q", second.Outcome)
	}
	if second.View.DoneToday != 1 {
		t.Fatalf("duplicate click moved the counter: done=%d", second.View.DoneToday)
	}
	if store.completeCalls != 1 {
		t.Fatalf("duplicate click reached the store: %d calls", store.completeCalls)
	}
}

func TestCompleteWhileInFlightIsSuppressed(t *testing.T) {
	store := newFakeStore()
	task := hotTask()
	store.pendingTasks = []domain.Task{task}
	store.pendingCount = 1

	m := newManager(store)
	userID := uuid.New()
	_, _ = m.Queues(context.Background(), userID)

	var nested CompleteResult
	store.onComplete = func(uuid.UUID) {
		// A second click arriving while the first confirmation is in
		// flight must be suppressed by the in-flight set.
		store.onComplete = nil
		nested, _ = m.Complete(context.Background(), userID, task.ID)
	}

	result, err := m.Complete(context.Background(), userID, task.ID)
	if err != nil || result.Outcome != OutcomeConfirmed {
		t.Fatalf("outer complete: outcome=%q err=%v", result.Outcome, err)
	}
	if nested.Outcome != OutcomeDuplicate {
		t.Fatalf("in-flight duplicate not suppressed: %q", nested.Outcome)
	}
	if store.completeCalls != 1 {
		t.Fatalf("expected one store write, got %d", store.completeCalls)
	}
}

func TestCompleteFailureResyncsToServerTruth(t *testing.T) {
	store := newFakeStore()
	task := hotTask()
	other := hotTask()
	store.pendingTasks = []domain.Task{task, other}
	store.pendingCount = 2

	m := newManager(store)
	userID := uuid.New()
	_, _ = m.Queues(context.Background(), userID)

	// The write fails and the server still reports the task pending.
	store.completeErr = errors.New("connection reset")

	result, err := m.Complete(context.Background(), userID, task.ID)
	if err != nil {
		t.Fatalf("resync path must not error when resync succeeds: %v", err)
	}
	if result.Outcome != OutcomeResynced {
		t.Fatalf("expected resynced, got %q", result.Outcome)
	}
	if !containsTask(result.View, task.ID) || !containsTask(result.View, other.ID) {
		t.Fatalf("resync must restore exactly the server-reported pending set")
	}
	if totalTasks(result.View) != 2 {
		t.Fatalf("locally-invented tasks after resync: %d", totalTasks(result.View))
	}
	if result.View.DoneToday != store.doneToday {
		t.Fatalf("done counter not restored from server: %d", result.View.DoneToday)
	}
}

func TestCompleteFailureKeepsTaskGoneWhenWriteActuallyLanded(t *testing.T) {
	store := newFakeStore()
	task := hotTask()
	store.pendingTasks = []domain.Task{task}
	store.pendingCount = 1

	m := newManager(store)
	userID := uuid.New()
	_, _ = m.Queues(context.Background(), userID)

	// Confirmation response was lost but the write landed: the server no
	// longer reports the task.
	store.completeErr = errors.New("timeout awaiting response")
	store.onComplete = func(uuid.UUID) {
		store.pendingTasks = nil
		store.pendingCount = 0
		store.doneToday = 1
	}

	result, err := m.Complete(context.Background(), userID, task.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if containsTask(result.View, task.ID) {
		t.Fatalf("task reappeared although the write succeeded")
	}
	if result.View.DoneToday != 1 {
		t.Fatalf("expected server-reported done=1, got %d", result.View.DoneToday)
	}
}

func TestCompleteResyncFailureKeepsOptimisticViewAndErrors(t *testing.T) {
	store := newFakeStore()
	task := hotTask()
	store.pendingTasks = []domain.Task{task}
	store.pendingCount = 1

	m := newManager(store)
	userID := uuid.New()
	_, _ = m.Queues(context.Background(), userID)

	store.completeErr = errors.New("connection reset")
	store.onComplete = func(uuid.UUID) {
		store.listErr = errors.New("store unreachable")
	}

	result, err := m.Complete(context.Background(), userID, task.ID)
	if err == nil {
		t.Fatalf("expected an error when both write and resync fail")
	}
	if !result.View.Stale {
		t.Fatalf("surviving snapshot must be marked stale")
	}
	if containsTask(result.View, task.ID) {
		t.Fatalf("optimistic removal must stick until a resync says otherwise")
	}
}

func TestQueuesServesPriorSnapshotOnFetchFailure(t *testing.T) {
	store := newFakeStore()
	task := hotTask()
	store.pendingTasks = []domain.Task{task}
	store.pendingCount = 1

	m := newManager(store)
	userID := uuid.New()

	first, err := m.Queues(context.Background(), userID)
	if err != nil {
		t.Fatalf("initial fetch: %v", err)
	}
	if first.Stale {
		t.Fatalf("fresh fetch marked stale")
	}

	store.listErr = errors.New("store unreachable")
	second, err := m.Queues(context.Background(), userID)
	if err != nil {
		t.Fatalf("refresh failure must not blank the view: %v", err)
	}
	if !second.Stale {
		t.Fatalf("stale snapshot not flagged")
	}
	if !containsTask(second, task.ID) {
		t.Fatalf("prior data lost on failed refresh")
	}
}

func TestQueuesRefreshFiltersInFlightCompletions(t *testing.T) {
	store := newFakeStore()
	task := hotTask()
	store.pendingTasks = []domain.Task{task}
	store.pendingCount = 1

	m := newManager(store)
	userID := uuid.New()
	_, _ = m.Queues(context.Background(), userID)

	var refreshed View
	store.onComplete = func(uuid.UUID) {
		// A live-update refetch lands while the confirmation is still in
		// flight; the completed task must not resurface.
		refreshed, _ = m.Queues(context.Background(), userID)
	}

	if _, err := m.Complete(context.Background(), userID, task.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if containsTask(refreshed, task.ID) {
		t.Fatalf("in-flight completion resurfaced in a concurrent refresh")
	}
}

func TestSetStatusUnknownLabelRejected(t *testing.T) {
	m := newManager(newFakeStore())
	_, err := m.SetStatus(context.Background(), uuid.New(), uuid.New(), "On Fire")
	if err == nil {
		t.Fatalf("unknown label must be rejected")
	}
}

func TestSetStatusAppliesOptimisticallyAndPersists(t *testing.T) {
	store := newFakeStore()
	leadID := uuid.New()
	store.leads[leadID] = domain.Lead{ID: leadID, PipelineStatus: domain.StatusProspecting}

	m := newManager(store)
	bus := &capturingBus{}
	m.SetBus(bus)
	userID := uuid.New()

	if _, _, err := m.Focus(context.Background(), userID, leadID); err != nil {
		t.Fatalf("focus: %v", err)
	}

	result, err := m.SetStatus(context.Background(), userID, leadID, "Qualified")
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if !result.Persisted || result.StatusCode != domain.StatusQualified {
		t.Fatalf("unexpected result: %+v", result)
	}
	if store.statusWrites[leadID] != domain.StatusQualified {
		t.Fatalf("status not persisted")
	}

	s := m.session(userID)
	s.mu.Lock()
	cached := s.leads[leadID].PipelineStatus
	s.mu.Unlock()
	if cached != domain.StatusQualified {
		t.Fatalf("cached row not patched: %q", cached)
	}

	if len(bus.published) != 1 {
		t.Fatalf("expected one event, got %d", len(bus.published))
	}
	if _, ok := bus.published[0].(events.LeadStatusChanged); !ok {
		t.Fatalf("expected LeadStatusChanged, got %T", bus.published[0])
	}
}

func TestSetStatusFailureKeepsOptimisticValueAndNotifies(t *testing.T) {
	store := newFakeStore()
	leadID := uuid.New()
	store.leads[leadID] = domain.Lead{ID: leadID, PipelineStatus: domain.StatusProspecting}

	m := newManager(store)
	bus := &capturingBus{}
	m.SetBus(bus)
	userID := uuid.New()
	_, _, _ = m.Focus(context.Background(), userID, leadID)

	store.statusErr = errors.New("connection reset")

	result, err := m.SetStatus(context.Background(), userID, leadID, "Customer")
	if err != nil {
		t.Fatalf("status persist failure must not surface as an error: %v", err)
	}
	if result.Persisted {
		t.Fatalf("persist reported despite failure")
	}

	// Asymmetry with task completion: no rollback, the optimistic value
	// stays in place.
	s := m.session(userID)
	s.mu.Lock()
	cached := s.leads[leadID].PipelineStatus
	s.mu.Unlock()
	if cached != domain.StatusCustomer {
		t.Fatalf("optimistic status rolled back: %q", cached)
	}

	if len(bus.published) != 1 {
		t.Fatalf("expected one event, got %d", len(bus.published))
	}
	if _, ok := bus.published[0].(events.LeadStatusPersistFailed); !ok {
		t.Fatalf("expected LeadStatusPersistFailed, got %T", bus.published[0])
	}
}

func TestMergeAnnotationsSupersedesProvisionalDraft(t *testing.T) {
	store := newFakeStore()
	leadID := uuid.New()
	store.leads[leadID] = domain.Lead{ID: leadID}

	m := newManager(store)
	userID := uuid.New()
	_, _, _ = m.Focus(context.Background(), userID, leadID)

	m.SetProvisionalDraft(userID, leadID, "R1 provisional")
	m.MergeAnnotations(leadID, &domain.StrategicAnnotations{
		LastSignal:       "profile view",
		SuggestedMessage: "R2 authoritative",
		AnalyzedAt:       time.Now(),
	})

	draft, ok := m.Draft(userID, leadID)
	if !ok || draft != "R2 authoritative" {
		t.Fatalf("expected authoritative draft, got %q (ok=%v)", draft, ok)
	}

	s := m.session(userID)
	s.mu.Lock()
	ann := s.leads[leadID].Annotations
	s.mu.Unlock()
	if ann == nil || ann.SuggestedMessage != "R2 authoritative" {
		t.Fatalf("annotation bundle not merged into the cache")
	}
}

func TestMergeAnnotationsDoesNotRetargetFocus(t *testing.T) {
	store := newFakeStore()
	leadA := uuid.New()
	leadB := uuid.New()
	store.leads[leadA] = domain.Lead{ID: leadA}
	store.leads[leadB] = domain.Lead{ID: leadB}

	m := newManager(store)
	userID := uuid.New()
	_, _, _ = m.Focus(context.Background(), userID, leadA)
	m.SetProvisionalDraft(userID, leadA, "draft A")

	// User navigates to another lead before the delayed read fires.
	_, _, _ = m.Focus(context.Background(), userID, leadB)
	m.MergeAnnotations(leadA, &domain.StrategicAnnotations{SuggestedMessage: "fresh A", AnalyzedAt: time.Now()})

	if got := m.FocusedLead(userID); got != leadB {
		t.Fatalf("delayed merge retargeted focus to %s", got)
	}
	if draft, _ := m.Draft(userID, leadB); draft != "" {
		t.Fatalf("focused lead's draft was touched: %q", draft)
	}
	if draft, _ := m.Draft(userID, leadA); draft != "fresh A" {
		t.Fatalf("shared cache for the original lead not refreshed: %q", draft)
	}
}

func TestCompleteWithoutSnapshotReportsUnknownTask(t *testing.T) {
	store := newFakeStore()
	store.pendingTasks = []domain.Task{hotTask()}
	store.pendingCount = 1

	m := newManager(store)
	userID := uuid.New()

	// No queue fetch has happened, so the session cannot distinguish
	// tasks; it must not claim an earlier click won.
	result, err := m.Complete(context.Background(), userID, uuid.New())
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if result.Outcome != OutcomeUnknown {
		t.Fatalf("expected unknown, got %q", result.Outcome)
	}
	if store.completeCalls != 0 {
		t.Fatalf("store written for a task the session never saw: %d calls", store.completeCalls)
	}

	// Once a snapshot exists, an absent task means it was already
	// removed and stays a duplicate.
	if _, err := m.Queues(context.Background(), userID); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	result, err = m.Complete(context.Background(), userID, uuid.New())
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if result.Outcome != OutcomeDuplicate {
		t.Fatalf("expected duplicate, got %q", result.Outcome)
	}
	if store.completeCalls != 0 {
		t.Fatalf("store written for an absent task: %d calls", store.completeCalls)
	}
}
