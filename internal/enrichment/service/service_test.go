package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"prospect_backend/internal/enrichment/client"
	"prospect_backend/internal/events"
	"prospect_backend/internal/leads/domain"
	"prospect_backend/internal/scheduler"
	"prospect_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRepo struct {
	lead         domain.Lead
	interactions []domain.Interaction
	annotations  *domain.StrategicAnnotations
	readErr      error
}

func (f *fakeRepo) GetByID(context.Context, uuid.UUID) (domain.Lead, error) {
	return f.lead, nil
}

func (f *fakeRepo) ListInteractions(context.Context, uuid.UUID) ([]domain.Interaction, error) {
	return f.interactions, nil
}

func (f *fakeRepo) ReadAnnotations(context.Context, uuid.UUID) (*domain.StrategicAnnotations, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.annotations, nil
}

type fakeSessions struct {
	drafts map[uuid.UUID]string
	merged *domain.StrategicAnnotations
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{drafts: make(map[uuid.UUID]string)}
}

func (f *fakeSessions) SetProvisionalDraft(_, leadID uuid.UUID, draft string) {
	f.drafts[leadID] = draft
}

func (f *fakeSessions) MergeAnnotations(_ uuid.UUID, ann *domain.StrategicAnnotations) {
	f.merged = ann
}

type fakeClient struct {
	lastReq client.DraftRequest
	resp    client.DraftResponse
	err     error
	calls   int
}

func (f *fakeClient) Enabled() bool { return true }

func (f *fakeClient) RequestDraft(_ context.Context, req client.DraftRequest) (client.DraftResponse, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return client.DraftResponse{}, f.err
	}
	return f.resp, nil
}

type fakeScheduler struct {
	payloads []scheduler.EnrichmentRereadPayload
	delays   []time.Duration
}

func (f *fakeScheduler) ScheduleEnrichmentReread(_ context.Context, payload scheduler.EnrichmentRereadPayload, delay time.Duration) error {
	f.payloads = append(f.payloads, payload)
	f.delays = append(f.delays, delay)
	return nil
}

type nullBus struct {
	published []events.Event
}

func (b *nullBus) Publish(_ context.Context, e events.Event) { b.published = append(b.published, e) }
func (b *nullBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}
func (b *nullBus) Subscribe(string, events.Handler) {}

func newService(repo *fakeRepo, sessions *fakeSessions, cli *fakeClient, sched *fakeScheduler, bus *nullBus) *Service {
	return New(repo, sessions, cli, sched, bus, logger.New("development"), 5*time.Second)
}

func TestGenerateIcebreakerForLeadWithoutHistory(t *testing.T) {
	leadID := uuid.New()
	repo := &fakeRepo{lead: domain.Lead{ID: leadID, FullName: "Ada Quinn", CadenceStage: domain.StageG1}}
	cli := &fakeClient{resp: client.DraftResponse{Reply: "Hi Ada"}}
	sched := &fakeScheduler{}
	sessions := newFakeSessions()

	svc := newService(repo, sessions, cli, sched, &nullBus{})

	result, err := svc.Generate(context.Background(), uuid.New(), leadID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !result.Icebreaker {
		t.Fatalf("lead without interactions must be flagged icebreaker")
	}
	if !cli.lastReq.Icebreaker {
		t.Fatalf("icebreaker flag not forwarded to the drafting service")
	}
	if len(cli.lastReq.History) != 0 {
		t.Fatalf("unexpected history for a fresh lead: %v", cli.lastReq.History)
	}
}

func TestGenerateSerializesHistoryChronologically(t *testing.T) {
	leadID := uuid.New()
	repo := &fakeRepo{
		lead: domain.Lead{ID: leadID},
		interactions: []domain.Interaction{
			{Direction: domain.DirectionOutbound, Content: "first touch"},
			{Direction: domain.DirectionInbound, Content: "sounds interesting"},
		},
	}
	cli := &fakeClient{resp: client.DraftResponse{Reply: "Great, when works?"}}
	svc := newService(repo, newFakeSessions(), cli, &fakeScheduler{}, &nullBus{})

	result, err := svc.Generate(context.Background(), uuid.New(), leadID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Icebreaker {
		t.Fatalf("lead with history flagged icebreaker")
	}

	want := []string{"[me] first touch", "[them] sounds interesting"}
	if len(cli.lastReq.History) != len(want) {
		t.Fatalf("history length: got %d, want %d", len(cli.lastReq.History), len(want))
	}
	for i := range want {
		if cli.lastReq.History[i] != want[i] {
			t.Fatalf("history[%d] = %q, want %q", i, cli.lastReq.History[i], want[i])
		}
	}
}

func TestGenerateHoldsProvisionalDraftAndSchedulesReread(t *testing.T) {
	leadID := uuid.New()
	userID := uuid.New()
	repo := &fakeRepo{lead: domain.Lead{ID: leadID}}
	cli := &fakeClient{resp: client.DraftResponse{Reply: "provisional"}}
	sched := &fakeScheduler{}
	sessions := newFakeSessions()

	svc := newService(repo, sessions, cli, sched, &nullBus{})

	if _, err := svc.Generate(context.Background(), userID, leadID); err != nil {
		t.Fatalf("generate: %v", err)
	}

	if sessions.drafts[leadID] != "provisional" {
		t.Fatalf("provisional draft not held: %q", sessions.drafts[leadID])
	}
	if len(sched.payloads) != 1 {
		t.Fatalf("expected exactly one scheduled reread, got %d", len(sched.payloads))
	}
	if sched.payloads[0].LeadID != leadID.String() || sched.payloads[0].UserID != userID.String() {
		t.Fatalf("payload mismatch: %+v", sched.payloads[0])
	}
	if sched.delays[0] != 5*time.Second {
		t.Fatalf("configured reread gap not honored: %v", sched.delays[0])
	}
}

func TestGenerateFailureSurfacesAndSchedulesNothing(t *testing.T) {
	leadID := uuid.New()
	repo := &fakeRepo{lead: domain.Lead{ID: leadID}}
	cli := &fakeClient{err: errors.New("upstream 503")}
	sched := &fakeScheduler{}
	sessions := newFakeSessions()

	svc := newService(repo, sessions, cli, sched, &nullBus{})

	if _, err := svc.Generate(context.Background(), uuid.New(), leadID); err == nil {
		t.Fatalf("submission failure must surface")
	}
	if len(sessions.drafts) != 0 {
		t.Fatalf("no draft may be held after a failed submission")
	}
	if len(sched.payloads) != 0 {
		t.Fatalf("no reread may be scheduled after a failed submission")
	}
}

func TestRereadMergesBundleAndPublishes(t *testing.T) {
	leadID := uuid.New()
	bundle := &domain.StrategicAnnotations{SuggestedMessage: "authoritative", AnalyzedAt: time.Now()}
	repo := &fakeRepo{annotations: bundle}
	sessions := newFakeSessions()
	bus := &nullBus{}

	svc := newService(repo, sessions, &fakeClient{}, &fakeScheduler{}, bus)
	svc.Reread(context.Background(), leadID, uuid.New())

	if sessions.merged != bundle {
		t.Fatalf("bundle not merged into sessions")
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected one refresh event, got %d", len(bus.published))
	}
	if _, ok := bus.published[0].(events.AnnotationsRefreshed); !ok {
		t.Fatalf("expected AnnotationsRefreshed, got %T", bus.published[0])
	}
}

func TestRereadFailureOnlyLogs(t *testing.T) {
	repo := &fakeRepo{readErr: errors.New("store unreachable")}
	sessions := newFakeSessions()
	bus := &nullBus{}

	svc := newService(repo, sessions, &fakeClient{}, &fakeScheduler{}, bus)
	svc.Reread(context.Background(), uuid.New(), uuid.New())

	if sessions.merged != nil {
		t.Fatalf("failed reread must not merge anything")
	}
	if len(bus.published) != 0 {
		t.Fatalf("failed reread must not publish")
	}
}

func TestRereadWithoutBundleKeepsProvisionalDraft(t *testing.T) {
	repo := &fakeRepo{}
	sessions := newFakeSessions()
	sessions.drafts[uuid.Nil] = "provisional"

	svc := newService(repo, sessions, &fakeClient{}, &fakeScheduler{}, &nullBus{})
	svc.Reread(context.Background(), uuid.New(), uuid.New())

	if sessions.merged != nil {
		t.Fatalf("missing bundle must not merge")
	}
}
