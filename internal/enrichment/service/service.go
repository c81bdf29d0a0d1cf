// Package service orchestrates draft generation: submit the dossier,
// hold the provisional reply, and schedule the delayed re-read that
// picks up the annotation bundle the drafting service wrote.
package service

import (
	"context"
	"fmt"
	"time"

	"prospect_backend/internal/enrichment/client"
	"prospect_backend/internal/events"
	"prospect_backend/internal/leads/domain"
	"prospect_backend/internal/scheduler"
	"prospect_backend/platform/apperr"
	"prospect_backend/platform/logger"

	"github.com/google/uuid"
)

// RecordStore is the slice of the lead store the enrichment flow reads.
type RecordStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	ListInteractions(ctx context.Context, leadID uuid.UUID) ([]domain.Interaction, error)
	ReadAnnotations(ctx context.Context, id uuid.UUID) (*domain.StrategicAnnotations, error)
}

// Sessions is the session-side surface the flow writes into.
type Sessions interface {
	SetProvisionalDraft(userID, leadID uuid.UUID, draft string)
	MergeAnnotations(leadID uuid.UUID, ann *domain.StrategicAnnotations)
}

// DraftClient submits the dossier to the external drafting service.
type DraftClient interface {
	Enabled() bool
	RequestDraft(ctx context.Context, req client.DraftRequest) (client.DraftResponse, error)
}

// DraftResult is what the trigger endpoint returns: the provisional
// reply shown immediately, before the delayed re-read lands.
type DraftResult struct {
	Reply      string `json:"reply"`
	Icebreaker bool   `json:"icebreaker"`
}

// Service runs the generate-and-reconcile flow.
type Service struct {
	repo      RecordStore
	sessions  Sessions
	client    DraftClient
	delayed   scheduler.RereadScheduler
	bus       events.Bus
	log       *logger.Logger
	rereadGap time.Duration
}

// New creates the enrichment service. The reread gap is how long the
// drafting service gets to finish its out-of-band annotation write
// before the bundle is read back.
func New(repo RecordStore, sessions Sessions, cli DraftClient, delayed scheduler.RereadScheduler, bus events.Bus, log *logger.Logger, rereadGap time.Duration) *Service {
	return &Service{
		repo:      repo,
		sessions:  sessions,
		client:    cli,
		delayed:   delayed,
		bus:       bus,
		log:       log,
		rereadGap: rereadGap,
	}
}

// Generate submits the lead dossier and returns the provisional reply.
// A submission failure surfaces to the caller and schedules nothing.
func (s *Service) Generate(ctx context.Context, userID, leadID uuid.UUID) (DraftResult, error) {
	if s.client == nil || !s.client.Enabled() {
		return DraftResult{}, apperr.Unavailable("drafting service not configured")
	}

	lead, err := s.repo.GetByID(ctx, leadID)
	if err != nil {
		return DraftResult{}, err
	}

	interactions, err := s.repo.ListInteractions(ctx, leadID)
	if err != nil {
		return DraftResult{}, err
	}

	icebreaker := len(interactions) == 0

	resp, err := s.client.RequestDraft(ctx, client.DraftRequest{
		LeadID:       lead.ID.String(),
		FullName:     lead.FullName,
		Headline:     lead.Headline,
		Company:      lead.Company,
		CadenceStage: string(lead.CadenceStage),
		ICPTier:      string(lead.ICPTier),
		TrustScore:   lead.TrustScore,
		History:      serializeHistory(interactions),
		Icebreaker:   icebreaker,
	})
	if err != nil {
		return DraftResult{}, apperr.Wrap(apperr.KindUnavailable, "draft generation failed", err)
	}

	s.sessions.SetProvisionalDraft(userID, leadID, resp.Reply)

	// The re-read is scheduled exactly once per submission and runs out
	// no matter where the user navigates. When two submissions overlap,
	// each fire reads the then-current bundle, so the last write is what
	// every session ends up seeing.
	err = s.delayed.ScheduleEnrichmentReread(ctx, scheduler.EnrichmentRereadPayload{
		LeadID: leadID.String(),
		UserID: userID.String(),
	}, s.rereadGap)
	if err != nil {
		s.log.Warn("reread scheduling failed, provisional draft stands", "leadId", leadID, "error", err)
	}

	return DraftResult{Reply: resp.Reply, Icebreaker: icebreaker}, nil
}

// Reread performs the delayed authoritative read. Any failure here is
// logged and swallowed: the provisional draft simply stays in place.
func (s *Service) Reread(ctx context.Context, leadID, userID uuid.UUID) {
	ann, err := s.repo.ReadAnnotations(ctx, leadID)
	if err != nil {
		s.log.EnrichmentRereadFailed(leadID.String(), err)
		return
	}
	if ann == nil {
		s.log.Warn("reread found no annotation bundle", "leadId", leadID)
		return
	}

	s.sessions.MergeAnnotations(leadID, ann)

	if s.bus != nil {
		s.bus.Publish(ctx, events.AnnotationsRefreshed{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    leadID,
			UserID:    userID,
		})
	}
}

// serializeHistory flattens the conversation oldest-first, each line
// tagged with who sent it.
func serializeHistory(interactions []domain.Interaction) []string {
	lines := make([]string, 0, len(interactions))
	for _, item := range interactions {
		tag := "them"
		if item.Direction == domain.DirectionOutbound {
			tag = "me"
		}
		lines = append(lines, fmt.Sprintf("[%s] %s", tag, item.Content))
	}
	return lines
}
