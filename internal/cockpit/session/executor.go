package session

import (
	"context"
	"errors"

	"prospect_backend/internal/events"
	"prospect_backend/internal/leads/domain"
	"prospect_backend/internal/leads/repository"
	"prospect_backend/platform/apperr"

	"github.com/google/uuid"
)

// Outcome is the terminal state of an optimistic mutation:
// pending → optimistic → confirmed | resynced. Duplicate marks a request
// suppressed before it ever became a mutation; unknown marks a task the
// session has never seen because no queue snapshot was fetched yet.
type Outcome string

const (
	OutcomeConfirmed Outcome = "confirmed"
	OutcomeResynced  Outcome = "resynced"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeUnknown   Outcome = "unknown"
)

// CompleteResult reports a completion attempt plus the view the caller
// should render.
type CompleteResult struct {
	Outcome Outcome `json:"outcome"`
	View    View    `json:"view"`
}

// SetBus wires the domain event bus; nil is allowed in tests.
func (m *Manager) SetBus(bus events.Bus) {
	m.bus = bus
}

// Complete executes the task-completion state machine.
//
// The optimistic step (remove from snapshot, bump the done counter, mark
// in flight) happens synchronously under the session lock, before the
// store write is attempted. Duplicate calls for a task already in flight
// or already removed are no-ops. The store write happens at most once
// per accepted call.
//
// On write failure the rollback is a full resynchronization: the
// optimistic snapshot is discarded and the authoritative queue and
// counts are re-fetched. The optimistic patch is never inverted field by
// field.
func (m *Manager) Complete(ctx context.Context, userID, taskID uuid.UUID) (CompleteResult, error) {
	s := m.session(userID)

	s.mu.Lock()

	if _, inFlight := s.inFlight[taskID]; inFlight {
		result := CompleteResult{Outcome: OutcomeDuplicate, View: s.view(false)}
		s.mu.Unlock()
		return result, nil
	}

	var leadID uuid.UUID
	removed := false
	for i := range s.buckets {
		kept := s.buckets[i].Tasks[:0]
		for _, task := range s.buckets[i].Tasks {
			if task.ID == taskID {
				removed = true
				leadID = task.LeadID
				continue
			}
			kept = append(kept, task)
		}
		if removed {
			s.buckets[i].Tasks = kept
			s.buckets[i].Count = len(kept)
			// Keep the visible window full: the reveal toggle hides
			// whatever still overflows it, no more.
			if s.buckets[i].HiddenCount > 0 {
				s.buckets[i].HiddenCount--
			}
			break
		}
	}

	if !removed {
		// With a snapshot in place an absent task means an earlier click
		// already removed it; counters must not move again. Without one
		// the session has never seen the task at all.
		outcome := OutcomeDuplicate
		if !s.hasSnapshot {
			outcome = OutcomeUnknown
		}
		result := CompleteResult{Outcome: outcome, View: s.view(false)}
		s.mu.Unlock()
		return result, nil
	}

	s.doneToday++
	if s.pendingTotal > 0 {
		s.pendingTotal--
	}
	s.inFlight[taskID] = struct{}{}
	s.mu.Unlock()

	// Confirmation happens after the optimistic state is already
	// visible to the next render.
	err := m.store.CompleteTask(ctx, taskID)

	if err == nil {
		s.mu.Lock()
		delete(s.inFlight, taskID)
		result := CompleteResult{Outcome: OutcomeConfirmed, View: s.view(false)}
		s.mu.Unlock()

		if m.bus != nil {
			m.bus.Publish(ctx, events.TaskCompleted{
				BaseEvent: events.NewBaseEvent(),
				TaskID:    taskID,
				LeadID:    leadID,
				UserID:    userID,
			})
		}
		return result, nil
	}

	m.log.QueueResync(userID.String(), taskID.String(), err)

	// Rollback by resync. Clearing the in-flight mark first lets the
	// fresh snapshot speak for itself: if the write actually landed the
	// task stays gone, if it did not the task legitimately reappears.
	s.mu.Lock()
	delete(s.inFlight, taskID)
	s.mu.Unlock()

	buckets, done, pending, syncErr := m.fetchSnapshot(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	if syncErr != nil {
		// The store is unreachable for the resync too. Keep the
		// optimistic snapshot rather than blanking the view.
		return CompleteResult{Outcome: OutcomeResynced, View: s.view(true)},
			apperr.Wrap(apperr.KindUnavailable, "completion not confirmed and resync failed", syncErr)
	}

	s.buckets = buckets
	s.doneToday = done
	s.pendingTotal = pending
	s.hasSnapshot = true
	s.dropInFlightLocked()

	return CompleteResult{Outcome: OutcomeResynced, View: s.view(false)}, nil
}

// StatusResult reports a pipeline status change.
type StatusResult struct {
	StatusCode string `json:"statusCode"`
	// Persisted is false when the store write failed. The optimistic
	// value stays in every in-memory copy; a notification is raised
	// instead of rolling back. Asymmetric with task completion on
	// purpose.
	Persisted bool `json:"persisted"`
}

// SetStatus translates a pipeline label and applies it optimistically to
// every in-memory copy of the lead before persisting.
func (m *Manager) SetStatus(ctx context.Context, userID, leadID uuid.UUID, label string) (StatusResult, error) {
	code, ok := domain.StatusCodeForLabel(label)
	if !ok {
		return StatusResult{}, apperr.Validation("unknown pipeline label").
			WithDetails(map[string]interface{}{"known": domain.KnownStatusLabels()})
	}

	// Optimistic echo into every session that caches the lead: list
	// rows and any open detail view agree immediately.
	for _, s := range m.snapshotSessions() {
		s.mu.Lock()
		if lead, cached := s.leads[leadID]; cached {
			lead.PipelineStatus = code
			s.leads[leadID] = lead
		}
		for i := range s.buckets {
			for j := range s.buckets[i].Tasks {
				if s.buckets[i].Tasks[j].LeadID == leadID {
					s.buckets[i].Tasks[j].Lead.PipelineStatus = code
				}
			}
		}
		s.mu.Unlock()
	}

	err := m.store.UpdatePipelineStatus(ctx, leadID, code)
	if err == nil {
		if m.bus != nil {
			m.bus.Publish(ctx, events.LeadStatusChanged{
				BaseEvent:  events.NewBaseEvent(),
				LeadID:     leadID,
				StatusCode: code,
				UserID:     userID,
			})
		}
		return StatusResult{StatusCode: code, Persisted: true}, nil
	}

	if errors.Is(err, repository.ErrLeadNotFound) {
		return StatusResult{}, apperr.NotFound("lead not found")
	}

	// No rollback: the optimistic value stays until the next refresh.
	// Surface the failure as a recoverable notification instead.
	m.log.Warn("status persist failed, keeping optimistic value", "leadId", leadID, "error", err)
	if m.bus != nil {
		m.bus.Publish(ctx, events.LeadStatusPersistFailed{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    leadID,
			Label:     label,
			UserID:    userID,
			Reason:    err.Error(),
		})
	}
	return StatusResult{StatusCode: code, Persisted: false}, nil
}
