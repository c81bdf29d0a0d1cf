package session

import (
	"prospect_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// SetProvisionalDraft stores the immediate reply from the drafting
// service as the lead's provisional draft for one user's session.
func (m *Manager) SetProvisionalDraft(userID, leadID uuid.UUID, draft string) {
	s := m.session(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[leadID] = draft
}

// Draft returns the current draft for a lead in a user's session.
func (m *Manager) Draft(userID, leadID uuid.UUID) (string, bool) {
	s := m.session(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	draft, ok := s.drafts[leadID]
	return draft, ok
}

// MergeAnnotations applies a delayed-read annotation bundle to every
// session's shared lead cache. The authoritative suggested message
// supersedes any provisional draft held for that lead. Only state keyed
// by this lead id changes: a session focused on a different lead keeps
// what it is viewing and never has its focus retargeted.
func (m *Manager) MergeAnnotations(leadID uuid.UUID, ann *domain.StrategicAnnotations) {
	if ann == nil {
		return
	}

	for _, s := range m.snapshotSessions() {
		s.mu.Lock()
		if lead, cached := s.leads[leadID]; cached {
			lead.Annotations = ann
			s.leads[leadID] = lead
		}
		s.drafts[leadID] = ann.SuggestedMessage
		s.mu.Unlock()
	}
}
