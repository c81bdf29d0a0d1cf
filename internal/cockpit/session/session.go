// Package session holds the per-user cockpit state: the queue snapshot
// that is mutated optimistically, the in-flight suppression set, and the
// explicitly tracked active lead. One logical thread of control per
// session is enforced with a per-session mutex; optimistic steps always
// complete before any store call is awaited.
package session

import (
	"context"
	"sync"
	"time"

	"prospect_backend/internal/cockpit/queue"
	"prospect_backend/internal/events"
	"prospect_backend/internal/leads/domain"
	"prospect_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// RecordStore is the slice of the lead record store the session layer
// reads and patches.
type RecordStore interface {
	ListPendingTasks(ctx context.Context) ([]domain.Task, error)
	CompleteTask(ctx context.Context, taskID uuid.UUID) error
	CountCompletedToday(ctx context.Context, now time.Time) (int, error)
	CountPending(ctx context.Context) (int, error)
	UpdatePipelineStatus(ctx context.Context, leadID uuid.UUID, statusCode string) error
	GetByID(ctx context.Context, leadID uuid.UUID) (domain.Lead, error)
	ListLeads(ctx context.Context) ([]domain.Lead, error)
}

// Session is one user's cockpit state.
type Session struct {
	mu sync.Mutex

	userID uuid.UUID

	// queue snapshot, replaced wholesale on fetch/resync
	buckets      []queue.Bucket
	doneToday    int
	pendingTotal int
	hasSnapshot  bool

	// in-flight completion suppression
	inFlight map[uuid.UUID]struct{}

	// focusedLead is the explicitly tracked selection state; uuid.Nil
	// means no lead is open in the detail view.
	focusedLead uuid.UUID

	// drafts holds provisional AI drafts per lead until the delayed
	// re-read supersedes them.
	drafts map[uuid.UUID]string

	// leads is the shared row cache backing the radar and detail views.
	leads map[uuid.UUID]domain.Lead
}

// View is a queue snapshot handed to the consumer. Stale marks a
// snapshot that survived a failed refresh: prior data is never blanked,
// the consumer shows it alongside a retry affordance.
type View struct {
	queue.Snapshot
	Stale bool `json:"stale"`
}

// Manager owns all sessions and runs the mutation executors against the
// record store.
type Manager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session

	store RecordStore
	bus   events.Bus
	log   *logger.Logger
	now   func() time.Time
}

// NewManager creates a session manager over the given store.
func NewManager(store RecordStore, log *logger.Logger) *Manager {
	return &Manager{
		sessions: make(map[uuid.UUID]*Session),
		store:    store,
		log:      log,
		now:      time.Now,
	}
}

func (m *Manager) session(userID uuid.UUID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok {
		s = &Session{
			userID:   userID,
			inFlight: make(map[uuid.UUID]struct{}),
			drafts:   make(map[uuid.UUID]string),
			leads:    make(map[uuid.UUID]domain.Lead),
		}
		m.sessions[userID] = s
	}
	return s
}

func (m *Manager) snapshotSessions() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// view assembles a View from the locked session state. Task slices are
// copied out: the session keeps compacting its own slices in place and
// must not reach into a view already handed to a caller.
func (s *Session) view(stale bool) View {
	buckets := make([]queue.Bucket, len(s.buckets))
	copy(buckets, s.buckets)
	for i := range buckets {
		tasks := make([]domain.Task, len(buckets[i].Tasks))
		copy(tasks, buckets[i].Tasks)
		buckets[i].Tasks = tasks
	}
	return View{
		Snapshot: queue.Snapshot{
			Buckets:      buckets,
			DoneToday:    s.doneToday,
			PendingTotal: s.pendingTotal,
		},
		Stale: stale,
	}
}

// fetchSnapshot reads the authoritative queue state. Tasks and counts
// are independent slices; the most recently completed fetch wins.
func (m *Manager) fetchSnapshot(ctx context.Context) ([]queue.Bucket, int, int, error) {
	var (
		tasks         []domain.Task
		done, pending int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = m.store.ListPendingTasks(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		done, err = m.store.CountCompletedToday(gctx, m.now())
		return err
	})
	g.Go(func() error {
		var err error
		pending, err = m.store.CountPending(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, 0, err
	}

	return queue.Build(tasks), done, pending, nil
}

// Queues refreshes and returns the user's queue view. On a transient
// fetch failure the prior snapshot is returned marked stale instead of
// blanking the view; the error is reported only when there is nothing
// to show.
func (m *Manager) Queues(ctx context.Context, userID uuid.UUID) (View, error) {
	s := m.session(userID)

	buckets, done, pending, err := m.fetchSnapshot(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		if s.hasSnapshot {
			m.log.Warn("queue refresh failed, serving prior snapshot", "userId", userID, "error", err)
			return s.view(true), nil
		}
		return View{}, err
	}

	s.buckets = buckets
	s.doneToday = done
	s.pendingTotal = pending
	s.hasSnapshot = true

	// Tasks confirmed locally but not yet reflected by the store read
	// must not resurface; the in-flight set filters them out.
	s.dropInFlightLocked()

	return s.view(false), nil
}

// Radar refreshes the shared lead cache and returns the radar list.
func (m *Manager) Radar(ctx context.Context, userID uuid.UUID) ([]queue.RadarEntry, error) {
	s := m.session(userID)

	leads, err := m.store.ListLeads(ctx)
	if err != nil {
		return nil, err
	}

	// The fetch is authoritative for its slice: whole rows are replaced,
	// last write wins. An optimistic status value that never persisted
	// disappears here, which is exactly the "until the user refreshes"
	// contract.
	s.mu.Lock()
	for _, lead := range leads {
		s.leads[lead.ID] = lead
	}
	s.mu.Unlock()

	return queue.BuildRadar(leads, m.now()), nil
}

// Focus sets the session's active lead and returns its current view,
// draft included.
func (m *Manager) Focus(ctx context.Context, userID, leadID uuid.UUID) (domain.Lead, string, error) {
	s := m.session(userID)

	lead, err := m.store.GetByID(ctx, leadID)
	if err != nil {
		return domain.Lead{}, "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.focusedLead = leadID
	s.leads[leadID] = lead

	return lead, s.drafts[leadID], nil
}

// FocusedLead returns the session's active lead id, uuid.Nil if none.
func (m *Manager) FocusedLead(userID uuid.UUID) uuid.UUID {
	s := m.session(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focusedLead
}

// dropInFlightLocked removes any task whose completion is still being
// confirmed from the freshly fetched snapshot. Caller holds s.mu.
func (s *Session) dropInFlightLocked() {
	if len(s.inFlight) == 0 {
		return
	}
	for i := range s.buckets {
		kept := s.buckets[i].Tasks[:0]
		for _, task := range s.buckets[i].Tasks {
			if _, inFlight := s.inFlight[task.ID]; !inFlight {
				kept = append(kept, task)
			}
		}
		dropped := len(s.buckets[i].Tasks) - len(kept)
		s.buckets[i].Tasks = kept
		s.buckets[i].Count -= dropped
		s.buckets[i].HiddenCount -= dropped
		if s.buckets[i].HiddenCount < 0 {
			s.buckets[i].HiddenCount = 0
		}
	}
}
