// Package events defines the domain events exchanged between cockpit
// modules over the in-memory bus.
package events

import (
	platformevents "prospect_backend/platform/events"

	"github.com/google/uuid"
)

// Re-exported platform types so subscribers need a single import.
type (
	Event       = platformevents.Event
	BaseEvent   = platformevents.BaseEvent
	Bus         = platformevents.Bus
	Handler     = platformevents.Handler
	HandlerFunc = platformevents.HandlerFunc
)

// NewBaseEvent creates a base event stamped with the current time.
func NewBaseEvent() BaseEvent {
	return platformevents.NewBaseEvent()
}

// TaskCompleted fires after a task completion is confirmed by the store.
type TaskCompleted struct {
	BaseEvent
	TaskID uuid.UUID
	LeadID uuid.UUID
	UserID uuid.UUID
}

func (TaskCompleted) EventName() string { return "cockpit.task.completed" }

// LeadStatusChanged fires after a pipeline status patch is persisted.
type LeadStatusChanged struct {
	BaseEvent
	LeadID     uuid.UUID
	StatusCode string
	UserID     uuid.UUID
}

func (LeadStatusChanged) EventName() string { return "leads.status.changed" }

// LeadStatusPersistFailed fires when the status patch could not be
// persisted. The optimistic value stays in place; subscribers notify.
type LeadStatusPersistFailed struct {
	BaseEvent
	LeadID uuid.UUID
	Label  string
	UserID uuid.UUID
	Reason string
}

func (LeadStatusPersistFailed) EventName() string { return "leads.status.persist_failed" }

// EnrichmentRereadDue fires when a scheduled re-read delay has run out
// and the annotation bundle should be read back from the record store.
type EnrichmentRereadDue struct {
	BaseEvent
	LeadID uuid.UUID
	UserID uuid.UUID
}

func (EnrichmentRereadDue) EventName() string { return "enrichment.reread.due" }

// AnnotationsRefreshed fires when the delayed re-read merged a fresh
// annotation bundle into the shared lead cache.
type AnnotationsRefreshed struct {
	BaseEvent
	LeadID uuid.UUID
	UserID uuid.UUID
}

func (AnnotationsRefreshed) EventName() string { return "enrichment.annotations.refreshed" }
