package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskEnrichmentReread = "enrichment.reread"

// EnrichmentRereadPayload identifies the lead whose annotation bundle
// is re-read after the drafting service had time to write it.
type EnrichmentRereadPayload struct {
	LeadID string `json:"leadId"`
	UserID string `json:"userId"`
}

func NewEnrichmentRereadTask(payload EnrichmentRereadPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEnrichmentReread, data), nil
}

func ParseEnrichmentRereadPayload(task *asynq.Task) (EnrichmentRereadPayload, error) {
	var payload EnrichmentRereadPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return EnrichmentRereadPayload{}, err
	}
	return payload, nil
}
