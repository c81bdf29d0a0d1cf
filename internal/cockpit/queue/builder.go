// Package queue builds the daily work queues: pending tasks bucketed
// by the lead classifier, with deterministic ordering and a visible
// window for the overflow-prone cold bucket.
package queue

import (
	"sort"
	"time"

	"prospect_backend/internal/leads/domain"
)

// coldVisibleWindow is how many cold tasks are shown before the rest
// collapse behind a reveal toggle. The hidden tasks stay in the bucket;
// the window is presentation, not truncation.
const coldVisibleWindow = 8

// Bucket is one ordered column of the cockpit.
type Bucket struct {
	ID    domain.CadenceBucket `json:"bucketId"`
	Tasks []domain.Task        `json:"tasks"`
	Count int                  `json:"count"`
	// HiddenCount is how many tasks sit behind the reveal toggle.
	// Zero for buckets without a visible window.
	HiddenCount int `json:"hiddenCount"`
}

// Visible returns the tasks inside the bucket's window.
func (b Bucket) Visible() []domain.Task {
	if b.HiddenCount == 0 {
		return b.Tasks
	}
	return b.Tasks[:len(b.Tasks)-b.HiddenCount]
}

// Snapshot is the full queue state handed to the consumer.
type Snapshot struct {
	Buckets      []Bucket `json:"buckets"`
	DoneToday    int      `json:"doneToday"`
	PendingTotal int      `json:"pendingTotal"`
}

// ProgressPercent derives the day's completion percentage. The
// denominator is recomputed on every fetch, never stored.
func (s Snapshot) ProgressPercent() int {
	total := s.DoneToday + s.PendingTotal
	if total == 0 {
		return 0
	}
	return s.DoneToday * 100 / total
}

// bucketOrder is the fixed column order of the cockpit.
var bucketOrder = []domain.CadenceBucket{domain.BucketHot, domain.BucketWarm, domain.BucketCold}

// Build partitions pending tasks into cadence buckets. Within a bucket
// tasks are ordered creation-time ascending; ties keep their input
// order (stable sort only, never re-sorted non-deterministically).
// Every bucket is present in the result even when empty.
func Build(tasks []domain.Task) []Bucket {
	partitioned := make(map[domain.CadenceBucket][]domain.Task, len(bucketOrder))
	for _, task := range tasks {
		bucket := domain.CadenceBucketFor(task.Lead.CadenceStage)
		partitioned[bucket] = append(partitioned[bucket], task)
	}

	buckets := make([]Bucket, 0, len(bucketOrder))
	for _, id := range bucketOrder {
		bucketTasks := partitioned[id]
		sort.SliceStable(bucketTasks, func(i, j int) bool {
			return bucketTasks[i].CreatedAt.Before(bucketTasks[j].CreatedAt)
		})

		hidden := 0
		if id == domain.BucketCold && len(bucketTasks) > coldVisibleWindow {
			hidden = len(bucketTasks) - coldVisibleWindow
		}

		if bucketTasks == nil {
			bucketTasks = []domain.Task{}
		}
		buckets = append(buckets, Bucket{
			ID:          id,
			Tasks:       bucketTasks,
			Count:       len(bucketTasks),
			HiddenCount: hidden,
		})
	}

	return buckets
}

// RadarEntry is one lead on the inbox radar with its derived priority.
type RadarEntry struct {
	Lead   domain.Lead           `json:"lead"`
	Bucket domain.PriorityBucket `json:"bucket"`
}

// BuildRadar classifies every lead for the inbox and sorts the list
// most-recently-active first, the inbox's override of the default
// creation-time ordering. Leads without interactions sort last, keeping
// their relative input order.
func BuildRadar(leads []domain.Lead, now time.Time) []RadarEntry {
	entries := make([]RadarEntry, 0, len(leads))
	for _, lead := range leads {
		entries = append(entries, RadarEntry{
			Lead:   lead,
			Bucket: domain.PriorityBucketFor(lead, now),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Lead.LastInteractionAt, entries[j].Lead.LastInteractionAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})

	return entries
}
