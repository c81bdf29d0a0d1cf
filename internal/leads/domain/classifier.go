package domain

import "time"

// CadenceBucket is the three-way grouping used by the cockpit columns.
type CadenceBucket string

const (
	BucketHot  CadenceBucket = "hot"
	BucketWarm CadenceBucket = "warm"
	BucketCold CadenceBucket = "cold"
)

// PriorityBucket is the four-way grouping used by the inbox view.
type PriorityBucket string

const (
	BucketHighPriority PriorityBucket = "high-priority"
	BucketStandBy      PriorityBucket = "stand-by"
	BucketToRespond    PriorityBucket = "to-respond"
	BucketWaiting      PriorityBucket = "waiting"
)

const (
	// highPriorityTrustThreshold gates the high-priority bucket on the
	// trust score alone, before any recency or direction rule.
	highPriorityTrustThreshold = 75

	// standByAge is how stale the last interaction must be before a lead
	// is parked in stand-by.
	standByAge = 7 * 24 * time.Hour
)

// CadenceBucketFor maps a cadence stage to its cockpit column.
// G4/G5 are hot, G2/G3 warm, G1 and unstaged leads cold. Total: every
// input lands in exactly one bucket.
func CadenceBucketFor(stage CadenceStage) CadenceBucket {
	switch stage {
	case StageG4, StageG5:
		return BucketHot
	case StageG2, StageG3:
		return BucketWarm
	default:
		return BucketCold
	}
}

// PriorityBucketFor classifies a lead for the inbox view. The rules are
// order-sensitive and first-match-wins:
//
//  1. trust score at or above the threshold → high-priority
//  2. last interaction older than standByAge → stand-by
//  3. last interaction inbound, or no interaction at all → to-respond
//  4. last interaction outbound → waiting
//
// A lead with zero trust and zero interactions is to-respond: the default
// bias is toward action over idling.
func PriorityBucketFor(lead Lead, now time.Time) PriorityBucket {
	if lead.TrustScore >= highPriorityTrustThreshold {
		return BucketHighPriority
	}

	if lead.LastInteractionAt != nil && now.Sub(*lead.LastInteractionAt) > standByAge {
		return BucketStandBy
	}

	if lead.LastInteractionAt == nil || lead.LastInteractionDirection == DirectionInbound {
		return BucketToRespond
	}

	return BucketWaiting
}
