package domain

import (
	"testing"
	"time"
)

func leadWith(trust int, lastAt *time.Time, direction Direction) Lead {
	return Lead{
		TrustScore:               trust,
		LastInteractionAt:        lastAt,
		LastInteractionDirection: direction,
	}
}

func TestCadenceBucketForMapping(t *testing.T) {
	cases := []struct {
		stage CadenceStage
		want  CadenceBucket
	}{
		{StageG5, BucketHot},
		{StageG4, BucketHot},
		{StageG3, BucketWarm},
		{StageG2, BucketWarm},
		{StageG1, BucketCold},
		{StageNone, BucketCold},
		{CadenceStage("G9"), BucketCold},
	}

	for _, tc := range cases {
		if got := CadenceBucketFor(tc.stage); got != tc.want {
			t.Fatalf("stage %q: expected %q, got %q", tc.stage, tc.want, got)
		}
	}
}

func TestPriorityBucketHighTrustWinsRegardlessOfRecencyAndDirection(t *testing.T) {
	now := time.Now()
	old := now.Add(-30 * 24 * time.Hour)
	yesterday := now.Add(-24 * time.Hour)

	leads := []Lead{
		leadWith(75, nil, DirectionUnknown),
		leadWith(80, &old, DirectionOutbound),
		leadWith(100, &yesterday, DirectionInbound),
	}

	for i, lead := range leads {
		if got := PriorityBucketFor(lead, now); got != BucketHighPriority {
			t.Fatalf("lead %d: expected high-priority, got %q", i, got)
		}
	}
}

func TestPriorityBucketStaleInteractionIsStandByEvenIfInbound(t *testing.T) {
	now := time.Now()
	tenDaysAgo := now.Add(-10 * 24 * time.Hour)

	got := PriorityBucketFor(leadWith(10, &tenDaysAgo, DirectionInbound), now)
	if got != BucketStandBy {
		t.Fatalf("expected stand-by, got %q", got)
	}
}

func TestPriorityBucketExactlySevenDaysIsNotStandBy(t *testing.T) {
	now := time.Now()
	sevenDays := now.Add(-7 * 24 * time.Hour)

	got := PriorityBucketFor(leadWith(10, &sevenDays, DirectionOutbound), now)
	if got == BucketStandBy {
		t.Fatalf("seven days exactly must not be stand-by, got %q", got)
	}
}

func TestPriorityBucketNoInteractionsDefaultsToRespond(t *testing.T) {
	got := PriorityBucketFor(leadWith(0, nil, DirectionUnknown), time.Now())
	if got != BucketToRespond {
		t.Fatalf("zero-trust no-interaction lead: expected to-respond, got %q", got)
	}
}

func TestPriorityBucketFourLeadsLandInFourBuckets(t *testing.T) {
	now := time.Now()
	tenDaysAgo := now.Add(-10 * 24 * time.Hour)
	yesterday := now.Add(-24 * time.Hour)

	batch := []struct {
		name string
		lead Lead
		want PriorityBucket
	}{
		{"A trust 80", leadWith(80, nil, DirectionUnknown), BucketHighPriority},
		{"B stale", leadWith(10, &tenDaysAgo, DirectionOutbound), BucketStandBy},
		{"C inbound yesterday", leadWith(10, &yesterday, DirectionInbound), BucketToRespond},
		{"D outbound yesterday", leadWith(10, &yesterday, DirectionOutbound), BucketWaiting},
	}

	seen := make(map[PriorityBucket]string)
	for _, tc := range batch {
		got := PriorityBucketFor(tc.lead, now)
		if got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
		if prev, dup := seen[got]; dup {
			t.Fatalf("bucket %q assigned to both %s and %s", got, prev, tc.name)
		}
		seen[got] = tc.name
	}

	if len(seen) != 4 {
		t.Fatalf("expected 4 distinct buckets, got %d", len(seen))
	}
}

func TestPriorityBucketIsTotal(t *testing.T) {
	now := time.Now()
	yesterday := now.Add(-24 * time.Hour)
	timestamps := []*time.Time{nil, &yesterday}
	directions := []Direction{DirectionUnknown, DirectionInbound, DirectionOutbound}

	for trust := 0; trust <= 100; trust += 5 {
		for _, ts := range timestamps {
			for _, dir := range directions {
				got := PriorityBucketFor(leadWith(trust, ts, dir), now)
				switch got {
				case BucketHighPriority, BucketStandBy, BucketToRespond, BucketWaiting:
				default:
					t.Fatalf("unclassified lead: trust=%d ts=%v dir=%q", trust, ts, dir)
				}
			}
		}
	}
}

func TestStatusCodeForLabel(t *testing.T) {
	code, ok := StatusCodeForLabel("Meeting Set")
	if !ok || code != StatusMeetingSet {
		t.Fatalf("expected %q, got %q (ok=%v)", StatusMeetingSet, code, ok)
	}

	if _, ok := StatusCodeForLabel("meeting set"); ok {
		t.Fatalf("label lookup must be exact, lowercase label accepted")
	}

	if _, ok := StatusCodeForLabel("On Fire"); ok {
		t.Fatalf("unknown label must not resolve")
	}
}
