package feed

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/yusakuma/feed-service/internal/domain"
	"github.com/yusakuma/feed-service/internal/visibility"
)

func newTestSession(maxActive int) *Session {
	return NewSession(newTestComposer(), rand.New(rand.NewSource(1)), SessionConfig{
		ActivationThreshold: 0.7,
		MaxActiveEmbeds:     maxActive,
	})
}

func sessionTime(seconds int) time.Time {
	return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(seconds) * time.Second)
}

func TestExtendAppendsMonotonically(t *testing.T) {
	sess := newTestSession(2)
	videos := eligibleVideos(12)

	cycle0, first, err := sess.Extend(videos)
	if err != nil {
		t.Fatalf("extend failed: %v", err)
	}
	cycle1, second, err := sess.Extend(videos)
	if err != nil {
		t.Fatalf("extend failed: %v", err)
	}

	if cycle0 != 0 || cycle1 != 1 {
		t.Errorf("expected cycles 0 and 1, got %d and %d", cycle0, cycle1)
	}

	all := sess.Slots()
	if len(all) != len(first)+len(second) {
		t.Errorf("expected %d slots total, got %d", len(first)+len(second), len(all))
	}
	// Previously appended slots keep their positions.
	for i, rs := range first {
		if all[i].SlotID != rs.Slot.SlotID {
			t.Errorf("slot %d reordered after extension", i)
		}
	}

	seen := map[string]bool{}
	for _, slot := range all {
		if seen[slot.SlotID] {
			t.Errorf("duplicate slot id in session: %s", slot.SlotID)
		}
		seen[slot.SlotID] = true
	}
}

func TestExtendWithNoEligibleVideos(t *testing.T) {
	sess := newTestSession(2)
	videos := eligibleVideos(3)
	for i := range videos {
		videos[i].EmbedType = "external_link"
	}

	_, _, err := sess.Extend(videos)
	if !errors.Is(err, domain.ErrNoEligibleVideos) {
		t.Fatalf("expected ErrNoEligibleVideos, got %v", err)
	}

	// The cycle counter must not advance, so a later eligible extension
	// still starts at cycle 0.
	cycle, _, err := sess.Extend(eligibleVideos(3))
	if err != nil {
		t.Fatalf("extend failed: %v", err)
	}
	if cycle != 0 {
		t.Errorf("failed extension advanced the cycle counter to %d", cycle)
	}
}

func TestObserveUnknownSlot(t *testing.T) {
	sess := newTestSession(2)
	if _, err := sess.Observe("missing-cycle-0", visibility.Observation{Ratio: 0.8, Sequence: 1, At: sessionTime(0)}); !errors.Is(err, domain.ErrSlotNotFound) {
		t.Errorf("expected ErrSlotNotFound, got %v", err)
	}
}

func TestActiveEmbedCapEvictsOldest(t *testing.T) {
	sess := newTestSession(2)
	if _, _, err := sess.Extend(eligibleVideos(12)); err != nil {
		t.Fatalf("extend failed: %v", err)
	}

	activate := func(slotID string, seconds int) []visibility.Outcome {
		outcomes, err := sess.Observe(slotID, visibility.Observation{Ratio: 0.9, Sequence: 1, At: sessionTime(seconds)})
		if err != nil {
			t.Fatalf("observe %s: %v", slotID, err)
		}
		return outcomes
	}

	activate("v0-cycle-0", 0)
	activate("v1-cycle-0", 10)
	outcomes := activate("v2-cycle-0", 20)

	// The third activation exceeds the cap of 2: the longest-active card
	// (v0) is force-deactivated and its interval classified.
	var evicted *domain.BehaviorEvent
	for _, out := range outcomes {
		if out.Weighted && out.Event != nil && out.Event.VideoID == "v0" {
			evicted = out.Event
		}
	}
	if evicted == nil {
		t.Fatal("expected the oldest active card to be evicted with a classified event")
	}
	if evicted.Action != domain.ActionView {
		t.Errorf("v0 was visible for 20s and should classify as view, got %s", evicted.Action)
	}
}

func TestSessionClick(t *testing.T) {
	sess := newTestSession(2)
	if _, _, err := sess.Extend(eligibleVideos(6)); err != nil {
		t.Fatalf("extend failed: %v", err)
	}

	event, video, err := sess.Click("v3-cycle-0", sessionTime(5))
	if err != nil {
		t.Fatalf("click failed: %v", err)
	}
	if event.Action != domain.ActionClick || video == nil || video.ID != "v3" {
		t.Errorf("unexpected click result: %+v video=%v", event, video)
	}
}

func TestAdMountPlanIssuedOncePerSlot(t *testing.T) {
	sess := newTestSession(2)
	_, rendered, err := sess.Extend(eligibleVideos(12))
	if err != nil {
		t.Fatalf("extend failed: %v", err)
	}

	plans := 0
	scriptsAttached := 0
	for _, rs := range rendered {
		if rs.Slot.Kind != domain.SlotAd {
			continue
		}
		if rs.Ad == nil {
			t.Errorf("ad slot %s missing mount plan on first composition", rs.Slot.SlotID)
			continue
		}
		plans++
		if rs.Ad.AttachScript {
			scriptsAttached++
		}
	}
	if plans != 2 {
		t.Fatalf("expected 2 ad mount plans, got %d", plans)
	}
	// Both ads in cycle 0 are juicyads zones sharing one script.
	if scriptsAttached != 1 {
		t.Errorf("provider script should attach exactly once, got %d", scriptsAttached)
	}
}
