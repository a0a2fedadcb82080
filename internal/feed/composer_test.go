package feed

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/yusakuma/feed-service/internal/ads"
	"github.com/yusakuma/feed-service/internal/domain"
)

func eligibleVideos(n int) []domain.VideoRecord {
	videos := make([]domain.VideoRecord, n)
	for i := range videos {
		videos[i] = domain.VideoRecord{
			ID:        fmt.Sprintf("v%d", i),
			EmbedType: "dmm_iframe",
			Title:     fmt.Sprintf("Video %d", i),
			Offer:     domain.Offer{URL: "https://example.com"},
		}
	}
	return videos
}

func newTestComposer() *Composer {
	return NewComposer([]string{"dmm_iframe", "duga"}, ads.DefaultProviders())
}

func TestShuffleIsPermutation(t *testing.T) {
	composer := newTestComposer()
	rng := rand.New(rand.NewSource(1))
	videos := eligibleVideos(20)

	shuffled := composer.Shuffle(rng, videos)

	if len(shuffled) != len(videos) {
		t.Fatalf("expected %d videos, got %d", len(videos), len(shuffled))
	}
	seen := map[string]bool{}
	for _, v := range shuffled {
		seen[v.ID] = true
	}
	if len(seen) != len(videos) {
		t.Error("shuffle dropped or duplicated entries")
	}
}

// Chi-square test of permutation frequencies against uniform for n=4
// (24 permutations). The 0.001 critical value for 23 degrees of freedom is
// ~49.7; a seeded rng keeps the test deterministic.
func TestShuffleUniformity(t *testing.T) {
	composer := newTestComposer()
	rng := rand.New(rand.NewSource(42))
	videos := eligibleVideos(4)

	const trials = 24000
	counts := map[string]int{}
	for i := 0; i < trials; i++ {
		shuffled := composer.Shuffle(rng, videos)
		key := ""
		for _, v := range shuffled {
			key += v.ID
		}
		counts[key]++
	}

	if len(counts) != 24 {
		t.Fatalf("expected all 24 permutations to appear, got %d", len(counts))
	}

	expected := float64(trials) / 24
	chi2 := 0.0
	for _, c := range counts {
		diff := float64(c) - expected
		chi2 += diff * diff / expected
	}
	if chi2 > 49.7 {
		t.Errorf("permutation frequencies deviate from uniform: chi2=%f", chi2)
	}
}

func TestAdInterval(t *testing.T) {
	cases := map[int]int{1: 5, 12: 5, 49: 5, 50: 5, 60: 6, 100: 10, 200: 20}
	for k, want := range cases {
		if got := AdInterval(k); got != want {
			t.Errorf("k=%d: expected interval %d, got %d", k, want, got)
		}
	}
}

func TestComposeCycleAdStride(t *testing.T) {
	composer := newTestComposer()
	videos := eligibleVideos(12)

	slots := composer.ComposeCycle(videos, 0)

	// 12 eligible videos, interval max(5, 12/10) = 5 -> exactly 2 ad slots,
	// after the 5th and 10th videos.
	adCount := 0
	videosSinceAd := 0
	for _, slot := range slots {
		switch slot.Kind {
		case domain.SlotVideo:
			videosSinceAd++
		case domain.SlotAd:
			if videosSinceAd < 5 {
				t.Errorf("ad slot %s only %d videos after previous ad", slot.SlotID, videosSinceAd)
			}
			videosSinceAd = 0
			adCount++
		}
	}
	if adCount != 2 {
		t.Errorf("expected 2 ad slots for 12 videos, got %d", adCount)
	}
	if len(slots) != 14 {
		t.Errorf("expected 14 slots total, got %d", len(slots))
	}

	if slots[5].Kind != domain.SlotAd {
		t.Errorf("expected ad after 5th video, got %s at index 5", slots[5].Kind)
	}
	if slots[11].Kind != domain.SlotAd {
		t.Errorf("expected ad after 10th video, got %s at index 11", slots[11].Kind)
	}
}

func TestSlotIDsUniqueAcrossCycles(t *testing.T) {
	composer := newTestComposer()
	videos := eligibleVideos(12)

	seen := map[string]bool{}
	for cycle := 0; cycle <= 5; cycle++ {
		for _, slot := range composer.ComposeCycle(videos, cycle) {
			if seen[slot.SlotID] {
				t.Errorf("duplicate slot id across cycles: %s", slot.SlotID)
			}
			seen[slot.SlotID] = true
		}
	}
}

func TestComposeCycleFiltersIneligible(t *testing.T) {
	composer := NewComposer([]string{"dmm_iframe"}, ads.DefaultProviders())
	videos := eligibleVideos(3)
	videos[1].EmbedType = "external_link"

	slots := composer.ComposeCycle(videos, 0)

	for _, slot := range slots {
		if slot.Kind == domain.SlotVideo && slot.Video.ID == "v1" {
			t.Error("ineligible embed type should not be composed")
		}
	}
	if len(slots) != 2 {
		t.Errorf("expected 2 video slots, got %d", len(slots))
	}
}

func TestComposeCycleEmptyCatalog(t *testing.T) {
	composer := newTestComposer()

	if slots := composer.ComposeCycle(nil, 0); len(slots) != 0 {
		t.Errorf("expected empty cycle for empty catalog, got %d slots", len(slots))
	}

	videos := eligibleVideos(2)
	for i := range videos {
		videos[i].EmbedType = "external_link"
	}
	if slots := composer.ComposeCycle(videos, 0); len(slots) != 0 {
		t.Errorf("expected empty cycle when nothing is eligible, got %d slots", len(slots))
	}
}

func TestProviderRotationIsRoundRobin(t *testing.T) {
	providers := ads.DefaultProviders()
	composer := newTestComposer()
	videos := eligibleVideos(40) // interval 5 -> 8 ads in cycle 0

	slots := composer.ComposeCycle(videos, 0)

	var zones []string
	for _, slot := range slots {
		if slot.Kind == domain.SlotAd {
			zones = append(zones, slot.Ad.Zone)
		}
	}
	if len(zones) != 8 {
		t.Fatalf("expected 8 ad slots, got %d", len(zones))
	}
	for i, zone := range zones {
		want := providers[i%len(providers)].Zone
		if zone != want {
			t.Errorf("ad %d: expected zone %s, got %s", i, want, zone)
		}
	}
}
