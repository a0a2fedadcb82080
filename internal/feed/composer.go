// Package feed composes the renderable content sequence: ad-interleaved
// cycles of catalog videos, grown monotonically for infinite scroll.
package feed

import (
	"fmt"
	"math/rand"

	"github.com/yusakuma/feed-service/internal/ads"
	"github.com/yusakuma/feed-service/internal/domain"
)

const minAdInterval = 5

// Composer builds content slots for one cycle at a time. Ranking and
// shuffling are explicit alternative ordering policies applied by the caller
// before composition; the composer itself never reorders.
type Composer struct {
	eligible  map[string]bool
	providers []ads.Provider
}

func NewComposer(eligibleTypes []string, providers []ads.Provider) *Composer {
	eligible := make(map[string]bool, len(eligibleTypes))
	for _, t := range eligibleTypes {
		eligible[t] = true
	}
	return &Composer{eligible: eligible, providers: providers}
}

// Shuffle returns an unbiased Fisher-Yates permutation of videos.
func (c *Composer) Shuffle(rng *rand.Rand, videos []domain.VideoRecord) []domain.VideoRecord {
	out := make([]domain.VideoRecord, len(videos))
	copy(out, videos)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// ComposeCycle assigns each ad-eligible video a slot id namespaced by the
// cycle index and inserts one ad slot after every adInterval videos, cycling
// deterministically through the configured providers so provider share is
// auditable. An empty eligible list yields an empty cycle.
func (c *Composer) ComposeCycle(videos []domain.VideoRecord, cycle int) []domain.ContentSlot {
	eligible := make([]domain.VideoRecord, 0, len(videos))
	for _, v := range videos {
		if c.eligible[v.EmbedType] {
			eligible = append(eligible, v)
		}
	}
	k := len(eligible)
	if k == 0 {
		return nil
	}

	interval := AdInterval(k)
	adsPerCycle := k / interval
	slots := make([]domain.ContentSlot, 0, k+adsPerCycle)
	adCount := 0

	for i := range eligible {
		v := eligible[i]
		slots = append(slots, domain.ContentSlot{
			Kind:   domain.SlotVideo,
			SlotID: fmt.Sprintf("%s-cycle-%d", v.ID, cycle),
			Cycle:  cycle,
			Video:  &eligible[i],
		})
		if (i+1)%interval == 0 && len(c.providers) > 0 {
			p := c.providers[(cycle*adsPerCycle+adCount)%len(c.providers)]
			slots = append(slots, domain.ContentSlot{
				Kind:   domain.SlotAd,
				SlotID: fmt.Sprintf("ad-%d-cycle-%d", adCount, cycle),
				Cycle:  cycle,
				Ad:     &domain.AdPlacement{Provider: p.Name, Zone: p.Zone},
			})
			adCount++
		}
	}
	return slots
}

// Provider resolves a configured provider by name and zone.
func (c *Composer) Provider(name, zone string) (ads.Provider, bool) {
	for _, p := range c.providers {
		if p.Name == name && p.Zone == zone {
			return p, true
		}
	}
	return ads.Provider{}, false
}

// AdInterval is the ad stride for a cycle of k videos: roughly one ad per
// ten videos, never closer than every five.
func AdInterval(k int) int {
	interval := k / 10
	if interval < minAdInterval {
		interval = minAdInterval
	}
	return interval
}
