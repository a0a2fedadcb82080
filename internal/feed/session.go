package feed

import (
	"math/rand"
	"sync"
	"time"

	"github.com/yusakuma/feed-service/internal/ads"
	"github.com/yusakuma/feed-service/internal/domain"
	"github.com/yusakuma/feed-service/internal/visibility"
)

const defaultMaxActive = 2

type SessionConfig struct {
	// ActivationThreshold is the intersection ratio at which a card mounts
	// its embed.
	ActivationThreshold float64
	// MaxActiveEmbeds caps concurrently attached heavy embeds; activating
	// beyond the cap force-deactivates the longest-active card.
	MaxActiveEmbeds int
}

// RenderedSlot pairs a composed slot with its render plan: ad slots carry an
// idempotent mount plan, video slots start detached and are driven by
// observations afterwards.
type RenderedSlot struct {
	Slot domain.ContentSlot `json:"slot"`
	Ad   *ads.MountPlan     `json:"ad,omitempty"`
}

// Session is one viewer's growing feed: slots are appended cycle by cycle and
// never reordered or removed, preserving scroll anchoring.
type Session struct {
	mu        sync.Mutex
	composer  *Composer
	rng       *rand.Rand
	cfg       SessionConfig
	injector  *ads.Injector
	slots     []domain.ContentSlot
	cards     map[string]*visibility.Controller
	nextCycle int
}

func NewSession(composer *Composer, rng *rand.Rand, cfg SessionConfig) *Session {
	if cfg.MaxActiveEmbeds <= 0 {
		cfg.MaxActiveEmbeds = defaultMaxActive
	}
	return &Session{
		composer: composer,
		rng:      rng,
		cfg:      cfg,
		injector: ads.NewInjector(),
		cards:    map[string]*visibility.Controller{},
	}
}

// Extend composes the next cycle over the given (already ordered) videos and
// appends it. Returns ErrNoEligibleVideos without advancing the cycle counter
// when nothing is eligible, so the growth policy cannot loop.
func (s *Session) Extend(videos []domain.VideoRecord) (int, []RenderedSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cycle := s.nextCycle
	slots := s.composer.ComposeCycle(videos, cycle)
	if len(slots) == 0 {
		return 0, nil, domain.ErrNoEligibleVideos
	}
	s.nextCycle++
	s.slots = append(s.slots, slots...)

	rendered := make([]RenderedSlot, 0, len(slots))
	for _, slot := range slots {
		rs := RenderedSlot{Slot: slot}
		switch slot.Kind {
		case domain.SlotVideo:
			s.cards[slot.SlotID] = visibility.NewController(
				slot.SlotID, slot.Video, s.cfg.ActivationThreshold)
		case domain.SlotAd:
			if p, ok := s.composer.Provider(slot.Ad.Provider, slot.Ad.Zone); ok {
				if plan, fresh := s.injector.Mount(p.Render(slot.SlotID)); fresh {
					rs.Ad = &plan
				}
			}
		}
		rendered = append(rendered, rs)
	}
	return cycle, rendered, nil
}

// Observe routes one intersection observation to its card. Activating beyond
// the embed cap force-deactivates the longest-active other card, whose
// classified event is returned alongside.
func (s *Session) Observe(slotID string, obs visibility.Observation) ([]visibility.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, ok := s.cards[slotID]
	if !ok {
		return nil, domain.ErrSlotNotFound
	}

	out := card.Observe(obs)
	outcomes := []visibility.Outcome{}
	if out.Directive.Kind != visibility.DirectiveNone || out.Event != nil {
		outcomes = append(outcomes, out)
	}

	if card.ActiveState() {
		for _, victim := range s.overCapVictims(slotID) {
			evicted := victim.Deactivate(obs.At)
			if evicted.Event != nil {
				outcomes = append(outcomes, evicted)
			}
		}
	}
	return outcomes, nil
}

// overCapVictims picks the longest-active cards beyond the embed cap,
// excluding the card that just activated.
func (s *Session) overCapVictims(keep string) []*visibility.Controller {
	var active []*visibility.Controller
	for _, c := range s.cards {
		if c.ActiveState() && c.SlotID() != keep {
			active = append(active, c)
		}
	}
	over := len(active) + 1 - s.cfg.MaxActiveEmbeds
	if over <= 0 {
		return nil
	}
	// Oldest first.
	for i := 0; i < len(active); i++ {
		for j := i + 1; j < len(active); j++ {
			if active[j].ActiveSince().Before(active[i].ActiveSince()) {
				active[i], active[j] = active[j], active[i]
			}
		}
	}
	return active[:over]
}

// Click records a CTA activation on a card.
func (s *Session) Click(slotID string, at time.Time) (domain.BehaviorEvent, *domain.VideoRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.cards[slotID]
	if !ok {
		return domain.BehaviorEvent{}, nil, domain.ErrSlotNotFound
	}
	return card.Click(at), s.video(slotID), nil
}

// EmbedFailed degrades a card to its fallback affordance.
func (s *Session) EmbedFailed(slotID string) (visibility.Directive, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.cards[slotID]
	if !ok {
		return visibility.Directive{}, domain.ErrSlotNotFound
	}
	return card.EmbedFailed(), nil
}

// Video resolves the record behind a video slot.
func (s *Session) Video(slotID string) (*domain.VideoRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.video(slotID)
	return v, v != nil
}

func (s *Session) video(slotID string) *domain.VideoRecord {
	for i := range s.slots {
		if s.slots[i].SlotID == slotID && s.slots[i].Kind == domain.SlotVideo {
			return s.slots[i].Video
		}
	}
	return nil
}

// Slots returns the full appended sequence so far.
func (s *Session) Slots() []domain.ContentSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ContentSlot, len(s.slots))
	copy(out, s.slots)
	return out
}

// Rng exposes the session's rng for ordering policies.
func (s *Session) Rng() *rand.Rand {
	return s.rng
}
