// Package visibility implements the per-card viewport state machine driving
// lazy mount/unmount of third-party embeds and the classification of viewing
// intervals into behavior events.
package visibility

import (
	"time"

	"github.com/yusakuma/feed-service/internal/domain"
)

const (
	// DefaultThreshold is the "mostly visible" activation ratio. Lower
	// thresholds cause premature loads of heavy third-party iframes.
	DefaultThreshold = 0.7
	// InertSource is the blank target embeds are detached to off-screen.
	InertSource = "about:blank"

	completeRatio   = 0.8
	minViewDuration = 5 * time.Second
)

type State int

const (
	Idle State = iota
	Active
)

type DirectiveKind string

const (
	DirectiveNone     DirectiveKind = ""
	DirectiveAttach   DirectiveKind = "attach"
	DirectiveDetach   DirectiveKind = "detach"
	DirectiveFallback DirectiveKind = "fallback"
)

// Directive instructs the rendering adapter what to do with the card's embed.
type Directive struct {
	Kind   DirectiveKind `json:"kind,omitempty"`
	SlotID string        `json:"slot_id,omitempty"`
	Source string        `json:"source,omitempty"`
}

// Observation is one intersection-ratio report from the client. Sequence is
// a per-card monotonic counter; observations arriving out of order are stale
// and ignored.
type Observation struct {
	Ratio    float64   `json:"ratio"`
	Sequence uint64    `json:"sequence"`
	At       time.Time `json:"-"`
}

// Outcome is the result of feeding one observation to a controller. When
// Event is non-nil and Weighted is true the event must update profile
// weights; a non-weighted event is appended to the history log only.
type Outcome struct {
	Directive Directive
	Event     *domain.BehaviorEvent
	Weighted  bool
}

// Controller is the state machine for one rendered video card.
type Controller struct {
	video     *domain.VideoRecord
	slotID    string
	threshold float64

	state       State
	attached    bool
	lastSeq     uint64
	activeSince time.Time
}

func NewController(slotID string, video *domain.VideoRecord, threshold float64) *Controller {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Controller{video: video, slotID: slotID, threshold: threshold}
}

func (c *Controller) SlotID() string { return c.slotID }

func (c *Controller) ActiveState() bool { return c.state == Active }

func (c *Controller) ActiveSince() time.Time { return c.activeSince }

// Observe applies one intersection observation. The most recently observed
// state is authoritative: stale sequences are dropped without effect.
func (c *Controller) Observe(obs Observation) Outcome {
	if obs.Sequence <= c.lastSeq {
		return Outcome{}
	}
	c.lastSeq = obs.Sequence

	visible := obs.Ratio >= c.threshold
	switch {
	case visible && c.state == Idle:
		return c.activate(obs.At)
	case !visible && c.state == Active:
		return c.Deactivate(obs.At)
	default:
		return Outcome{}
	}
}

func (c *Controller) activate(at time.Time) Outcome {
	c.state = Active
	c.activeSince = at

	out := Outcome{
		// Raw entering-viewport event goes to the history log only; weight
		// updates come solely from the exit-time classification.
		Event: &domain.BehaviorEvent{
			VideoID:   c.video.ID,
			Action:    domain.ActionView,
			Timestamp: at.UnixMilli(),
		},
	}
	// Attach only if not already attached, to avoid redundant reloads.
	if !c.attached {
		c.attached = true
		out.Directive = Directive{Kind: DirectiveAttach, SlotID: c.slotID, Source: c.video.EmbedSrc}
	}
	return out
}

// Deactivate ends the viewing interval: the embed is detached to the inert
// source immediately (re-entering always restarts from the beginning) and the
// interval is classified complete/view/skip by elapsed visible time.
func (c *Controller) Deactivate(at time.Time) Outcome {
	if c.state != Active {
		return Outcome{}
	}
	elapsed := at.Sub(c.activeSince)
	c.state = Idle
	c.attached = false

	return Outcome{
		Directive: Directive{Kind: DirectiveDetach, SlotID: c.slotID, Source: InertSource},
		Event: &domain.BehaviorEvent{
			VideoID:    c.video.ID,
			Action:     classify(elapsed, c.video.DurationSeconds()),
			DurationMs: elapsed.Milliseconds(),
			Timestamp:  at.UnixMilli(),
		},
		Weighted: true,
	}
}

// Click records the explicit outbound CTA activation.
func (c *Controller) Click(at time.Time) domain.BehaviorEvent {
	return domain.BehaviorEvent{
		VideoID:   c.video.ID,
		Action:    domain.ActionClick,
		Timestamp: at.UnixMilli(),
	}
}

// EmbedFailed degrades the card to its static fallback affordance. The card
// stays Active so the duration rule still classifies the interval; embed
// failures are a display concern, not a tracking concern.
func (c *Controller) EmbedFailed() Directive {
	c.attached = false
	return Directive{Kind: DirectiveFallback, SlotID: c.slotID, Source: c.video.Offer.URL}
}

func classify(elapsed time.Duration, totalSeconds float64) domain.BehaviorAction {
	if totalSeconds > 0 && elapsed.Seconds() >= totalSeconds*completeRatio {
		return domain.ActionComplete
	}
	if elapsed >= minViewDuration {
		return domain.ActionView
	}
	return domain.ActionSkip
}
