package recommend

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/goccy/go-json"
	"github.com/yusakuma/feed-service/internal/domain"
	"github.com/yusakuma/feed-service/internal/store"
)

const (
	historyCap = 100

	completeWeight    = 5.0
	clickWeight       = 3.0
	viewRatioWeight   = 3.0
	viewUnknownWeight = 2.0
	earlySkipWeight   = -2.0
	lateSkipWeight    = -0.5
	earlySkipRatio    = 0.1
	timeSlotBonus     = 1.5
)

// Tracker maintains per-viewer affinity profiles from behavior events.
// Recording never fails: persistence errors are logged and swallowed, since
// loss of personalization is non-fatal.
type Tracker struct {
	kv  store.KV
	now func() time.Time
}

func NewTracker(kv store.KV) *Tracker {
	return &Tracker{kv: kv, now: time.Now}
}

func profileKey(viewerID string) string {
	return fmt.Sprintf("profile:%s", viewerID)
}

func historyKey(viewerID string) string {
	return fmt.Sprintf("behavior:%s", viewerID)
}

func watchedKey(viewerID, videoID string) string {
	return fmt.Sprintf("watched:%s:%s", viewerID, videoID)
}

func likedKey(viewerID, videoID string) string {
	return fmt.Sprintf("liked:%s:%s", viewerID, videoID)
}

// Profile loads the viewer's profile, falling back to a fresh one on any
// storage or decode failure.
func (t *Tracker) Profile(ctx context.Context, viewerID string) *domain.AffinityProfile {
	val, ok, err := t.kv.Get(ctx, profileKey(viewerID))
	if err != nil {
		log.Printf("[tracker] profile load error for viewer %s: %v", viewerID, err)
		return domain.NewAffinityProfile()
	}
	if !ok {
		return domain.NewAffinityProfile()
	}
	profile := domain.NewAffinityProfile()
	if err := json.Unmarshal([]byte(val), profile); err != nil {
		log.Printf("[tracker] corrupt profile for viewer %s, resetting: %v", viewerID, err)
		return domain.NewAffinityProfile()
	}
	if profile.Weights == nil {
		profile.Weights = map[string]float64{}
	}
	return profile
}

// Record applies one weighted behavior event to the viewer's profile: every
// label associated with the video (tags, primary category, studio, moods, and
// the matching declared time slot with an extra multiplier) receives the
// action weight. The updated profile is persisted synchronously and the event
// appended to the bounded history log.
func (t *Tracker) Record(ctx context.Context, viewerID string, event domain.BehaviorEvent, video *domain.VideoRecord) {
	profile := t.Profile(ctx, viewerID)

	w := ActionWeight(event.Action, event.DurationMs, video.DurationSeconds())

	for _, tag := range video.Tags {
		profile.Weights[tag] += w
	}
	if video.Category != "" {
		profile.Weights[video.Category] += w
	}
	if studio := video.Studio(); studio != "" {
		profile.Weights[studio] += w
	}
	for _, mood := range video.Moods() {
		profile.Weights[mood] += w
	}
	currentSlot := TimeSlot(t.now().Hour())
	for _, slot := range video.TimeOfDay() {
		if slot == currentSlot {
			profile.Weights[slot] += w * timeSlotBonus
		}
	}

	profile.TotalInteractions++
	if event.DurationMs > 0 {
		seconds := float64(event.DurationMs) / 1000.0
		profile.AvgWatchTime = (profile.AvgWatchTime*float64(profile.TotalInteractions-1) + seconds) /
			float64(profile.TotalInteractions)
	}

	if event.Action == domain.ActionComplete || event.Action == domain.ActionView {
		t.MarkWatched(ctx, viewerID, video.ID)
	}

	t.persist(ctx, viewerID, profile)
	t.LogEvent(ctx, viewerID, event)
}

// LogEvent appends an event to the viewer's history log without touching
// profile weights.
func (t *Tracker) LogEvent(ctx context.Context, viewerID string, event domain.BehaviorEvent) {
	val, err := json.Marshal(event)
	if err != nil {
		log.Printf("[tracker] marshal event for viewer %s: %v", viewerID, err)
		return
	}
	if err := t.kv.PushCapped(ctx, historyKey(viewerID), string(val), historyCap); err != nil {
		log.Printf("[tracker] history append error for viewer %s: %v", viewerID, err)
	}
}

// History returns the viewer's recorded events, newest first.
func (t *Tracker) History(ctx context.Context, viewerID string) []domain.BehaviorEvent {
	vals, err := t.kv.List(ctx, historyKey(viewerID))
	if err != nil {
		log.Printf("[tracker] history load error for viewer %s: %v", viewerID, err)
		return nil
	}
	events := make([]domain.BehaviorEvent, 0, len(vals))
	for _, val := range vals {
		var ev domain.BehaviorEvent
		if err := json.Unmarshal([]byte(val), &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events
}

func (t *Tracker) MarkWatched(ctx context.Context, viewerID, videoID string) {
	if err := t.kv.Set(ctx, watchedKey(viewerID, videoID), "1"); err != nil {
		log.Printf("[tracker] watched marker error for viewer %s: %v", viewerID, err)
	}
}

func (t *Tracker) HasWatched(ctx context.Context, viewerID, videoID string) bool {
	_, ok, err := t.kv.Get(ctx, watchedKey(viewerID, videoID))
	if err != nil {
		log.Printf("[tracker] watched marker read error for viewer %s: %v", viewerID, err)
		return false
	}
	return ok
}

func (t *Tracker) MarkLiked(ctx context.Context, viewerID, videoID string) {
	if err := t.kv.Set(ctx, likedKey(viewerID, videoID), "1"); err != nil {
		log.Printf("[tracker] liked marker error for viewer %s: %v", viewerID, err)
	}
}

func (t *Tracker) IsLiked(ctx context.Context, viewerID, videoID string) bool {
	_, ok, err := t.kv.Get(ctx, likedKey(viewerID, videoID))
	if err != nil {
		return false
	}
	return ok
}

func (t *Tracker) persist(ctx context.Context, viewerID string, profile *domain.AffinityProfile) {
	val, err := json.Marshal(profile)
	if err != nil {
		log.Printf("[tracker] marshal profile for viewer %s: %v", viewerID, err)
		return
	}
	if err := t.kv.Set(ctx, profileKey(viewerID), string(val)); err != nil {
		log.Printf("[tracker] profile persist error for viewer %s: %v", viewerID, err)
	}
}

// ActionWeight maps one behavior event to a signed profile weight delta.
// Skips abandoned within the first 10% of the video are penalized harder
// than late skips; views scale with the watched ratio.
func ActionWeight(action domain.BehaviorAction, durationMs int64, totalSeconds float64) float64 {
	watched := float64(durationMs) / 1000.0
	switch action {
	case domain.ActionComplete:
		return completeWeight
	case domain.ActionClick:
		return clickWeight
	case domain.ActionView:
		if durationMs <= 0 || totalSeconds <= 0 {
			return viewUnknownWeight
		}
		ratio := watched / totalSeconds
		if ratio > 1 {
			ratio = 1
		}
		return ratio * viewRatioWeight
	case domain.ActionSkip:
		if totalSeconds > 0 && watched < totalSeconds*earlySkipRatio {
			return earlySkipWeight
		}
		return lateSkipWeight
	default:
		return 0
	}
}

// TimeSlot maps a wall-clock hour to its label.
func TimeSlot(hour int) string {
	switch {
	case hour >= 6 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 17:
		return "afternoon"
	case hour >= 17 && hour < 22:
		return "evening"
	case hour >= 22 || hour < 2:
		return "night"
	default:
		return "late_night"
	}
}
