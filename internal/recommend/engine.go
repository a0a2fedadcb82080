package recommend

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/yusakuma/feed-service/internal/domain"
)

const (
	// Below this many interactions there is no meaningful signal to rank on.
	coldStartThreshold = 5
	// Floor keeps skip-heavy content discoverable and ranks sane.
	scoreFloor = 0.1
	// Scores closer than this are tied and broken by random draw.
	tieEpsilon = 0.1
)

// Engine scores and orders catalog videos against an affinity profile.
// Scoring is a pure function of (video, profile, now); the only
// non-determinism is the cold-start shuffle and the random tie-break.
type Engine struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

func NewEngine(rng *rand.Rand) *Engine {
	return &Engine{rng: rng, now: time.Now}
}

// Score computes the recommendation score for one video. Each term is
// independently capped so no single label dominates; the result is floored
// at scoreFloor.
func (e *Engine) Score(video *domain.VideoRecord, profile *domain.AffinityProfile, watched bool) float64 {
	now := e.now()
	score := 0.0

	// Base popularity (0-1).
	score += video.Popularity() / 10

	// Category affinity (<=1).
	if video.Category != "" {
		score += math.Min(profile.Weights[video.Category]/10, 1)
	}

	// Tag affinity, mean over the video's tags (<=2).
	if len(video.Tags) > 0 {
		sum := 0.0
		for _, tag := range video.Tags {
			sum += profile.Weights[tag]
		}
		score += math.Min(sum/float64(len(video.Tags))/10, 2)
	}

	// Studio affinity (<=1).
	if studio := video.Studio(); studio != "" {
		score += math.Min(profile.Weights[studio]/10, 1)
	}

	// Mood affinity, mean over declared moods (<=1.5).
	if moods := video.Moods(); len(moods) > 0 {
		sum := 0.0
		for _, mood := range moods {
			sum += profile.Weights[mood]
		}
		score += math.Min(sum/float64(len(moods))/10, 1.5)
	}

	// Time-of-day bonus, only when the current slot is declared (<=2).
	currentSlot := TimeSlot(now.Hour())
	for _, slot := range video.TimeOfDay() {
		if slot == currentSlot {
			score += math.Min(profile.Weights[slot]/5, 2)
			break
		}
	}

	// Novelty bonus for videos with no watched marker.
	if !watched {
		score += 1
	}

	// Duration fit: rewards durations close to the running average watch time.
	if dur := video.DurationSeconds(); dur > 0 && profile.AvgWatchTime > 0 {
		fit := 1 - math.Abs(dur-profile.AvgWatchTime)/300
		score += math.Max(fit*0.5, 0)
	}

	// Recency bonus decaying linearly over one year.
	if release := video.ReleaseDate(); !release.IsZero() {
		days := now.Sub(release).Hours() / 24
		score += math.Max(0.5-days/365, 0)
	}

	return math.Max(score, scoreFloor)
}

// Scored pairs a video with its computed score. Cold-start orderings carry a
// zero score.
type Scored struct {
	Video domain.VideoRecord
	Score float64
}

// Rank returns a new ordering of videos with their scores. With fewer than
// coldStartThreshold interactions it returns a uniform shuffle; otherwise it
// sorts descending by score, breaking near-ties randomly so repeat visitors
// do not see a frozen order.
func (e *Engine) Rank(videos []domain.VideoRecord, profile *domain.AffinityProfile, watched func(videoID string) bool) []Scored {
	out := make([]Scored, len(videos))
	for i := range videos {
		out[i] = Scored{Video: videos[i]}
	}
	if len(out) == 0 {
		return out
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if profile.TotalInteractions < coldStartThreshold {
		e.rng.Shuffle(len(out), func(i, j int) {
			out[i], out[j] = out[j], out[i]
		})
		return out
	}

	for i := range out {
		out[i].Score = e.Score(&out[i].Video, profile, watched != nil && watched(out[i].Video.ID))
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Score, out[j].Score
		if math.Abs(a-b) < tieEpsilon {
			return e.rng.Float64() < 0.5
		}
		return a > b
	})
	return out
}

// SortByRecommendation is Rank without the scores.
func (e *Engine) SortByRecommendation(videos []domain.VideoRecord, profile *domain.AffinityProfile, watched func(videoID string) bool) []domain.VideoRecord {
	ranked := e.Rank(videos, profile, watched)
	sorted := make([]domain.VideoRecord, len(ranked))
	for i := range ranked {
		sorted[i] = ranked[i].Video
	}
	return sorted
}
