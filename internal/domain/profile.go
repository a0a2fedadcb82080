package domain

// AffinityProfile is the per-viewer personalization state. Weights accumulate
// signed scores per content label (tag, category, studio, mood, time slot);
// they are unbounded and can go negative for skip-heavy labels.
type AffinityProfile struct {
	Weights           map[string]float64 `json:"weights"`
	TotalInteractions int                `json:"total_interactions"`
	AvgWatchTime      float64            `json:"avg_watch_time"` // seconds
}

func NewAffinityProfile() *AffinityProfile {
	return &AffinityProfile{Weights: map[string]float64{}}
}
