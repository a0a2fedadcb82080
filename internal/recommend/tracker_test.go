package recommend

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/yusakuma/feed-service/internal/domain"
	"github.com/yusakuma/feed-service/internal/store"
)

func testVideo() *domain.VideoRecord {
	return &domain.VideoRecord{
		ID:       "v1",
		Title:    "Video 1",
		Category: "drama",
		Tags:     []string{"drama", "story"},
		Attributes: &domain.Attributes{
			Studio:          "studio-x",
			DurationSeconds: 120,
			Mood:            []string{"intense"},
			TimeOfDay:       []string{"evening"},
		},
	}
}

func TestActionWeights(t *testing.T) {
	cases := []struct {
		name     string
		action   domain.BehaviorAction
		duration int64 // ms
		total    float64
		want     float64
	}{
		{"complete", domain.ActionComplete, 0, 120, 5},
		{"click", domain.ActionClick, 0, 120, 3},
		{"view half", domain.ActionView, 60000, 120, 1.5},
		{"view unknown duration", domain.ActionView, 0, 120, 2},
		{"early skip", domain.ActionSkip, 5000, 120, -2},
		{"late skip", domain.ActionSkip, 30000, 120, -0.5},
	}

	for _, tc := range cases {
		got := ActionWeight(tc.action, tc.duration, tc.total)
		if got != tc.want {
			t.Errorf("%s: expected weight %f, got %f", tc.name, tc.want, got)
		}
	}
}

func TestRecordUpdatesLabels(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(store.NewMemory())
	// Fixed evening clock so the time-slot multiplier path is exercised.
	tracker.now = func() time.Time { return time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC) }

	tracker.Record(ctx, "viewer-1", domain.BehaviorEvent{
		VideoID:   "v1",
		Action:    domain.ActionComplete,
		Timestamp: time.Now().UnixMilli(),
	}, testVideo())

	profile := tracker.Profile(ctx, "viewer-1")

	if profile.TotalInteractions != 1 {
		t.Errorf("expected 1 interaction, got %d", profile.TotalInteractions)
	}
	for _, label := range []string{"story", "studio-x", "intense"} {
		if profile.Weights[label] != 5 {
			t.Errorf("label %s: expected weight 5, got %f", label, profile.Weights[label])
		}
	}
	// "drama" is both a tag and the primary category, so it accumulates twice.
	if profile.Weights["drama"] != 10 {
		t.Errorf("shared tag/category label: expected 10, got %f", profile.Weights["drama"])
	}
	if profile.Weights["evening"] != 7.5 {
		t.Errorf("time-slot label should get the 1.5x multiplier, got %f", profile.Weights["evening"])
	}
}

func TestRecordCategorySeparateFromTags(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(store.NewMemory())

	video := &domain.VideoRecord{
		ID:       "v2",
		Category: "cosplay",
		Tags:     []string{"amateur"},
	}
	tracker.Record(ctx, "viewer-1", domain.BehaviorEvent{VideoID: "v2", Action: domain.ActionClick}, video)

	profile := tracker.Profile(ctx, "viewer-1")
	if profile.Weights["cosplay"] != 3 {
		t.Errorf("category weight: expected 3, got %f", profile.Weights["cosplay"])
	}
	if profile.Weights["amateur"] != 3 {
		t.Errorf("tag weight: expected 3, got %f", profile.Weights["amateur"])
	}
}

func TestAverageWatchTime(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(store.NewMemory())
	video := testVideo()

	tracker.Record(ctx, "viewer-1", domain.BehaviorEvent{VideoID: "v1", Action: domain.ActionView, DurationMs: 60000}, video)
	tracker.Record(ctx, "viewer-1", domain.BehaviorEvent{VideoID: "v1", Action: domain.ActionView, DurationMs: 120000}, video)

	profile := tracker.Profile(ctx, "viewer-1")
	if profile.AvgWatchTime != 90 {
		t.Errorf("expected avg watch time 90s, got %f", profile.AvgWatchTime)
	}
}

func TestWatchedMarkerSetOnPositiveActions(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(store.NewMemory())
	video := testVideo()

	if tracker.HasWatched(ctx, "viewer-1", "v1") {
		t.Fatal("fresh viewer should have no watched marker")
	}
	tracker.Record(ctx, "viewer-1", domain.BehaviorEvent{VideoID: "v1", Action: domain.ActionSkip}, video)
	if tracker.HasWatched(ctx, "viewer-1", "v1") {
		t.Error("skip must not set the watched marker")
	}
	tracker.Record(ctx, "viewer-1", domain.BehaviorEvent{VideoID: "v1", Action: domain.ActionComplete}, video)
	if !tracker.HasWatched(ctx, "viewer-1", "v1") {
		t.Error("complete should set the watched marker")
	}
}

func TestHistoryCappedAtHundred(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(store.NewMemory())

	for i := 0; i < 150; i++ {
		tracker.LogEvent(ctx, "viewer-1", domain.BehaviorEvent{
			VideoID:   fmt.Sprintf("v%d", i),
			Action:    domain.ActionView,
			Timestamp: int64(i),
		})
	}

	history := tracker.History(ctx, "viewer-1")
	if len(history) != 100 {
		t.Fatalf("expected history capped at 100, got %d", len(history))
	}
	if history[0].VideoID != "v149" {
		t.Errorf("expected newest event first, got %s", history[0].VideoID)
	}
}

// failingKV rejects every operation, simulating a storage outage.
type failingKV struct{}

var errKVDown = errors.New("kv down")

func (failingKV) Get(context.Context, string) (string, bool, error) { return "", false, errKVDown }

func (failingKV) Set(context.Context, string, string) error { return errKVDown }

func (failingKV) Delete(context.Context, string) error { return errKVDown }

func (failingKV) PushCapped(context.Context, string, string, int) error { return errKVDown }

func (failingKV) List(context.Context, string) ([]string, error) { return nil, errKVDown }

func TestPersistenceFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(failingKV{})

	// Must not panic or surface an error; personalization just degrades.
	tracker.Record(ctx, "viewer-1", domain.BehaviorEvent{VideoID: "v1", Action: domain.ActionComplete}, testVideo())

	profile := tracker.Profile(ctx, "viewer-1")
	if profile.TotalInteractions != 0 {
		t.Errorf("expected cold-start profile after storage failure, got %d interactions", profile.TotalInteractions)
	}
}

func TestTimeSlots(t *testing.T) {
	cases := map[int]string{
		7:  "morning",
		13: "afternoon",
		19: "evening",
		23: "night",
		1:  "night",
		3:  "late_night",
	}
	for hour, want := range cases {
		if got := TimeSlot(hour); got != want {
			t.Errorf("hour %d: expected %s, got %s", hour, want, got)
		}
	}
}
