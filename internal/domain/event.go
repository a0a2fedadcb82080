package domain

type BehaviorAction string

const (
	ActionView     BehaviorAction = "view"
	ActionSkip     BehaviorAction = "skip"
	ActionComplete BehaviorAction = "complete"
	ActionClick    BehaviorAction = "click"
)

// BehaviorEvent is a single observed viewer action. Events are fire-and-forget:
// never retried, never queued durably.
type BehaviorEvent struct {
	VideoID    string         `json:"video_id"`
	Action     BehaviorAction `json:"action"`
	DurationMs int64          `json:"duration_ms,omitempty"`
	Timestamp  int64          `json:"timestamp"` // wall-clock milliseconds
}
