package domain

type SlotKind string

const (
	SlotVideo SlotKind = "video"
	SlotAd    SlotKind = "ad"
)

// AdPlacement selects the provider zone serving an ad slot.
type AdPlacement struct {
	Provider string `json:"provider"`
	Zone     string `json:"zone"`
}

// ContentSlot is one position in the rendered feed. SlotID is unique across
// the whole session, including repeated cycles of the same video.
type ContentSlot struct {
	Kind   SlotKind     `json:"kind"`
	SlotID string       `json:"slot_id"`
	Cycle  int          `json:"cycle"`
	Video  *VideoRecord `json:"video,omitempty"`
	Ad     *AdPlacement `json:"ad,omitempty"`
}
