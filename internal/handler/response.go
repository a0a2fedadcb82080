package handler

import (
	"github.com/yusakuma/feed-service/internal/feed"
	"github.com/yusakuma/feed-service/internal/visibility"
)

type FeedMeta struct {
	CacheHit    bool   `json:"cache_hit"`
	GeneratedAt string `json:"generated_at"`
	SlotCount   int    `json:"slot_count"`
}

type FeedResponse struct {
	ViewerID string              `json:"viewer_id"`
	Cycle    int                 `json:"cycle"`
	Slots    []feed.RenderedSlot `json:"slots"`
	Metadata FeedMeta            `json:"metadata"`
}

type ViewerResponse struct {
	ViewerID string `json:"viewer_id"`
}

type ObservationResponse struct {
	Directives []visibility.Directive `json:"directives"`
}

type EventResponse struct {
	Status    string                `json:"status"`
	Directive *visibility.Directive `json:"directive,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
