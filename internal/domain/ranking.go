package domain

// RankedVideo is one entry of a viewer's cached feed ordering.
type RankedVideo struct {
	VideoID string  `json:"video_id"`
	Score   float64 `json:"score"`
}
