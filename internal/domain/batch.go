package domain

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

type BatchViewerResult struct {
	ViewerID  string `json:"viewer_id"`
	SlotCount int    `json:"slot_count,omitempty"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
}

type BatchSummary struct {
	SuccessCount     int   `json:"success_count"`
	FailedCount      int   `json:"failed_count"`
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

type BatchMeta struct {
	GeneratedAt string `json:"generated_at"`
}

type BatchResponse struct {
	Page         int                 `json:"page"`
	Limit        int                 `json:"limit"`
	TotalViewers int                 `json:"total_viewers"`
	Results      []BatchViewerResult `json:"results"`
	Summary      BatchSummary        `json:"summary"`
	Metadata     BatchMeta           `json:"metadata"`
}
