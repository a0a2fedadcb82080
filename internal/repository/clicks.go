package repository

import (
	"context"
	"fmt"
	"time"
)

type ClickEvent struct {
	VideoID   string
	Country   string
	UserAgent string
	Referrer  string
}

// RecordClick persists one outbound click-out event.
func (r *Repository) RecordClick(ctx context.Context, ev ClickEvent) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO click_events (video_id, viewer_country, user_agent, referrer, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		ev.VideoID, ev.Country, ev.UserAgent, ev.Referrer, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert click event for video %s: %w", ev.VideoID, err)
	}
	return nil
}
