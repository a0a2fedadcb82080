package domain

import "errors"

var (
	ErrViewerNotFound   = errors.New("viewer not found")
	ErrVideoNotFound    = errors.New("video not found")
	ErrSlotNotFound     = errors.New("slot not found")
	ErrNoEligibleVideos = errors.New("no ad-eligible videos in catalog")
)
