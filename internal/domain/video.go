package domain

import "time"

// FallbackCategory is assigned when a record declares neither genres nor tags.
const FallbackCategory = "uncategorized"

type Offer struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Attributes is the enriched metadata block present on legacy manifest entries.
type Attributes struct {
	Studio          string   `json:"studio,omitempty"`
	Genre           []string `json:"genre,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	DurationSeconds float64  `json:"duration,omitempty"`
	ReleaseDate     string   `json:"releaseDate,omitempty"`
	Difficulty      string   `json:"difficulty,omitempty"`
	Popularity      float64  `json:"popularity,omitempty"`
	TimeOfDay       []string `json:"timeOfDay,omitempty"`
	Mood            []string `json:"mood,omitempty"`
}

type VideoRecord struct {
	ID          string      `json:"id"`
	EmbedType   string      `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"desc,omitempty"`
	EmbedSrc    string      `json:"embedSrc,omitempty"`
	Offer       Offer       `json:"offer"`
	Category    string      `json:"category,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	Attributes  *Attributes `json:"attributes,omitempty"`
}

// DurationSeconds returns the declared duration, or 0 when unknown.
func (v *VideoRecord) DurationSeconds() float64 {
	if v.Attributes == nil {
		return 0
	}
	return v.Attributes.DurationSeconds
}

func (v *VideoRecord) Studio() string {
	if v.Attributes == nil {
		return ""
	}
	return v.Attributes.Studio
}

func (v *VideoRecord) Moods() []string {
	if v.Attributes == nil {
		return nil
	}
	return v.Attributes.Mood
}

func (v *VideoRecord) TimeOfDay() []string {
	if v.Attributes == nil {
		return nil
	}
	return v.Attributes.TimeOfDay
}

func (v *VideoRecord) Popularity() float64 {
	if v.Attributes == nil {
		return 0
	}
	return v.Attributes.Popularity
}

// ReleaseDate parses the declared release date; the zero time means unknown.
func (v *VideoRecord) ReleaseDate() time.Time {
	if v.Attributes == nil || v.Attributes.ReleaseDate == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", v.Attributes.ReleaseDate)
	if err != nil {
		return time.Time{}
	}
	return t
}
